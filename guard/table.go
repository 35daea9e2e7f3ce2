package guard

import (
	"sort"
	"strings"
	"sync"

	gymgate "github.com/memberly/gymgate"
)

// Requirement is the static access metadata attached to one navigable
// destination. The zero value means "any authenticated identity".
type Requirement struct {
	// Role, when set, must equal the identity's role exactly.
	Role gymgate.Role
	// Public destinations need no token at all.
	Public bool
}

// Table maps destination paths to requirements. Registration happens at
// startup; Resolve is read-only afterwards, but the table locks anyway so
// late registration in tests stays safe.
//
// Paths registered with a trailing "/" match as prefixes (longest prefix
// wins); all other paths match exactly. Destinations missing from the
// table resolve to the default requirement.
type Table struct {
	mu       sync.RWMutex
	exact    map[string]Requirement
	prefixes []prefixRule
	fallback Requirement
}

type prefixRule struct {
	prefix string
	req    Requirement
}

// NewTable creates a table whose unregistered destinations require an
// authenticated identity.
func NewTable() *Table {
	return &Table{exact: make(map[string]Requirement)}
}

// NewTableFromConfig creates a table pre-seeded from the guard
// configuration: the login path is public, and unregistered destinations
// follow RequireAuthByDefault.
func NewTableFromConfig(cfg gymgate.GuardConfig) *Table {
	t := NewTable().Public(cfg.LoginPath)
	if !cfg.RequireAuthByDefault {
		t.SetDefault(Requirement{Public: true})
	}
	return t
}

// SetDefault replaces the requirement for unregistered destinations.
func (t *Table) SetDefault(req Requirement) *Table {
	t.mu.Lock()
	t.fallback = req
	t.mu.Unlock()
	return t
}

// Register attaches a requirement to a path. A trailing "/" registers a
// prefix rule covering the whole subtree.
func (t *Table) Register(path string, req Requirement) *Table {
	t.mu.Lock()
	defer t.mu.Unlock()

	if strings.HasSuffix(path, "/") && path != "/" {
		t.prefixes = append(t.prefixes, prefixRule{prefix: path, req: req})
		sort.SliceStable(t.prefixes, func(i, j int) bool {
			return len(t.prefixes[i].prefix) > len(t.prefixes[j].prefix)
		})
		return t
	}
	t.exact[path] = req
	return t
}

// Public registers a destination reachable without a token.
func (t *Table) Public(path string) *Table {
	return t.Register(path, Requirement{Public: true})
}

// Authenticated registers a destination open to any logged-in identity.
func (t *Table) Authenticated(path string) *Table {
	return t.Register(path, Requirement{})
}

// Require registers a destination restricted to one role.
func (t *Table) Require(path string, role gymgate.Role) *Table {
	return t.Register(path, Requirement{Role: role})
}

// Resolve returns the requirement governing a destination.
func (t *Table) Resolve(path string) Requirement {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if req, ok := t.exact[path]; ok {
		return req
	}
	for _, rule := range t.prefixes {
		if strings.HasPrefix(path, rule.prefix) {
			return rule.req
		}
	}
	return t.fallback
}
