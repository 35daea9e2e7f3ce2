package gymgate

import (
	"errors"
	"strings"
	"time"
)

// Config defines the engine-wide configuration. Instances are cloned by
// the Builder and treated as immutable after Build.
type Config struct {
	Session SessionConfig
	Guard   GuardConfig
	Backend BackendConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the identity store.
type SessionConfig struct {
	// StoragePrefix namespaces the persisted keys when the storage
	// backend is shared (the Redis backend prepends it).
	StoragePrefix string
	// ObserverBuffer is the per-subscription channel depth. Slow
	// subscribers past this depth observe latest-value conflation.
	ObserverBuffer int
}

/*
====================================
GUARD CONFIG
====================================
*/

// GuardConfig fixes the redirect policy consumed by route guards. The
// logged-out fallback is the login path for every denial without a usable
// role; role mismatches land on the role's own home so a denial can never
// loop back onto the denied destination.
type GuardConfig struct {
	LoginPath  string
	AdminHome  string
	ClientHome string
	// RequireAuthByDefault gates destinations missing from the route
	// table. When false, unknown destinations are public.
	RequireAuthByDefault bool
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig configures the REST collaborator client.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration the Builder starts from. Route
// paths default to the mobile app's navigation layout.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			StoragePrefix:  "mg",
			ObserverBuffer: 8,
		},
		Guard: GuardConfig{
			LoginPath:            "/login",
			AdminHome:            "/tabs/admin-dashboard",
			ClientHome:           "/tabs/home-membre",
			RequireAuthByDefault: true,
		},
		Backend: BackendConfig{
			Timeout: 10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types today; the clone exists so Builder
	// callers can keep mutating their Config after WithConfig.
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	// Session
	if c.Session.ObserverBuffer <= 0 {
		return errors.New("Session ObserverBuffer must be > 0")
	}

	// Guard
	if !isPath(c.Guard.LoginPath) {
		return errors.New("Guard LoginPath must be an absolute path")
	}
	if !isPath(c.Guard.AdminHome) {
		return errors.New("Guard AdminHome must be an absolute path")
	}
	if !isPath(c.Guard.ClientHome) {
		return errors.New("Guard ClientHome must be an absolute path")
	}
	if c.Guard.AdminHome == c.Guard.LoginPath || c.Guard.ClientHome == c.Guard.LoginPath {
		return errors.New("Guard role homes must differ from LoginPath")
	}

	// Backend
	if c.Backend.Timeout < 0 {
		return errors.New("Backend Timeout must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

func isPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.ContainsAny(p, " \t\n")
}
