package guard

import (
	"context"
	"time"

	gymgate "github.com/memberly/gymgate"
	"github.com/memberly/gymgate/token"
)

// Policy holds the three destinations a denial can redirect to.
type Policy struct {
	LoginPath  string
	AdminHome  string
	ClientHome string
}

// PolicyFrom lifts the engine's guard configuration into a Policy.
func PolicyFrom(cfg gymgate.GuardConfig) Policy {
	return Policy{
		LoginPath:  cfg.LoginPath,
		AdminHome:  cfg.AdminHome,
		ClientHome: cfg.ClientHome,
	}
}

func (p Policy) homeFor(role gymgate.Role) string {
	if role == gymgate.RoleAdmin {
		return p.AdminHome
	}
	return p.ClientHome
}

// Decision is the terminal result of evaluating one navigation attempt.
// Redirect is empty exactly when the attempt is allowed.
type Decision struct {
	Outcome  gymgate.GuardOutcome
	Redirect string
}

// Allowed reports whether navigation may proceed.
func (d Decision) Allowed() bool {
	return d.Outcome == gymgate.GuardAllowed
}

// DecodeFunc extracts claims from a raw token. It must not verify
// signatures; the guard trusts whatever the session holds.
type DecodeFunc func(raw string) (*token.Claims, error)

// Evaluate runs the access decision with the default payload decoder.
func Evaluate(rawToken string, req Requirement, pol Policy) Decision {
	return EvaluateWith(token.Decode, rawToken, req, pol)
}

// EvaluateWith is the pure decision core. Every call terminates in one
// of the four outcomes; no branch mutates session state or navigates.
func EvaluateWith(decode DecodeFunc, rawToken string, req Requirement, pol Policy) Decision {
	if req.Public {
		return Decision{Outcome: gymgate.GuardAllowed}
	}
	if rawToken == "" {
		return Decision{Outcome: gymgate.GuardDeniedNoToken, Redirect: pol.LoginPath}
	}
	claims, err := decode(rawToken)
	if err != nil {
		return Decision{Outcome: gymgate.GuardDeniedInvalidToken, Redirect: pol.LoginPath}
	}
	if req.Role == "" {
		return Decision{Outcome: gymgate.GuardAllowed}
	}
	role, err := gymgate.ParseRole(claims.Role)
	if err != nil || role != req.Role {
		// Unknown or missing role claims never satisfy a role
		// requirement; they bounce to the client home like any
		// non-admin identity.
		return Decision{Outcome: gymgate.GuardDeniedWrongRole, Redirect: pol.homeFor(role)}
	}
	return Decision{Outcome: gymgate.GuardAllowed}
}

// SessionSource is the slice of the session store the guard needs.
type SessionSource interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Navigator receives the redirect side effect of a denial.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// EventSink observes every evaluated navigation attempt.
type EventSink interface {
	GuardEvaluated(path string, outcome gymgate.GuardOutcome, redirect string, elapsed time.Duration)
}

// Options wires a Guard. Table and Policy are required; the rest are
// optional collaborators.
type Options struct {
	Table     *Table
	Policy    Policy
	Sessions  SessionSource
	Navigator Navigator
	Events    EventSink
	Decode    DecodeFunc
}

// Guard evaluates navigation attempts against the route table and
// applies the two permitted side effects: clearing the session when the
// stored token is unreadable, and redirecting on denial.
type Guard struct {
	table    *Table
	policy   Policy
	sessions SessionSource
	nav      Navigator
	events   EventSink
	decode   DecodeFunc
}

// New builds a Guard from options, defaulting the decoder.
func New(opts Options) *Guard {
	g := &Guard{
		table:    opts.Table,
		policy:   opts.Policy,
		sessions: opts.Sessions,
		nav:      opts.Navigator,
		events:   opts.Events,
		decode:   opts.Decode,
	}
	if g.table == nil {
		g.table = NewTable()
	}
	if g.decode == nil {
		g.decode = token.Decode
	}
	return g
}

// Check evaluates a navigation attempt using the session's stored token.
// A storage read failure degrades to the no-token path rather than
// blocking navigation on infrastructure.
func (g *Guard) Check(ctx context.Context, path string) Decision {
	var raw string
	if g.sessions != nil {
		if tok, err := g.sessions.Token(ctx); err == nil {
			raw = tok
		}
	}
	return g.CheckToken(ctx, path, raw)
}

// CheckToken evaluates a navigation attempt for an explicit token.
func (g *Guard) CheckToken(ctx context.Context, path, rawToken string) Decision {
	return g.CheckRequirement(ctx, path, rawToken, g.table.Resolve(path))
}

// Claims decodes a raw token with the guard's configured decoder.
func (g *Guard) Claims(raw string) (*token.Claims, error) {
	return g.decode(raw)
}

// CheckRequirement evaluates an attempt against an explicit requirement,
// bypassing the route table.
func (g *Guard) CheckRequirement(ctx context.Context, path, rawToken string, req Requirement) Decision {
	start := time.Now()
	dec := EvaluateWith(g.decode, rawToken, req, g.policy)

	if dec.Outcome == gymgate.GuardDeniedInvalidToken && g.sessions != nil {
		// The stored token can never become readable again; drop the
		// whole session so the next attempt starts logged out.
		_ = g.sessions.Clear(ctx)
	}
	if g.events != nil {
		g.events.GuardEvaluated(path, dec.Outcome, dec.Redirect, time.Since(start))
	}
	if !dec.Allowed() && g.nav != nil && dec.Redirect != "" && dec.Redirect != path {
		g.nav.Navigate(dec.Redirect)
	}
	return dec
}
