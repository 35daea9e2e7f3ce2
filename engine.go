package gymgate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/memberly/gymgate/token"
)

// Engine orchestrates the session core: credential exchange with the
// backend, the durable identity store, and the hooks guards report into.
// Engines are built once through [Builder.Build] and are safe for
// concurrent use afterwards.
type Engine struct {
	config  Config
	store   *Store
	backend BackendClient
	audit   *auditDispatcher
	metrics *Metrics
}

// Store exposes the session store for guards and middleware.
func (e *Engine) Store() *Store {
	if e == nil {
		return nil
	}
	return e.store
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// Login exchanges credentials for a bearer token, fetches the full
// profile, and adopts both into the session store in one atomic write.
// The store is only touched after the exchange resolves; a failed login
// leaves the previous session untouched.
func (e *Engine) Login(ctx context.Context, email, password string) (*Identity, error) {
	if e == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}
	email = strings.TrimSpace(email)

	rawToken, err := e.backend.Login(ctx, email, password)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emit(ctx, AuditEvent{EventType: AuditLoginFailure, Email: email, Error: err.Error()})
		return nil, err
	}

	claims, err := token.Decode(rawToken)
	if err != nil {
		// The backend issued something we cannot even decode; treat it
		// like a failed login rather than adopting an unusable session.
		e.metricInc(MetricLoginFailure)
		e.emit(ctx, AuditEvent{EventType: AuditLoginFailure, Email: email, Error: err.Error()})
		return nil, err
	}

	identity, err := e.backend.UserByEmail(ctx, email)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emit(ctx, AuditEvent{EventType: AuditLoginFailure, Email: email, Error: err.Error()})
		return nil, err
	}

	if !identity.Role.Valid() {
		// Profile payloads are external; fall back to the token's role
		// claim before giving up.
		role, roleErr := ParseRole(claims.Role)
		if roleErr != nil {
			e.metricInc(MetricLoginFailure)
			e.emit(ctx, AuditEvent{EventType: AuditLoginFailure, Email: email, Error: ErrRoleInvalid.Error()})
			return nil, ErrRoleInvalid
		}
		identity = identity.Clone()
		identity.Role = role
	}

	if err := e.store.SetIdentity(ctx, rawToken, identity); err != nil {
		e.metricInc(MetricLoginFailure)
		e.emit(ctx, AuditEvent{EventType: AuditLoginFailure, Email: email, Error: err.Error()})
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emit(ctx, AuditEvent{
		EventType: AuditLogin,
		Email:     identity.Email,
		UserID:    identity.ID,
		Role:      identity.Role,
		Success:   true,
	})
	return identity.Clone(), nil
}

// Signup forwards an account-creation request to the backend. It never
// logs the new account in; the caller navigates to login afterwards.
func (e *Engine) Signup(ctx context.Context, input SignupInput) error {
	if e == nil || e.backend == nil {
		return ErrEngineNotReady
	}
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		e.metricInc(MetricSignupFailure)
		return ErrInvalidCredentials
	}
	if input.Role != "" && !input.Role.Valid() {
		e.metricInc(MetricSignupFailure)
		return ErrRoleInvalid
	}

	if err := e.backend.Signup(ctx, input); err != nil {
		e.metricInc(MetricSignupFailure)
		e.emit(ctx, AuditEvent{EventType: AuditSignup, Email: input.Email, Error: err.Error()})
		return err
	}

	e.metricInc(MetricSignupSuccess)
	e.emit(ctx, AuditEvent{EventType: AuditSignup, Email: input.Email, Success: true})
	return nil
}

// Logout clears the session. Idempotent: logging out twice is safe.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	current := e.store.Current()
	if err := e.store.Clear(ctx); err != nil {
		return err
	}

	e.metricInc(MetricLogout)
	event := AuditEvent{EventType: AuditLogout, Success: true}
	if current != nil {
		event.Email = current.Email
		event.UserID = current.ID
		event.Role = current.Role
	}
	e.emit(ctx, event)
	return nil
}

// Restore rehydrates the session from persisted storage. A corrupt or
// half-written persisted state is recovered by clearing it and reported
// through audit and metrics, not returned as an error: the process simply
// starts logged out.
func (e *Engine) Restore(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	err := e.store.Restore(ctx)
	switch {
	case errors.Is(err, ErrSnapshotCorrupt):
		e.metricInc(MetricRestoreCorrupt)
		e.emit(ctx, AuditEvent{EventType: AuditRestoreCorrupt, Error: err.Error()})
		return nil
	case err != nil:
		return err
	}

	if current := e.store.Current(); current != nil {
		e.metricInc(MetricRestoreSuccess)
		e.emit(ctx, AuditEvent{
			EventType: AuditRestore,
			Email:     current.Email,
			UserID:    current.ID,
			Role:      current.Role,
			Success:   true,
		})
	}
	return nil
}

// Current returns the current identity or nil.
func (e *Engine) Current() *Identity {
	if e == nil || e.store == nil {
		return nil
	}
	return e.store.Current()
}

// Observe subscribes to identity updates. See [Store.Observe].
func (e *Engine) Observe() *Subscription {
	if e == nil || e.store == nil {
		return nil
	}
	return e.store.Observe()
}

// RefreshIdentity re-fetches the current profile from the backend and
// updates the persisted snapshot, leaving the token untouched.
func (e *Engine) RefreshIdentity(ctx context.Context) (*Identity, error) {
	if e == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}

	current := e.store.Current()
	if current == nil || current.Email == "" {
		return nil, ErrNotLoggedIn
	}

	identity, err := e.backend.UserByEmail(ctx, current.Email)
	if err != nil {
		return nil, err
	}
	if !identity.Role.Valid() {
		return nil, ErrRoleInvalid
	}
	if err := e.store.UpdateIdentity(ctx, identity); err != nil {
		return nil, err
	}

	e.metricInc(MetricIdentityRefresh)
	e.emit(ctx, AuditEvent{
		EventType: AuditIdentityRefresh,
		Email:     identity.Email,
		UserID:    identity.ID,
		Role:      identity.Role,
		Success:   true,
	})
	return identity.Clone(), nil
}

// HomeFor maps a role onto its configured home destination.
func (e *Engine) HomeFor(role Role) string {
	if role == RoleAdmin {
		return e.config.Guard.AdminHome
	}
	return e.config.Guard.ClientHome
}

// GuardEvaluated is the event hook route guards report into; it feeds
// metrics and, for denials, the audit stream. Guards call it once per
// evaluation.
func (e *Engine) GuardEvaluated(path string, outcome GuardOutcome, redirect string, elapsed time.Duration) {
	if e == nil {
		return
	}

	switch outcome {
	case GuardAllowed:
		e.metricInc(MetricGuardAllowed)
	case GuardDeniedNoToken:
		e.metricInc(MetricGuardDeniedNoToken)
	case GuardDeniedInvalidToken:
		e.metricInc(MetricGuardDeniedInvalidToken)
	case GuardDeniedWrongRole:
		e.metricInc(MetricGuardDeniedWrongRole)
	}
	e.metrics.Observe(MetricGuardLatency, elapsed)

	if outcome != GuardAllowed {
		e.emit(context.Background(), AuditEvent{
			EventType: AuditGuardDenied,
			Path:      path,
			Outcome:   outcome.String(),
			Metadata:  map[string]string{"redirect": redirect},
		})
	}
}

// MetricsSnapshot copies the engine counters. Empty when metrics are
// disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports events lost to dispatcher backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	e.audit.Emit(ctx, event)
}
