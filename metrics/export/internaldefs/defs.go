// Package internaldefs holds the metric naming shared by every
// exporter. Exporters must agree on names so dashboards survive a swap
// between export backends.
package internaldefs

import (
	gymgate "github.com/memberly/gymgate"
)

// CounterDef binds a core metric ID to its exported name.
type CounterDef struct {
	ID   gymgate.MetricID
	Name string
	Help string
}

// HistogramDef binds a core histogram ID to its exported name.
type HistogramDef struct {
	ID   gymgate.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: gymgate.MetricLoginSuccess, Name: "gymgate_login_success_total", Help: "Successful login attempts."},
	{ID: gymgate.MetricLoginFailure, Name: "gymgate_login_failure_total", Help: "Failed login attempts."},
	{ID: gymgate.MetricSignupSuccess, Name: "gymgate_signup_success_total", Help: "Successful account signups."},
	{ID: gymgate.MetricSignupFailure, Name: "gymgate_signup_failure_total", Help: "Failed account signups."},
	{ID: gymgate.MetricLogout, Name: "gymgate_logout_total", Help: "Logout operations."},
	{ID: gymgate.MetricRestoreSuccess, Name: "gymgate_restore_success_total", Help: "Sessions restored from storage."},
	{ID: gymgate.MetricRestoreCorrupt, Name: "gymgate_restore_corrupt_total", Help: "Restores that found a corrupt snapshot."},
	{ID: gymgate.MetricIdentityRefresh, Name: "gymgate_identity_refresh_total", Help: "Identity refreshes from the backend."},
	{ID: gymgate.MetricGuardAllowed, Name: "gymgate_guard_allowed_total", Help: "Navigation attempts allowed by the guard."},
	{ID: gymgate.MetricGuardDeniedNoToken, Name: "gymgate_guard_denied_no_token_total", Help: "Navigation attempts denied for a missing token."},
	{ID: gymgate.MetricGuardDeniedInvalidToken, Name: "gymgate_guard_denied_invalid_token_total", Help: "Navigation attempts denied for an unreadable token."},
	{ID: gymgate.MetricGuardDeniedWrongRole, Name: "gymgate_guard_denied_wrong_role_total", Help: "Navigation attempts denied for a role mismatch."},
	{ID: gymgate.MetricObserverConflated, Name: "gymgate_observer_conflated_total", Help: "Observer updates conflated under backpressure."},
}

var HistogramDefs = []HistogramDef{
	{ID: gymgate.MetricGuardLatency, Name: "gymgate_guard_latency_seconds", Help: "Guard evaluation latency histogram."},
}

// HistogramBounds are the bucket upper bounds in seconds, matching the
// core histogram layout.
var HistogramBounds = []string{
	"0.000005",
	"0.00001",
	"0.000025",
	"0.00005",
	"0.0001",
	"0.00025",
	"0.0005",
	"+Inf",
}

// HistogramBoundSuffix carries metric-name-safe forms of the bounds for
// backends that cannot label buckets.
var HistogramBoundSuffix = []string{
	"5us",
	"10us",
	"25us",
	"50us",
	"100us",
	"250us",
	"500us",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// exposition formats expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
