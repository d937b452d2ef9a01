// Package internaldefs holds the shared metric name/help tables used by the
// exporters. Internal to the export tree; not a public API.
package internaldefs

import (
	authsession "github.com/secretsafe/authsession"
)

// CounterDef defines a public type used by authsession APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authsession.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by authsession APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   authsession.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session engine.
var CounterDefs = []CounterDef{
	{ID: authsession.MetricLoginSuccess, Name: "secretsafe_session_login_success_total", Help: "Successful login attempts."},
	{ID: authsession.MetricLoginFailure, Name: "secretsafe_session_login_failure_total", Help: "Failed login attempts."},
	{ID: authsession.MetricLogout, Name: "secretsafe_session_logout_total", Help: "Logout operations."},
	{ID: authsession.MetricRefreshSuccess, Name: "secretsafe_session_refresh_success_total", Help: "Successful token refreshes."},
	{ID: authsession.MetricRefreshRejected, Name: "secretsafe_session_refresh_rejected_total", Help: "Refresh attempts the backend authoritatively rejected."},
	{ID: authsession.MetricRefreshTransientFailure, Name: "secretsafe_session_refresh_transient_failure_total", Help: "Refresh attempts that failed transiently, tokens preserved."},
	{ID: authsession.MetricRefreshCoalesced, Name: "secretsafe_session_refresh_coalesced_total", Help: "Callers that joined an in-flight refresh."},
	{ID: authsession.MetricRestoreAuthenticated, Name: "secretsafe_session_restore_authenticated_total", Help: "Restorations ending authenticated."},
	{ID: authsession.MetricRestoreLoggedOut, Name: "secretsafe_session_restore_logged_out_total", Help: "Restorations ending logged out."},
	{ID: authsession.MetricRestoreDegraded, Name: "secretsafe_session_restore_degraded_total", Help: "Restorations kept authenticated through a transient backend failure."},
	{ID: authsession.MetricRevalidateFailure, Name: "secretsafe_session_revalidate_failure_total", Help: "Failed periodic revalidations."},
	{ID: authsession.MetricStorageFallback, Name: "secretsafe_session_storage_fallback_total", Help: "Writes that landed on the fallback backend."},
	{ID: authsession.MetricExternalInvalidation, Name: "secretsafe_session_external_invalidation_total", Help: "Cross-process logout propagations."},
}

// HistogramDefs is an exported constant or variable used by the session engine.
var HistogramDefs = []HistogramDef{
	{ID: authsession.MetricRefreshLatency, Name: "secretsafe_session_refresh_latency_seconds", Help: "Refresh round-trip latency histogram."},
}

// HistogramBounds lists the upper bounds of the core latency buckets, in
// seconds. The last bucket is +Inf.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// NormalizeBuckets pads or truncates a raw snapshot bucket slice to the
// fixed core bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form the
// Prometheus exposition expects.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
