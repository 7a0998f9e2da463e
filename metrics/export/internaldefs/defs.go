package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one session counter.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one session histogram.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Logins accepted by the API."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Logins rejected by the API."},
	{ID: goSession.MetricLoginTransportFailure, Name: "gosession_login_transport_failure_total", Help: "Logins that could not reach the API."},
	{ID: goSession.MetricCredentialStored, Name: "gosession_credential_stored_total", Help: "Credentials written to the store."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Logout operations."},
	{ID: goSession.MetricProfileCacheHit, Name: "gosession_profile_cache_hit_total", Help: "Profile lookups served from cache."},
	{ID: goSession.MetricProfileCacheMiss, Name: "gosession_profile_cache_miss_total", Help: "Profile lookups sent to the API."},
	{ID: goSession.MetricProfileSkipped, Name: "gosession_profile_skipped_total", Help: "Profile lookups skipped without a credential."},
	{ID: goSession.MetricProfileFetchFailure, Name: "gosession_profile_fetch_failure_total", Help: "Failed profile fetches."},
	{ID: goSession.MetricProfileDiscarded, Name: "gosession_profile_discarded_total", Help: "Profiles dropped because the session changed in flight."},
	{ID: goSession.MetricAPIRequest, Name: "gosession_api_requests_total", Help: "Requests sent by the authenticated client."},
	{ID: goSession.MetricAPIRequestFailure, Name: "gosession_api_request_failures_total", Help: "Requests that failed in transport or with a 5xx status."},
}

var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricAPILatency, Name: "gosession_api_latency_seconds", Help: "Authenticated client request latency."},
}

// AuditDroppedName is the counter of audit events dropped under backpressure.
const (
	AuditDroppedName = "gosession_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// HistogramBounds are the finite upper bounds, in seconds, of the latency
// buckets. The last snapshot bucket is +Inf.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names every bucket, +Inf included, for exporters
// that publish one instrument per bucket.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [goSession.HistBucketCount]uint64 {
	var out [goSession.HistBucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [goSession.HistBucketCount]uint64) [goSession.HistBucketCount]uint64 {
	var out [goSession.HistBucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
