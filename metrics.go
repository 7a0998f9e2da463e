package goSession

import internalmetrics "github.com/MrEthical07/goSession/internal/metrics"

// MetricID identifies a session metric.
type MetricID = internalmetrics.MetricID

// MetricsSnapshot is a copy of all metric values. Histogram buckets are
// non-cumulative.
type MetricsSnapshot = internalmetrics.Snapshot

// HistBucketCount is the number of latency buckets, +Inf included.
const HistBucketCount = internalmetrics.HistBucketCount

const (
	MetricLoginSuccess          = internalmetrics.MetricLoginSuccess
	MetricLoginFailure          = internalmetrics.MetricLoginFailure
	MetricLoginTransportFailure = internalmetrics.MetricLoginTransportFailure
	MetricCredentialStored      = internalmetrics.MetricCredentialStored
	MetricLogout                = internalmetrics.MetricLogout
	MetricProfileCacheHit       = internalmetrics.MetricProfileCacheHit
	MetricProfileCacheMiss      = internalmetrics.MetricProfileCacheMiss
	MetricProfileSkipped        = internalmetrics.MetricProfileSkipped
	MetricProfileFetchFailure   = internalmetrics.MetricProfileFetchFailure
	MetricProfileDiscarded      = internalmetrics.MetricProfileDiscarded
	MetricAPIRequest            = internalmetrics.MetricAPIRequest
	MetricAPIRequestFailure     = internalmetrics.MetricAPIRequestFailure
	MetricAPILatency            = internalmetrics.MetricAPILatency
)
