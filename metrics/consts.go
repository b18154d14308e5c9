package metrics

const (
	endpointMetrics = "/metrics"
)

// Metric types
const (
	typeCounter   = "counter"
	typeHistogram = "histogram"
)

// Metric names and labels
const (
	prefix = "chi_claim_"

	prefixRequest        = prefix + "request_"
	metricRequestCount   = prefixRequest + "count"
	metricRequestLatency = prefixRequest + "latency_ms"
	labelMethod          = "method"
	labelIsSuccess       = "is_success"

	prefixClaim            = prefix + "claim_"
	metricClaimCount       = prefixClaim + "count"
	metricClaimTotalAmount = prefixClaim + "total_amount"
)
