package metrics

import (
	"math/big"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordRequest increments the request count for the method
func RecordRequest(method string, isSuccess bool) {
	counterInc(metricRequestCount, map[string]string{labelMethod: method, labelIsSuccess: strconv.FormatBool(isSuccess)})
}

// RecordRequestLatency records the latency histogram in milliseconds
func RecordRequestLatency(method string, latency time.Duration, isSuccess bool) {
	latencyMs := float64(latency) / float64(time.Millisecond)
	histogramObserve(metricRequestLatency, latencyMs, map[string]string{labelMethod: method, labelIsSuccess: strconv.FormatBool(isSuccess)})
}

// RecordClaim records one settled claim, increasing the claim count and
// adding the amount to the total claimed amount
func RecordClaim(amount *big.Int) {
	counterInc(metricClaimCount, prometheus.Labels{})
	amountFloat, _ := new(big.Float).SetInt(amount).Float64()
	counterAdd(metricClaimTotalAmount, amountFloat, prometheus.Labels{})
}
