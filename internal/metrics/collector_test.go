package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestCollector_RecordHTTPRequest(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	c.RecordHTTPRequest("POST", "/api/v1/operations/:operation", 200, 100*time.Millisecond, 2048)
	c.RecordHTTPRequest("POST", "/api/v1/operations/:operation", 200, 50*time.Millisecond, 1024)

	assert.Equal(t, 1, testutil.CollectAndCount(c.httpRequestsTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("POST", "/api/v1/operations/:operation", "2xx")))
}

func TestCollector_RecordUpstream(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	c.RecordUpstreamRequest("GET", "/v2/video/generations", 200, time.Second)
	c.RecordUpstreamRequest("GET", "/v2/video/generations", 0, time.Second)
	c.RecordUpstreamRetry("/v2/video/generations")
	c.RecordBreakerState("aimlapi", 1)

	assert.Equal(t, 2, testutil.CollectAndCount(c.upstreamRequestsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.upstreamRequestsTotal.WithLabelValues("GET", "/v2/video/generations", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.upstreamRetries.WithLabelValues("/v2/video/generations")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.breakerState.WithLabelValues("aimlapi")))
}

func TestCollector_RecordGeneration(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	c.RecordGeneration("video", "completed", 4, 10*time.Second)
	c.RecordGeneration("video", "timed_out", 120, 600*time.Second)
	c.RecordOperationItem("videoGeneration", "success")

	assert.Equal(t, 2, testutil.CollectAndCount(c.generationsTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(c.generationPolls))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.operationItemsTotal.WithLabelValues("videoGeneration", "success")))
}

func TestCollector_RecordCacheLookup(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	c.RecordCacheLookup("catalog", true)
	c.RecordCacheLookup("catalog", false)
	c.RecordCacheLookup("catalog", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.cacheHits.WithLabelValues("catalog")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.cacheMisses.WithLabelValues("catalog")))
}

func TestStatusCode(t *testing.T) {
	tests := map[int]string{200: "2xx", 301: "3xx", 404: "4xx", 503: "5xx", 0: "error"}
	for code, want := range tests {
		assert.Equal(t, want, statusCode(code))
	}
}
