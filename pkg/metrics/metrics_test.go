package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := New("test")

	c.ObserveRequest("catalog.CreateProduct", "command", "success", 20*time.Millisecond)
	c.ObserveRequest("catalog.CreateProduct", "command", "failure", 30*time.Millisecond)
	c.ObserveSlowRequest("catalog.CreateProduct")
	c.ObserveTransaction("catalog.CreateProduct", "commit")

	body := scrape(t, c)
	assert.Contains(t, body, `test_pipeline_requests_total{kind="command",outcome="success",request="catalog.CreateProduct"} 1`)
	assert.Contains(t, body, `test_pipeline_slow_requests_total{request="catalog.CreateProduct"} 1`)
	assert.Contains(t, body, `test_unit_of_work_transactions_total{request="catalog.CreateProduct",resolution="commit"} 1`)
	assert.Contains(t, body, `test_pipeline_request_duration_seconds_count{kind="command",request="catalog.CreateProduct"} 2`)
}

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveRequest("x", "query", "success", time.Millisecond)
	c.ObserveSlowRequest("x")
	c.ObserveTransaction("x", "commit")
}

func TestHandlerExposesPipelineMetrics(t *testing.T) {
	c := New("")
	c.ObserveTransaction("catalog.DeleteProduct", "rollback")

	assert.Contains(t, scrape(t, c), `catalog_unit_of_work_transactions_total{request="catalog.DeleteProduct",resolution="rollback"} 1`)
}
