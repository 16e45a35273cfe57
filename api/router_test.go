package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalog/api"
	apicatalog "catalog/api/catalog"
	"catalog/api/health"
	"catalog/api/middleware"
	"catalog/application/behavior"
	"catalog/application/catalog"
	"catalog/application/mediator"
	"catalog/application/validation"
	"catalog/config"
	"catalog/infrastructure/persistence"
	"catalog/infrastructure/persistence/audit"
	"catalog/infrastructure/persistence/memory"
	"catalog/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type envelope struct {
	Success   bool                `json:"success"`
	Data      json.RawMessage     `json:"data"`
	Error     string              `json:"error"`
	Code      int                 `json:"code"`
	Message   string              `json:"message"`
	Errors    map[string][]string `json:"errors"`
	RequestID string              `json:"request_id"`
}

func newServer(t *testing.T) *gin.Engine {
	t.Helper()
	log := zaptest.NewLogger(t)
	cfg := &config.Config{App: config.AppConfig{Name: "catalog", Version: "test", Env: "test"}}

	db := memory.New()
	factory := persistence.NewUnitOfWorkFactory(db, log, audit.NewInterceptor())
	collector := metrics.New("catalog")
	handlers := catalog.NewHandlers(factory, log)
	m, err := mediator.New(handlers.Registrations(), mediator.WithBehaviors(behavior.Pipeline(
		validation.NewBehavior(catalog.Validators(factory)),
		behavior.NewPerformance(log, behavior.WithMetrics(collector)),
		behavior.NewTransaction(factory, log, collector),
	)...))
	require.NoError(t, err)

	router := api.NewRouter(cfg,
		[]api.ControllerRegister{health.NewController(cfg, nil), apicatalog.NewController(m)},
		nil,
		[]api.Route{{Method: http.MethodGet, Path: "/metrics", Handler: gin.WrapH(collector.Handler())}},
	)
	router.SetupRoutes()
	return router.GetEngine()
}

func do(t *testing.T, srv http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.UserIDHeader, "carol")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func TestProductLifecycleOverHTTP(t *testing.T) {
	srv := newServer(t)

	rec, env := do(t, srv, http.MethodPost, "/api/v1/products", map[string]any{
		"name": "Kettle", "sku": "ket-1", "price": 2999, "currency": "EUR", "stock": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	var created catalog.ProductResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "carol", created.Audit.CreatedBy)

	rec, _ = do(t, srv, http.MethodGet, "/api/v1/products/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, srv, http.MethodPut, "/api/v1/products/"+created.ID, map[string]any{
		"version": created.Version + 5, "name": "Kettle 2", "price": 2999, "currency": "EUR",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONCURRENCY_CONFLICT", env.Error)

	rec, _ = do(t, srv, http.MethodPut, "/api/v1/products/"+created.ID, map[string]any{
		"version": created.Version, "name": "Kettle 2", "price": 2999, "currency": "EUR",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = do(t, srv, http.MethodDelete, fmt.Sprintf("/api/v1/products/%s?version=%d", created.ID, created.Version+1), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = do(t, srv, http.MethodGet, "/api/v1/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = do(t, srv, http.MethodGet, "/api/v1/products/"+created.ID+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []catalog.HistoryEntryResponse
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 3)
	assert.Equal(t, "Delete", history[2].Action)
	assert.Equal(t, "carol", history[2].UserID)
}

func TestValidationFailureOverHTTP(t *testing.T) {
	srv := newServer(t)

	rec, env := do(t, srv, http.MethodPost, "/api/v1/products", map[string]any{
		"name": "", "sku": "X", "price": 10, "currency": "EURO",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error)
	assert.Equal(t, "Validation failed", env.Message)
	assert.Contains(t, env.Errors, "Name")
	assert.Contains(t, env.Errors, "Currency")

	rec, _ = do(t, srv, http.MethodDelete, "/api/v1/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newServer(t)

	rec, _ := do(t, srv, http.MethodGet, "/api/v1/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	do(t, srv, http.MethodGet, "/api/v1/categories", nil)
	rec, _ = do(t, srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog_")
}
