package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubChecker struct {
	name   string
	status Status
}

func (c stubChecker) Name() string                          { return c.name }
func (c stubChecker) Check(context.Context) ComponentHealth { return ComponentHealth{Status: c.status} }

func TestStoreChecker(t *testing.T) {
	healthy := NewStoreChecker(stubPinger{})
	result := healthy.Check(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)

	down := NewStoreChecker(stubPinger{err: errors.New("connection refused")})
	result = down.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Contains(t, result.Message, "connection refused")
}

func TestHTTPChecker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewHTTPChecker("order-api", server.URL)
	result := checker.Check(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)
	assert.Equal(t, "HTTP 200", result.Message)
}

func TestHTTPChecker_RemoteTroubleIsDegraded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	checker := NewHTTPChecker("order-api", server.URL)
	result := checker.Check(context.Background())
	assert.Equal(t, StatusDegraded, result.Status)

	unreachable := NewHTTPChecker("order-api", "http://127.0.0.1:1")
	result = unreachable.Check(context.Background())
	assert.Equal(t, StatusDegraded, result.Status)
}

func TestHealthHandler_AggregatesComponents(t *testing.T) {
	s := NewServer(0, "test")
	s.RegisterChecker(stubChecker{name: "store", status: StatusHealthy})
	s.RegisterChecker(stubChecker{name: "order-api", status: StatusDegraded})

	rec := httptest.NewRecorder()
	s.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, "test", resp.Version)
	assert.Len(t, resp.Components, 2)
}

func TestHealthHandler_UnhealthyComponent(t *testing.T) {
	s := NewServer(0, "test")
	s.RegisterChecker(stubChecker{name: "temporal", status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	s.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadinessHandler_DegradedStaysReady(t *testing.T) {
	s := NewServer(0, "test")
	s.RegisterChecker(stubChecker{name: "store", status: StatusHealthy})
	s.RegisterChecker(stubChecker{name: "order-api", status: StatusDegraded})

	rec := httptest.NewRecorder()
	s.readinessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadinessHandler_UnhealthyIsNotReady(t *testing.T) {
	s := NewServer(0, "test")
	s.RegisterChecker(stubChecker{name: "store", status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	s.readinessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
