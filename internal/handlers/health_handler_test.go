package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"voyage-backend/internal/health"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_Readiness(t *testing.T) {
	up := NewHealthHandler(health.NewHealthChecker(pingFunc(func(context.Context) error { return nil }), nil, ""))
	rec := httptest.NewRecorder()
	up.ReadinessHealth(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := NewHealthHandler(health.NewHealthChecker(pingFunc(func(context.Context) error { return errors.New("down") }), nil, ""))
	rec = httptest.NewRecorder()
	down.ReadinessHealth(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unhealthy"`)

	rec = httptest.NewRecorder()
	down.BasicHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
