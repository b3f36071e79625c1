package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/phone-auth/internal/api/http/handlers"
)

func TestHealthLive(t *testing.T) {
	handler := handlers.NewHealthHandler("phone-auth-test", "test", nil, nil)
	app := fiber.New()
	app.Get("/health/live", handler.Live)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "alive", payload["status"])
	assert.Equal(t, "phone-auth-test", payload["service"])
}

func TestHealthReadyDegradedWithoutDependencies(t *testing.T) {
	handler := handlers.NewHealthHandler("phone-auth-test", "test", nil, nil)
	app := fiber.New()
	app.Get("/health/ready", handler.Ready)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
