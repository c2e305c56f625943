package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/civic-portal/app/dto"
	"github.com/amirphl/civic-portal/app/services"
)

func newProtectedApp(t *testing.T) (*fiber.App, services.TokenService) {
	t.Helper()
	tokens, err := services.NewTokenService("test-secret-key-for-jwt-signing-32-chars", time.Hour, "test-issuer", "test-audience")
	require.NoError(t, err)

	app := fiber.New()
	app.Use(Metrics())
	app.Get("/admin/ping", NewAuthMiddleware(tokens).AdminAuthenticate(), func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"admin_id": c.Locals(AdminIDLocal)})
	})
	return app, tokens
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error dto.ErrorDetail `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error.Code
}

func TestAdminAuthenticate(t *testing.T) {
	app, tokens := newProtectedApp(t)

	t.Run("MissingHeader", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "MISSING_AUTHORIZATION_HEADER", errorCode(t, resp))
	})

	t.Run("WrongScheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
		req.Header.Set("Authorization", "Basic abc")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, "INVALID_AUTHORIZATION_FORMAT", errorCode(t, resp))
	})

	t.Run("InvalidToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
		req.Header.Set("Authorization", "Bearer nope")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, "TOKEN_INVALID", errorCode(t, resp))
	})

	t.Run("ValidToken", func(t *testing.T) {
		token, _, err := tokens.GenerateAdminToken(3)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, float64(3), body["admin_id"])
	})
}
