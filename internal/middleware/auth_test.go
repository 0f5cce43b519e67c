package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected", RequireAPIKey(), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("api_key").(string))
	})
	return app
}

func TestRequireAPIKey(t *testing.T) {
	t.Run("rejects a missing header", func(t *testing.T) {
		app := newProtectedApp()
		resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects a malformed scheme", func(t *testing.T) {
		app := newProtectedApp()
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Basic abc123")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects an empty bearer token", func(t *testing.T) {
		app := newProtectedApp()
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer ")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("accepts a well-formed bearer token", func(t *testing.T) {
		app := newProtectedApp()
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer mykey123")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("scheme match is case-insensitive", func(t *testing.T) {
		app := newProtectedApp()
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "BEARER mykey123")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}
