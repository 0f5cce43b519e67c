package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDStampsHeaderAndLocals(t *testing.T) {
	app := fiber.New()
	var seen string
	app.Get("/x", RequestID(), func(c *fiber.Ctx) error {
		seen = c.Locals("request_id").(string)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, resp.Header.Get("X-Request-Id"))
}

func TestRequestIDDiffersAcrossRequests(t *testing.T) {
	app := fiber.New()
	var ids []string
	app.Get("/x", RequestID(), func(c *fiber.Ctx) error {
		ids = append(ids, c.Locals("request_id").(string))
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 2; i++ {
		_, err := app.Test(httptest.NewRequest("GET", "/x", nil))
		require.NoError(t, err)
	}
	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}
