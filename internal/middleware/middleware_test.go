package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/utils"
)

const testSecret = "test-secret"

func newAuthApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", AuthMiddleware(testSecret), func(c *fiber.Ctx) error {
		id, ok := GetCurrentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		return c.SendString(id.String() + "|" + GetCurrentRole(c))
	})
	app.Get("/admin", AuthMiddleware(testSecret), AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func bearer(t *testing.T, id uuid.UUID, role string) string {
	t.Helper()
	tok, err := utils.GenerateToken(testSecret, id, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestAuthMiddleware(t *testing.T) {
	app := newAuthApp()
	id := uuid.New()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"Missing", "", http.StatusUnauthorized},
		{"WrongScheme", "Basic abc", http.StatusUnauthorized},
		{"Garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"Valid", bearer(t, id, models.RoleCustomer), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAdminOnly(t *testing.T) {
	app := newAuthApp()

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", bearer(t, uuid.New(), models.RoleCustomer))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", bearer(t, uuid.New(), models.RoleAdmin))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

type stubVerifier struct{ valid string }

func (s stubVerifier) VerifyWebhook(_ []byte, signature string) bool { return signature == s.valid }

func TestRazorpayWebhookMiddleware(t *testing.T) {
	app := fiber.New()
	app.Post("/hook", RazorpayWebhookMiddleware(stubVerifier{valid: "good"}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	for sig, want := range map[string]int{"good": http.StatusNoContent, "bad": http.StatusUnauthorized, "": http.StatusUnauthorized} {
		req := httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(`{}`))
		req.Header.Set(RazorpaySignatureHeader, sig)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, "signature %q", sig)
	}
}
