package utils

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_RoundTrip(t *testing.T) {
	id := uuid.New()
	token, err := GenerateToken("secret", id, "admin", time.Hour)
	require.NoError(t, err)

	got, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: id, Role: "admin"}, got)
}

func TestToken_Rejects(t *testing.T) {
	token, err := GenerateToken("secret", uuid.New(), "customer", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	assert.Error(t, err)

	expired, err := GenerateToken("secret", uuid.New(), "customer", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.Error(t, err)

	_, err = ParseToken("secret", "not-a-token")
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		p := ParsePagination(c)
		return c.JSON(fiber.Map{"page": p.Page, "limit": p.Limit, "offset": p.Offset})
	})

	tests := []struct {
		query               string
		page, limit, offset int
	}{
		{"", 1, 20, 0},
		{"?page=3&limit=10", 3, 10, 20},
		{"?page=-1&limit=0", 1, 20, 0},
		{"?limit=1000", 1, 100, 0},
		{"?page=abc", 1, 20, 0},
	}

	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest("GET", "/"+tt.query, nil))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)

		var got struct{ Page, Limit, Offset int }
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, tt.page, got.Page, tt.query)
		assert.Equal(t, tt.limit, got.Limit, tt.query)
		assert.Equal(t, tt.offset, got.Offset, tt.query)
	}
}

func TestPaginationMeta(t *testing.T) {
	meta := Pagination{Page: 2, Limit: 10, Offset: 10}.Meta(25)
	assert.Equal(t, int64(3), meta["total_pages"])
	assert.Equal(t, int64(25), meta["total_items"])
}
