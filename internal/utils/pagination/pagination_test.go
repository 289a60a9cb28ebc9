package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFromRequest(t *testing.T) {
	tests := []struct {
		query  string
		page   int
		limit  int
		offset int
	}{
		{query: "", page: 1, limit: DefaultLimit, offset: 0},
		{query: "?page=3&limit=10", page: 3, limit: 10, offset: 20},
		{query: "?page=-2&limit=abc", page: 1, limit: DefaultLimit, offset: 0},
		{query: "?limit=1000", page: 1, limit: MaxLimit, offset: 0},
	}

	for _, tt := range tests {
		app := fiber.New()
		var got Pagination
		app.Get("/", func(c *fiber.Ctx) error {
			got = ParseFromRequest(c)
			return nil
		})
		_, err := app.Test(httptest.NewRequest("GET", "/"+tt.query, nil))
		require.NoError(t, err)
		assert.Equal(t, tt.page, got.Page, tt.query)
		assert.Equal(t, tt.limit, got.Limit, tt.query)
		assert.Equal(t, tt.offset, got.Offset, tt.query)
	}
}

func TestResponseTotalPages(t *testing.T) {
	meta := Response(Pagination{Page: 1, Limit: 10, Total: 21}, nil)["meta"].(fiber.Map)
	assert.Equal(t, int64(3), meta["total_pages"])
}
