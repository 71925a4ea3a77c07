package pagination_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"backend/pkg/pagination"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func parseQuery(t *testing.T, query string) pagination.Params {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return pagination.Parse(c)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", query: "", wantPage: 1, wantLimit: 20, wantOffset: 0},
		{name: "explicit window", query: "page=3&limit=10", wantPage: 3, wantLimit: 10, wantOffset: 20},
		{name: "limit clamped to max", query: "limit=500", wantPage: 1, wantLimit: 100, wantOffset: 0},
		{name: "garbage falls back", query: "page=x&limit=y", wantPage: 1, wantLimit: 20, wantOffset: 0},
		{name: "negative page falls back", query: "page=-2", wantPage: 1, wantLimit: 20, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parseQuery(t, tt.query)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestPages(t *testing.T) {
	assert.Equal(t, 5, pagination.Pages(20, 100))
	assert.Equal(t, 6, pagination.Pages(20, 101))
	assert.Equal(t, 1, pagination.Pages(20, 1))
	assert.Equal(t, 0, pagination.Pages(20, 0))
	assert.Equal(t, 0, pagination.Pages(0, 50))
}
