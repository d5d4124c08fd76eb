package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func ctxWithQuery(t *testing.T, query string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return c
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 1, 20, 0},
		{"explicit", "page=3&limit=10", 3, 10, 20},
		{"zero page clamps to first", "page=0&limit=10", 1, 10, 0},
		{"negative limit falls back to default", "page=2&limit=-5", 2, 20, 20},
		{"limit capped at max", "limit=5000", 1, 100, 0},
		{"garbage falls back to defaults", "page=abc&limit=xyz", 1, 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(ctxWithQuery(t, tt.query))
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantBy  string
		wantDir string
	}{
		{"defaults", "", "created_at", "DESC"},
		{"explicit asc", "sort_by=total_price&sort_dir=asc", "total_price", "ASC"},
		{"mixed case normalized", "sort_dir=Desc", "created_at", "DESC"},
		{"invalid direction falls back", "sort_dir=sideways", "created_at", "DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ParseSort(ctxWithQuery(t, tt.query), "created_at")
			assert.Equal(t, tt.wantBy, s.By)
			assert.Equal(t, tt.wantDir, s.Direction)
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(100, 0))
	assert.Equal(t, 1, TotalPages(1, 20))
	assert.Equal(t, 5, TotalPages(100, 20))
	assert.Equal(t, 6, TotalPages(101, 20))
	assert.Equal(t, 0, TotalPages(0, 20))
}
