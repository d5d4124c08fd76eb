package pagination

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1
)

// Params holds validated pagination parameters
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse extracts and validates page/limit from query parameters
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))

	if page < 1 {
		page = DefaultPage
	}
	if limit < MinLimit {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Sort holds raw sort parameters. Column allow-listing happens in the
// repository layer; only the direction is normalized here.
type Sort struct {
	By        string
	Direction string // "ASC" or "DESC"
}

// ParseSort extracts sort_by/sort_dir from query parameters
func ParseSort(c *gin.Context, defaultBy string) Sort {
	by := c.DefaultQuery("sort_by", defaultBy)
	dir := strings.ToUpper(c.DefaultQuery("sort_dir", "DESC"))
	if dir != "ASC" && dir != "DESC" {
		dir = "DESC"
	}
	return Sort{By: by, Direction: dir}
}

// TotalPages returns the number of pages needed for total items at the given limit
func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return pages
}
