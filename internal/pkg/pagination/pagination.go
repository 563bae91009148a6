package pagination

import (
	"strconv"

	"github.com/decode-reader/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultSize = 20
	MaxSize     = 100
)

// Query holds parsed pagination parameters.
type Query struct {
	Page int
	Size int
}

// Offset is the row offset for the current page.
func (q Query) Offset() int { return (q.Page - 1) * q.Size }

// FromContext parses ?page= and ?size=, clamping to sane bounds.
func FromContext(c *gin.Context) Query {
	q := Query{
		Page: atoiOr(c.Query("page"), 1),
		Size: atoiOr(c.Query("size"), DefaultSize),
	}
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.Size < 1:
		q.Size = DefaultSize
	case q.Size > MaxSize:
		q.Size = MaxSize
	}
	return q
}

// Paginate applies limit/offset to a GORM query and returns the page metadata.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (response.Pagination, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}
	if err := db.Offset(q.Offset()).Limit(q.Size).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}

	pages := int((total + int64(q.Size) - 1) / int64(q.Size))
	return response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   pages,
		Size:        q.Size,
		HasNextPage: q.Page < pages,
	}, nil
}

func atoiOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
