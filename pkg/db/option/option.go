package option

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/flagforgelabs/flagforge/pkg/db/pagination"
	"gorm.io/gorm"
)

// Option mutates a gorm statement. Repositories compose them onto list
// queries so sorting and paging stay out of the SQL strings.
type Option interface {
	Apply(stmt *gorm.DB) *gorm.DB
}

type optionFunc func(stmt *gorm.DB) *gorm.DB

func (f optionFunc) Apply(stmt *gorm.DB) *gorm.DB { return f(stmt) }

// WithQuerySortBy validates a user-supplied sort column against an
// allowlist and normalizes the direction. Unknown columns fall back to
// created_at desc.
func WithQuerySortBy(sortBy, orderBy string, allowed map[string]bool) string {
	column := strings.TrimSpace(sortBy)
	if column == "" || !allowed[column] {
		column = "created_at"
	}
	dir := strings.ToLower(strings.TrimSpace(orderBy))
	if dir != "asc" && dir != "desc" {
		dir = "desc"
	}
	return column + " " + dir
}

func WithSortBy(order string) Option {
	return optionFunc(func(stmt *gorm.DB) *gorm.DB {
		if order == "" {
			return stmt
		}
		return stmt.Order(order)
	})
}

// ApplyPagination applies the cursor and the over-fetch limit. Cursors
// key on the snowflake id, which is time-ordered, so the caller orders
// by id desc to match.
func ApplyPagination(page pagination.Pagination) Option {
	return optionFunc(func(stmt *gorm.DB) *gorm.DB {
		if page.PageToken != "" {
			cursor, err := pagination.DecodeCursor(page.PageToken)
			if err != nil {
				_ = stmt.AddError(fmt.Errorf("decode page token: %w", err))
				return stmt
			}
			id, err := strconv.ParseInt(cursor.ID, 10, 64)
			if err != nil {
				_ = stmt.AddError(fmt.Errorf("decode page token: %w", err))
				return stmt
			}
			stmt = stmt.Where("id < ?", id)
		}
		if page.PageSize > 0 {
			stmt = stmt.Limit(page.PageSize + 1)
		}
		return stmt
	})
}
