// Package option provides composable query modifiers for gorm statements.
package option

import (
	"fmt"

	"github.com/subforge/renewals/pkg/db/pagination"
	"gorm.io/gorm"
)

type Operator string

const (
	EQ   Operator = "="
	GT   Operator = ">"
	GTE  Operator = ">="
	LT   Operator = "<"
	LTE  Operator = "<="
	LIKE Operator = "LIKE"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// ApplyOperator adds a single field comparison to the query.
func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(fmt.Sprintf("%s %s ?", cond.Field, cond.Operator), cond.Value)
	})
}

// ApplyPagination decodes the cursor token and applies limit+keyset filtering.
// It fetches one extra row so callers can detect whether more pages exist.
func ApplyPagination(p pagination.Pagination) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if p.PageToken != "" {
			if cursor, err := pagination.DecodeCursor(p.PageToken); err == nil && cursor.CreatedAt != "" {
				db = db.Where("created_at < ?", cursor.CreatedAt)
			}
		}
		size := p.PageSize
		if size <= 0 {
			size = 10
		}
		return db.Limit(size + 1)
	})
}

// WithSortBy orders results by the given column/direction when the column is allowed.
func WithSortBy(column, direction string, allowed map[string]bool) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if !allowed[column] {
			return db
		}
		if direction != "asc" && direction != "desc" {
			direction = "desc"
		}
		return db.Order(fmt.Sprintf("%s %s", column, direction))
	})
}
