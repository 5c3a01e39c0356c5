// Package paging parses page/limit query parameters and shapes paged JSON
// responses. Lists fetch limit+1 rows and trim the extra one to learn whether
// a next page exists without a second count query.
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a 1-based page and a page size.
type Params struct {
	Page  int
	Limit int
}

// Parse reads ?page= and ?limit=, clamping to sane values.
func Parse(r *http.Request) Params {
	return Params{
		Page:  atoiMin(query.Get(r, "page"), 1, 1),
		Limit: min(atoiMin(query.Get(r, "limit"), DefaultLimit, 1), MaxLimit),
	}
}

func atoiMin(s string, def, lo int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo {
		return def
	}
	return n
}

// Skip is the number of documents before this page.
func (p Params) Skip() int64 { return int64((p.Page - 1) * p.Limit) }

// LimitPlusOne is the look-ahead fetch size.
func (p Params) LimitPlusOne() int64 { return int64(p.Limit + 1) }

// FindOptions returns skip/limit+1 options sorted by sort (ties broken by _id).
func (p Params) FindOptions(sort bson.D) *options.FindOptions {
	if len(sort) > 0 {
		last := sort[len(sort)-1]
		sort = append(sort, bson.E{Key: "_id", Value: last.Value})
	}
	return options.Find().SetSort(sort).SetSkip(p.Skip()).SetLimit(p.LimitPlusOne())
}

// Page is the JSON envelope for paged lists.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// Trim drops the look-ahead row and builds the envelope. A nil slice becomes
// an empty JSON array.
func Trim[T any](rows []T, p Params) Page[T] {
	hasNext := len(rows) > p.Limit
	if hasNext {
		rows = rows[:p.Limit]
	}
	if rows == nil {
		rows = []T{}
	}
	return Page[T]{
		Items:   rows,
		Page:    p.Page,
		Limit:   p.Limit,
		HasNext: hasNext,
		HasPrev: p.Page > 1,
	}
}
