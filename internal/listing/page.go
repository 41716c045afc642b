// Package listing builds paginated, sorted and filtered views of questions,
// answers and users.
package listing

import (
	"strconv"
	"strings"
)

type Sort string

const (
	SortNewest       Sort = "newest"
	SortOldest       Sort = "oldest"
	SortMostVoted    Sort = "most_voted"
	SortLeastVoted   Sort = "least_voted"
	SortMostAnswered Sort = "most_answered"
	SortReputation   Sort = "reputation"
)

// Params are the raw query parameters of a listing request.
type Params struct {
	Page   int
	Limit  int
	Search string
	Sort   Sort
}

// ParseParams reads page/limit/search/sort from string values. Anything
// unparseable falls back to defaults rather than failing.
func ParseParams(page, limit, search, sort string) Params {
	p, _ := strconv.Atoi(strings.TrimSpace(page))
	l, _ := strconv.Atoi(strings.TrimSpace(limit))
	return Params{
		Page:   p,
		Limit:  l,
		Search: strings.TrimSpace(search),
		Sort:   Sort(strings.ToLower(strings.TrimSpace(sort))),
	}
}

// Limits bounds page sizes.
type Limits struct {
	Default int
	Max     int
}

func (l Limits) normalize(p Params, allowed ...Sort) Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = l.Default
	}
	if l.Max > 0 && p.Limit > l.Max {
		p.Limit = l.Max
	}

	valid := false
	for _, s := range allowed {
		if p.Sort == s {
			valid = true
			break
		}
	}
	if !valid {
		p.Sort = SortNewest
	}
	return p
}

// Page is one page of a listing. TotalPages is at least 1 even when empty.
type Page[T any] struct {
	Items       []T
	CurrentPage int
	PerPage     int
	TotalItems  int
	TotalPages  int
}

func newPage[T any](items []T, p Params, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		CurrentPage: p.Page,
		PerPage:     p.Limit,
		TotalItems:  int(total),
		TotalPages:  TotalPages(int(total), p.Limit),
	}
}

// TotalPages is max(1, ceil(total/perPage)).
func TotalPages(total, perPage int) int {
	if perPage < 1 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

func offset(p Params) int {
	return (p.Page - 1) * p.Limit
}

// likePattern escapes LIKE wildcards and wraps s for a substring match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
