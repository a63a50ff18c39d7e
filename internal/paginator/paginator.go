// Package paginator implements page-number pagination over counted result sets.
package paginator

import (
	"context"
	"strconv"
	"strings"
)

// Page is one page of a listing. Numbers are 1-based.
type Page[T any] struct {
	Items    []T
	Number   int
	PerPage  int
	Total    int64
	NumPages int
}

// ParseNumber turns the raw "page" query value into a page number.
// Missing, non-numeric and non-positive values all mean the first page.
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// NumPages is the page count for total items; an empty listing still has one page.
func NumPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Clamp bounds a requested page number to [1, NumPages].
func Clamp(number int, total int64, perPage int) int {
	last := NumPages(total, perPage)
	switch {
	case number < 1:
		return 1
	case number > last:
		return last
	}
	return number
}

// Paginate resolves the raw page value against total and loads that page through fetch.
func Paginate[T any](ctx context.Context, total int64, perPage int, raw string,
	fetch func(ctx context.Context, limit, offset int) ([]T, error)) (*Page[T], error) {
	if perPage <= 0 {
		perPage = 10
	}
	number := Clamp(ParseNumber(raw), total, perPage)

	page := &Page[T]{
		Number:   number,
		PerPage:  perPage,
		Total:    total,
		NumPages: NumPages(total, perPage),
	}
	if total == 0 {
		return page, nil
	}

	items, err := fetch(ctx, perPage, (number-1)*perPage)
	if err != nil {
		return nil, err
	}
	page.Items = items
	return page, nil
}

func (p *Page[T]) HasNext() bool {
	return p.Number < p.NumPages
}

func (p *Page[T]) HasPrevious() bool {
	return p.Number > 1
}

func (p *Page[T]) HasOtherPages() bool {
	return p.NumPages > 1
}

func (p *Page[T]) NextNumber() int {
	return p.Number + 1
}

func (p *Page[T]) PreviousNumber() int {
	return p.Number - 1
}

// PageRange lists every page number for the paginator links.
func (p *Page[T]) PageRange() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
