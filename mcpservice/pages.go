package mcpservice

import "strconv"

// Page is a single page of results from a list operation. A non-nil
// NextCursor indicates more results are available.
type Page[T any] struct {
	Items      []T
	NextCursor *string
}

// PageOption configures an optional field on a Page.
type PageOption[T any] func(*Page[T])

// WithNextCursor sets the continuation cursor on a page.
func WithNextCursor[T any](cursor string) PageOption[T] {
	return func(p *Page[T]) { p.NextCursor = &cursor }
}

// NewPage builds a Page from items and options.
func NewPage[T any](items []T, opts ...PageOption[T]) Page[T] {
	p := Page[T]{Items: items}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// parseCursor interprets a list cursor as a zero-based offset. A nil or
// malformed cursor maps to the first page.
func parseCursor(cursor *string) int {
	if cursor == nil || *cursor == "" {
		return 0
	}
	n, err := strconv.Atoi(*cursor)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
