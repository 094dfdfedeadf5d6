package domain

// PaginationParams holds offset-based pagination parameters for list queries.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset returns the row offset for the current page (0-based).
// Formula: (Page - 1) * PageSize.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Bounds returns the half-open [start, end) slice range of the current page within
// total items. Pages past the end yield an empty range.
func (p PaginationParams) Bounds(total int) (start, end int) {
	start = min(p.Offset(), total)
	if p.PageSize <= 0 {
		return start, total
	}
	end = min(start+p.PageSize, total)
	return start, end
}
