package types

import "fmt"

const (
	// DefaultPageSize is used when callers pass a zero page size.
	DefaultPageSize = 10
	// MaxPageSize bounds a single history page.
	MaxPageSize = 100
)

// Page describes a slice of a history listing. Pages are zero-indexed.
type Page struct {
	Number int
	Size   int
}

// Validate checks the page bounds.
func (p Page) Validate() error {
	if p.Number < 0 {
		return NewValidationError("page", "page number must be non-negative")
	}

	if p.Size <= 0 {
		return NewValidationError("pageSize", "page size must be positive")
	}

	if p.Size > MaxPageSize {
		return NewValidationError("pageSize",
			fmt.Sprintf("page size cannot exceed %d", MaxPageSize))
	}

	return nil
}

// Offset converts the page to a query offset.
func (p Page) Offset() int {
	return p.Number * p.Size
}
