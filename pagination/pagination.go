// Package pagination provides a window over a database query plus the
// display figures derived from it.
package pagination

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrPageOutOfRange is returned for page numbers below one or beyond the
// last page.
var ErrPageOutOfRange = errors.New("page out of range")

// Page is one page of rows of type T together with the row counts needed
// to render pagination controls.
type Page[T any] struct {
	Rows        []T
	CurrentPage int
	RowsPerPage int
	TotalRows   int64
}

// Paginate runs the given query windowed to the requested page.
// Requesting a page beyond the last one fails with ErrPageOutOfRange,
// except that page 1 of an empty result is always valid.
func Paginate[T any](query *gorm.DB, page, rowsPerPage int) (*Page[T], error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}
	if rowsPerPage < 1 {
		return nil, fmt.Errorf("rows per page must be positive, got %d", rowsPerPage)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Model(new(T)).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting rows: %w", err)
	}

	result := &Page[T]{
		CurrentPage: page,
		RowsPerPage: rowsPerPage,
		TotalRows:   total,
	}
	if page > 1 && page > result.TotalPages() {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, result.TotalPages())
	}

	offset := (page - 1) * rowsPerPage
	if err := query.Offset(offset).Limit(rowsPerPage).Find(&result.Rows).Error; err != nil {
		return nil, fmt.Errorf("loading page: %w", err)
	}
	return result, nil
}

// TotalPages is the number of pages needed to display all rows.
func (p *Page[T]) TotalPages() int {
	if p.TotalRows == 0 {
		return 0
	}
	return int((p.TotalRows + int64(p.RowsPerPage) - 1) / int64(p.RowsPerPage))
}

// RowsOnPage is the number of rows on the current page.
func (p *Page[T]) RowsOnPage() int {
	return len(p.Rows)
}

// FirstRow is the 1-based index of the first row on the current page.
func (p *Page[T]) FirstRow() int {
	return (p.CurrentPage-1)*p.RowsPerPage + 1
}

// LastRow is the 1-based index of the last row on the current page.
func (p *Page[T]) LastRow() int {
	return p.FirstRow() + p.RowsOnPage() - 1
}

// InfoText explains how many results are displayed on the current page.
// If searchTerm is not empty it is included in the text.
func (p *Page[T]) InfoText(searchTerm string) string {
	if searchTerm != "" {
		switch {
		case p.RowsOnPage() >= 2:
			return fmt.Sprintf("Displaying results %d to %d of %d matching “%s”",
				p.FirstRow(), p.LastRow(), p.TotalRows, searchTerm)
		case p.RowsOnPage() == 1:
			return fmt.Sprintf("Displaying result %d of %d matching “%s”",
				p.FirstRow(), p.TotalRows, searchTerm)
		default:
			return fmt.Sprintf("No results found matching “%s”", searchTerm)
		}
	}

	switch {
	case p.RowsOnPage() >= 2:
		return fmt.Sprintf("Displaying results %d to %d of %d", p.FirstRow(), p.LastRow(), p.TotalRows)
	case p.RowsOnPage() == 1:
		return fmt.Sprintf("Displaying result %d of %d", p.FirstRow(), p.TotalRows)
	default:
		return "No results"
	}
}
