// Package catalog provides read-only access to products and categories.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates a product does not exist or is not active.
var ErrNotFound = errors.New("product not found")

// DefaultPageSize is the catalog page size when the caller does not choose one.
const DefaultPageSize = 12

// Category groups products. Products reference exactly one category.
type Category struct {
	ID     int64
	Name   string
	Active bool
}

// Product is a sellable catalog entry. Price is a fixed-point amount in
// currency minor units; Stock never goes below zero.
type Product struct {
	ID           int64
	Name         string
	Description  string
	CategoryID   int64
	CategoryName string
	Price        decimal.Decimal
	Stock        int
	Active       bool
	Image        string
	Color        string
	Size         string
}

// ListParams filters and paginates a product listing. Pages are 1-indexed.
type ListParams struct {
	CategoryID *int64
	Search     string
	Page       int
	PageSize   int
	ActiveOnly bool
}

// Clamp normalizes the page size and snaps Page into [1, lastPage] for the
// given total row count. Out-of-range pages land on the nearest valid page
// rather than returning an empty result.
func (p *ListParams) Clamp(total int) {
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	lastPage := (total + p.PageSize - 1) / p.PageSize
	if lastPage < 1 {
		lastPage = 1
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > lastPage {
		p.Page = lastPage
	}
}

// Offset returns the row offset for the current page. Call Clamp first.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Repository defines catalog lookups. Implementations are purely read-only;
// store-level failures surface as wrapped infrastructure errors.
type Repository interface {
	// List returns one page of products plus the total count across all pages.
	List(ctx context.Context, params ListParams) ([]Product, int, error)
	// GetByID returns a single product or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*Product, error)
	// Categories returns all active categories ordered by name.
	Categories(ctx context.Context) ([]Category, error)
}
