// Package cart maintains a user's single active cart: line upserts, quantity
// changes, removals, and the derived totals shown at cart and checkout views.
package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for cart validation.
var (
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")

	// ErrItemNotFound covers both a missing line and a line owned by another
	// user. The two cases are deliberately indistinguishable so that probing
	// line IDs leaks nothing.
	ErrItemNotFound = errors.New("cart item not found")
)

// InsufficientStockError indicates the requested quantity exceeds the
// product's available stock.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("product %d has only %d in stock (requested %d)", e.ProductID, e.Available, e.Requested)
}

// ProductSnapshot is the product state joined onto a cart line at read time.
// Unlike order lines, this is a live view: price and stock track the catalog.
type ProductSnapshot struct {
	Name         string
	Price        decimal.Decimal
	Image        string
	Stock        int
	CategoryName string
}

// Item is one (product, quantity) line of a cart.
type Item struct {
	ID        int64
	CartID    int64
	ProductID int64
	Quantity  int
	Product   ProductSnapshot
}

// Subtotal is the line's live price times quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// View is a user's cart with priced lines and derived totals.
type View struct {
	UserID      int64
	Items       []Item
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
	ItemCount   int
}

// Summary reports the cart size after a mutation.
type Summary struct {
	ItemCount int
}

// ItemChange reports the state after a quantity update: the affected line's
// subtotal plus the recomputed cart totals. Removed is set when the update
// deleted the line (zero or negative quantity).
type ItemChange struct {
	Removed      bool
	ItemSubtotal decimal.Decimal
	Totals
	ItemCount int
}

// Repository defines persistence for active carts. All mutations are
// transactional in the implementation: the upsert locks the product row so
// concurrent adds of the same product neither duplicate lines nor oversell.
type Repository interface {
	// Items returns the active cart's lines with product snapshots, oldest
	// line first. A user without a cart gets an empty slice, not an error.
	Items(ctx context.Context, userID int64) ([]Item, error)
	// Upsert adds quantity of a product, creating the cart and line as
	// needed; an existing (cart, product) line is incremented. Fails with
	// catalog.ErrNotFound for unknown/inactive products and with
	// *InsufficientStockError when the combined quantity exceeds stock.
	Upsert(ctx context.Context, userID, productID int64, quantity int) error
	// SetQuantity replaces a line's quantity, verifying the line belongs to
	// the user's active cart. Fails with ErrItemNotFound on a miss and with
	// *InsufficientStockError when quantity exceeds stock.
	SetQuantity(ctx context.Context, userID, itemID int64, quantity int) error
	// Delete removes one owned line, ErrItemNotFound on a miss.
	Delete(ctx context.Context, userID, itemID int64) error
	// Clear removes every line of the user's active cart, keeping the cart row.
	Clear(ctx context.Context, userID int64) error
}
