// Package order turns a cart into a durable order and walks it through the
// approval lifecycle.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for checkout and order reads.
var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrEmptyAddress = errors.New("shipping address is required")

	// ErrNotFound doubles as the denial for orders the caller may not touch,
	// so probing order IDs leaks nothing.
	ErrNotFound = errors.New("order not found")
)

// Item is one line of a committed order. UnitPrice is the product price
// frozen at order time; later catalog changes never touch it.
type Item struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal

	// Joined for display on order reads.
	ProductName  string
	ProductImage string
	CategoryName string
}

// Subtotal is the frozen price times quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// UserSummary is the slice of user data shown on order reads.
type UserSummary struct {
	ID       int64
	FullName string
	Email    string
	Phone    string
}

// Order is a committed purchase with snapshot-priced lines.
type Order struct {
	ID              int64
	UserID          int64
	OrderedAt       time.Time
	Total           decimal.Decimal
	Status          Status
	ShippingAddress string
	ApprovedBy      *int64
	ApprovedAt      *time.Time

	Items        []Item
	User         *UserSummary
	ApproverName string
}

// CheckoutResult is the outcome of a successful checkout. CartCleared is
// false when the order committed but the source cart could not be emptied;
// the order stands either way.
type CheckoutResult struct {
	OrderID     int64
	Total       decimal.Decimal
	CartCleared bool
}

// Repository defines order persistence.
type Repository interface {
	// CreateFromCart atomically converts the user's active cart into a
	// Pending order: inside one transaction it locks the cart's product
	// rows, decrements stock conditionally, prices the lines through the
	// cart package's shipping policy, and inserts the order plus one line
	// per cart line with the in-transaction price as a frozen snapshot.
	// The cart itself is NOT cleared here; callers clear it only after
	// this commit succeeds. Fails with ErrEmptyCart or
	// *cart.InsufficientStockError.
	CreateFromCart(ctx context.Context, userID int64, shippingAddress string) (*Order, error)
	// GetByID returns an order with lines, owner summary, and approver
	// name, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*Order, error)
	// ListByUser returns the user's orders, newest first, optionally
	// filtered by status. Lines are not loaded.
	ListByUser(ctx context.Context, userID int64, status *Status) ([]Order, error)
	// ListAll returns every order with owner summaries, newest first,
	// optionally filtered by status.
	ListAll(ctx context.Context, status *Status) ([]Order, error)
	// SetStatus moves an order from the expected current status to next,
	// stamping approver columns when next records approval. It reports
	// false when no row matched (the status changed concurrently).
	SetStatus(ctx context.Context, orderID int64, from, to Status, approvedBy *int64) (bool, error)
}
