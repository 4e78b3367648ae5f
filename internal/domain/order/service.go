package order

import (
	"context"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/identity"
)

// Service encapsulates checkout and order lifecycle logic.
type Service struct {
	orders Repository
	carts  cart.Repository
}

// NewService creates an order Service with the required dependencies.
func NewService(orders Repository, carts cart.Repository) *Service {
	return &Service{
		orders: orders,
		carts:  carts,
	}
}

// Checkout converts the user's active cart into a Pending order. The order
// and its lines commit first; only then is the cart cleared. A failed clear
// is reported through CheckoutResult.CartCleared rather than rolling back
// the committed order — a stale cart beats a lost order.
func (s *Service) Checkout(ctx context.Context, userID int64, shippingAddress string) (*CheckoutResult, error) {
	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		return nil, ErrEmptyAddress
	}

	o, err := s.orders.CreateFromCart(ctx, userID, shippingAddress)
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{
		OrderID:     o.ID,
		Total:       o.Total,
		CartCleared: true,
	}
	if err := s.carts.Clear(ctx, userID); err != nil {
		// The order is durable at this point; surface the stale cart
		// instead of failing the checkout.
		zctx.From(ctx).Warn("order placed but cart not cleared",
			zap.Int64("order_id", o.ID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		result.CartCleared = false
	}
	return result, nil
}

// Get returns one order with lines and user summaries.
func (s *Service) Get(ctx context.Context, orderID int64) (*Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

// ListForUser returns the user's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID int64, status *Status) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID, status)
}

// ListAll returns every order for the back office, newest first.
func (s *Service) ListAll(ctx context.Context, status *Status) ([]Order, error) {
	return s.orders.ListAll(ctx, status)
}

// UpdateStatus moves an order along the status machine on behalf of actor.
// Cancellation is owner-only and only from Pending; every other transition
// requires a staff or admin actor. Approve and Reject record the actor as
// approver. Denials surface as ErrNotFound so order existence never leaks.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, next Status, actor identity.Identity) error {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if next == StatusCancelled {
		if actor.UserID != o.UserID {
			return ErrNotFound
		}
	} else if !actor.Role.IsStaff() {
		return ErrNotFound
	}

	if !o.Status.CanTransitionTo(next) {
		return &InvalidTransitionError{From: o.Status, To: next}
	}

	var approvedBy *int64
	if next.RecordsApproval() {
		approvedBy = &actor.UserID
	}

	ok, err := s.orders.SetStatus(ctx, orderID, o.Status, next, approvedBy)
	if err != nil {
		return err
	}
	if !ok {
		// Lost a race with another transition; report against the fresh state.
		if cur, err := s.orders.GetByID(ctx, orderID); err == nil {
			return &InvalidTransitionError{From: cur.Status, To: next}
		}
		return &InvalidTransitionError{From: o.Status, To: next}
	}
	return nil
}
