package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// Service exposes the cart operations consumed by the transport layer.
type Service struct {
	carts Repository
}

// NewService creates a cart Service over the given repository.
func NewService(carts Repository) *Service {
	return &Service{carts: carts}
}

// Get returns the user's cart with priced lines and totals. A user without a
// cart gets an empty view, never an error.
func (s *Service) Get(ctx context.Context, userID int64) (*View, error) {
	items, err := s.carts.Items(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	totals := QuoteTotals(items)
	return &View{
		UserID:      userID,
		Items:       items,
		Subtotal:    totals.Subtotal,
		ShippingFee: totals.ShippingFee,
		Total:       totals.Total,
		ItemCount:   CountItems(items),
	}, nil
}

// AddItem puts quantity of a product into the user's cart, incrementing the
// existing line when one exists.
func (s *Service) AddItem(ctx context.Context, userID, productID int64, quantity int) (*Summary, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	if err := s.carts.Upsert(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}

	items, err := s.carts.Items(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "reload cart")
	}
	return &Summary{ItemCount: CountItems(items)}, nil
}

// UpdateQuantity sets an owned line to the given quantity. Zero or negative
// quantities remove the line instead.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID int64, quantity int) (*ItemChange, error) {
	if quantity <= 0 {
		summary, err := s.RemoveItem(ctx, userID, itemID)
		if err != nil {
			return nil, err
		}
		items, err := s.carts.Items(ctx, userID)
		if err != nil {
			return nil, errors.Wrap(err, "reload cart")
		}
		return &ItemChange{
			Removed:   true,
			Totals:    QuoteTotals(items),
			ItemCount: summary.ItemCount,
		}, nil
	}

	if err := s.carts.SetQuantity(ctx, userID, itemID, quantity); err != nil {
		return nil, err
	}

	items, err := s.carts.Items(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "reload cart")
	}

	change := &ItemChange{
		Totals:    QuoteTotals(items),
		ItemCount: CountItems(items),
	}
	for _, it := range items {
		if it.ID == itemID {
			change.ItemSubtotal = it.Subtotal()
			break
		}
	}
	return change, nil
}

// RemoveItem deletes one owned line and reports the new cart size.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID int64) (*Summary, error) {
	if err := s.carts.Delete(ctx, userID, itemID); err != nil {
		return nil, err
	}

	items, err := s.carts.Items(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "reload cart")
	}
	return &Summary{ItemCount: CountItems(items)}, nil
}

// Clear removes every line of the user's active cart.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	return s.carts.Clear(ctx, userID)
}

// Total returns the cart's grand total (subtotal plus shipping).
func (s *Service) Total(ctx context.Context, userID int64) (Totals, error) {
	items, err := s.carts.Items(ctx, userID)
	if err != nil {
		return Totals{}, errors.Wrap(err, "load cart")
	}
	return QuoteTotals(items), nil
}

// ItemCount returns the sum of line quantities in the user's cart.
func (s *Service) ItemCount(ctx context.Context, userID int64) (int, error) {
	items, err := s.carts.Items(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "load cart")
	}
	return CountItems(items), nil
}
