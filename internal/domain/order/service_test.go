package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/identity"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// --- Mock implementations ---

type mockOrderRepo struct {
	created   *Order
	createErr error

	byID   map[int64]*Order
	getErr error

	setStatusOK  bool
	setStatusErr error
	onLostRace   func()
	lastSet      struct {
		orderID    int64
		from, to   Status
		approvedBy *int64
	}
}

func (m *mockOrderRepo) CreateFromCart(_ context.Context, userID int64, shippingAddress string) (*Order, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = &Order{
		ID:              42,
		UserID:          userID,
		Total:           d("230000"),
		Status:          StatusPending,
		ShippingAddress: shippingAddress,
	}
	return m.created, nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id int64) (*Order, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, _ int64, _ *Status) ([]Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) ListAll(_ context.Context, _ *Status) ([]Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) SetStatus(_ context.Context, orderID int64, from, to Status, approvedBy *int64) (bool, error) {
	if m.setStatusErr != nil {
		return false, m.setStatusErr
	}
	m.lastSet.orderID = orderID
	m.lastSet.from = from
	m.lastSet.to = to
	m.lastSet.approvedBy = approvedBy
	if m.setStatusOK {
		if o, ok := m.byID[orderID]; ok {
			o.Status = to
		}
	} else if m.onLostRace != nil {
		m.onLostRace()
	}
	return m.setStatusOK, nil
}

type mockCartRepo struct {
	clearErr   error
	clearCalls int
}

func (m *mockCartRepo) Items(_ context.Context, _ int64) ([]cart.Item, error) { return nil, nil }

func (m *mockCartRepo) Upsert(_ context.Context, _, _ int64, _ int) error { return nil }

func (m *mockCartRepo) SetQuantity(_ context.Context, _, _ int64, _ int) error { return nil }

func (m *mockCartRepo) Delete(_ context.Context, _, _ int64) error { return nil }

func (m *mockCartRepo) Clear(_ context.Context, _ int64) error {
	m.clearCalls++
	return m.clearErr
}

func customer(id int64) identity.Identity {
	return identity.Identity{UserID: id, Role: identity.RoleCustomer}
}

func staff(id int64) identity.Identity {
	return identity.Identity{UserID: id, Role: identity.RoleStaff}
}

// --- Checkout ---

func TestCheckout(t *testing.T) {
	t.Run("success clears the cart", func(t *testing.T) {
		orders := &mockOrderRepo{}
		carts := &mockCartRepo{}
		svc := NewService(orders, carts)

		result, err := svc.Checkout(context.Background(), 7, "456 Elm St")
		require.NoError(t, err)

		assert.Equal(t, int64(42), result.OrderID)
		assert.True(t, d("230000").Equal(result.Total))
		assert.True(t, result.CartCleared)
		assert.Equal(t, 1, carts.clearCalls)
		assert.Equal(t, StatusPending, orders.created.Status)
		assert.Equal(t, "456 Elm St", orders.created.ShippingAddress)
	})

	t.Run("blank address creates nothing", func(t *testing.T) {
		orders := &mockOrderRepo{}
		carts := &mockCartRepo{}
		svc := NewService(orders, carts)

		for _, addr := range []string{"", "   ", "\t\n"} {
			_, err := svc.Checkout(context.Background(), 7, addr)
			assert.ErrorIs(t, err, ErrEmptyAddress)
		}
		assert.Nil(t, orders.created)
		assert.Zero(t, carts.clearCalls)
	})

	t.Run("address is trimmed before storing", func(t *testing.T) {
		orders := &mockOrderRepo{}
		svc := NewService(orders, &mockCartRepo{})

		_, err := svc.Checkout(context.Background(), 7, "  123 Main St  ")
		require.NoError(t, err)
		assert.Equal(t, "123 Main St", orders.created.ShippingAddress)
	})

	t.Run("empty cart creates no order", func(t *testing.T) {
		orders := &mockOrderRepo{createErr: ErrEmptyCart}
		carts := &mockCartRepo{}
		svc := NewService(orders, carts)

		_, err := svc.Checkout(context.Background(), 7, "123 Main St")
		assert.ErrorIs(t, err, ErrEmptyCart)
		assert.Zero(t, carts.clearCalls)
	})

	t.Run("failed cart clear keeps the order", func(t *testing.T) {
		orders := &mockOrderRepo{}
		carts := &mockCartRepo{clearErr: errors.New("connection reset")}
		svc := NewService(orders, carts)

		result, err := svc.Checkout(context.Background(), 7, "123 Main St")
		require.NoError(t, err)

		assert.Equal(t, int64(42), result.OrderID)
		assert.False(t, result.CartCleared)
	})
}

// --- UpdateStatus ---

func TestUpdateStatus(t *testing.T) {
	pending := func() map[int64]*Order {
		return map[int64]*Order{
			1: {ID: 1, UserID: 7, Status: StatusPending},
		}
	}

	t.Run("staff approves and is recorded", func(t *testing.T) {
		orders := &mockOrderRepo{byID: pending(), setStatusOK: true}
		svc := NewService(orders, &mockCartRepo{})

		err := svc.UpdateStatus(context.Background(), 1, StatusApproved, staff(99))
		require.NoError(t, err)

		assert.Equal(t, StatusPending, orders.lastSet.from)
		assert.Equal(t, StatusApproved, orders.lastSet.to)
		require.NotNil(t, orders.lastSet.approvedBy)
		assert.Equal(t, int64(99), *orders.lastSet.approvedBy)
	})

	t.Run("shipping does not stamp an approver", func(t *testing.T) {
		orders := &mockOrderRepo{
			byID:        map[int64]*Order{1: {ID: 1, UserID: 7, Status: StatusApproved}},
			setStatusOK: true,
		}
		svc := NewService(orders, &mockCartRepo{})

		err := svc.UpdateStatus(context.Background(), 1, StatusShipping, staff(99))
		require.NoError(t, err)
		assert.Nil(t, orders.lastSet.approvedBy)
	})

	t.Run("owner cancels a pending order", func(t *testing.T) {
		orders := &mockOrderRepo{byID: pending(), setStatusOK: true}
		svc := NewService(orders, &mockCartRepo{})

		err := svc.UpdateStatus(context.Background(), 1, StatusCancelled, customer(7))
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, orders.lastSet.to)
		assert.Nil(t, orders.lastSet.approvedBy)
	})

	t.Run("non-owner cancel reads as not found", func(t *testing.T) {
		orders := &mockOrderRepo{byID: pending(), setStatusOK: true}
		svc := NewService(orders, &mockCartRepo{})

		err := svc.UpdateStatus(context.Background(), 1, StatusCancelled, customer(8))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("customer cannot approve", func(t *testing.T) {
		orders := &mockOrderRepo{byID: pending(), setStatusOK: true}
		svc := NewService(orders, &mockCartRepo{})

		err := svc.UpdateStatus(context.Background(), 1, StatusApproved, customer(7))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("illegal transition is rejected", func(t *testing.T) {
		orders := &mockOrderRepo{
			byID:        map[int64]*Order{1: {ID: 1, UserID: 7, Status: StatusCompleted}},
			setStatusOK: true,
		}
		svc := NewService(orders, &mockCartRepo{})

		err := svc.UpdateStatus(context.Background(), 1, StatusPending, staff(99))

		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, StatusCompleted, invalid.From)
		assert.Equal(t, StatusPending, invalid.To)
	})

	t.Run("cancel after approval is rejected", func(t *testing.T) {
		orders := &mockOrderRepo{
			byID:        map[int64]*Order{1: {ID: 1, UserID: 7, Status: StatusApproved}},
			setStatusOK: true,
		}
		svc := NewService(orders, &mockCartRepo{})

		err := svc.UpdateStatus(context.Background(), 1, StatusCancelled, customer(7))

		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, StatusApproved, invalid.From)
	})

	t.Run("lost race reports the fresh status", func(t *testing.T) {
		// SetStatus reports no row matched: another actor rejected the order
		// between our read and update. The mock flips the status on that
		// losing call so the reload sees Rejected.
		orders := &mockOrderRepo{byID: pending(), setStatusOK: false}
		orders.onLostRace = func() { orders.byID[1].Status = StatusRejected }
		svc := NewService(orders, &mockCartRepo{})

		err := svc.UpdateStatus(context.Background(), 1, StatusApproved, staff(99))

		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, StatusRejected, invalid.From)
	})

	t.Run("unknown order is not found", func(t *testing.T) {
		orders := &mockOrderRepo{byID: map[int64]*Order{}}
		svc := NewService(orders, &mockCartRepo{})

		err := svc.UpdateStatus(context.Background(), 999, StatusApproved, staff(99))
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
