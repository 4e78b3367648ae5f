package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
)

const (
	lockCheckoutLinesSQL = `SELECT ci.product_id, ci.quantity, p.price, p.stock
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id AND c.user_id = $1 AND c.status = 'active'
		JOIN products p ON p.id = ci.product_id
		ORDER BY ci.id
		FOR UPDATE OF p`

	decrementStockSQL = `UPDATE products SET stock = stock - $2
		WHERE id = $1 AND stock >= $2`

	insertOrderSQL = `INSERT INTO orders (user_id, total, status, shipping_address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, ordered_at`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	getOrderSQL = `SELECT o.id, o.user_id, o.ordered_at, o.total, o.status,
			o.shipping_address, o.approved_by, o.approved_at,
			u.full_name, u.email, u.phone, a.full_name
		FROM orders o
		JOIN users u ON u.id = o.user_id
		LEFT JOIN users a ON a.id = o.approved_by
		WHERE o.id = $1`

	getOrderItemsSQL = `SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price,
			p.name, p.image, c.name
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`

	listUserOrdersSQL = `SELECT o.id, o.user_id, o.ordered_at, o.total, o.status,
			o.shipping_address, o.approved_by, o.approved_at
		FROM orders o
		WHERE o.user_id = $1 AND ($2::text IS NULL OR o.status = $2)
		ORDER BY o.ordered_at DESC, o.id DESC`

	listAllOrdersSQL = `SELECT o.id, o.user_id, o.ordered_at, o.total, o.status,
			o.shipping_address, o.approved_by, o.approved_at,
			u.full_name, u.email, u.phone
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE ($1::text IS NULL OR o.status = $1)
		ORDER BY o.ordered_at DESC, o.id DESC`

	setStatusSQL = `UPDATE orders SET status = $2
		WHERE id = $1 AND status = $3`

	setStatusApprovedSQL = `UPDATE orders SET status = $2, approved_by = $3, approved_at = now()
		WHERE id = $1 AND status = $4`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateFromCart converts the user's active cart into a Pending order inside
// one transaction. Product rows are locked before the stock check, and the
// decrement is additionally guarded by stock >= quantity, so concurrent
// checkouts of the same product cannot oversell. Unit prices are read inside
// the transaction and stored on the order lines as frozen snapshots.
func (r *OrderRepository) CreateFromCart(ctx context.Context, userID int64, shippingAddress string) (*order.Order, error) {
	var o *order.Order
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, lockCheckoutLinesSQL, userID)
		if err != nil {
			return fmt.Errorf("locking cart lines for user %d: %w", userID, err)
		}
		lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (checkoutLine, error) {
			var l checkoutLine
			err := row.Scan(&l.productID, &l.quantity, &l.price, &l.stock)
			return l, err
		})
		if err != nil {
			return fmt.Errorf("reading cart lines for user %d: %w", userID, err)
		}
		if len(lines) == 0 {
			return order.ErrEmptyCart
		}

		priced := make([]cart.Item, len(lines))
		for i, l := range lines {
			if l.quantity > l.stock {
				return &cart.InsufficientStockError{
					ProductID: l.productID,
					Requested: l.quantity,
					Available: l.stock,
				}
			}
			tag, err := tx.Exec(ctx, decrementStockSQL, l.productID, l.quantity)
			if err != nil {
				return fmt.Errorf("decrementing stock for product %d: %w", l.productID, err)
			}
			if tag.RowsAffected() == 0 {
				return &cart.InsufficientStockError{
					ProductID: l.productID,
					Requested: l.quantity,
					Available: l.stock,
				}
			}
			priced[i] = cart.Item{
				ProductID: l.productID,
				Quantity:  l.quantity,
				Product:   cart.ProductSnapshot{Price: l.price},
			}
		}

		totals := cart.QuoteTotals(priced)

		o = &order.Order{
			UserID:          userID,
			Total:           totals.Total,
			Status:          order.StatusPending,
			ShippingAddress: shippingAddress,
		}
		err = tx.QueryRow(ctx, insertOrderSQL,
			userID, totals.Total, string(order.StatusPending), shippingAddress,
		).Scan(&o.ID, &o.OrderedAt)
		if err != nil {
			return fmt.Errorf("inserting order: %w", err)
		}

		o.Items = make([]order.Item, len(lines))
		for i, l := range lines {
			item := order.Item{
				OrderID:   o.ID,
				ProductID: l.productID,
				Quantity:  l.quantity,
				UnitPrice: l.price,
			}
			err := tx.QueryRow(ctx, insertOrderItemSQL,
				o.ID, l.productID, l.quantity, l.price,
			).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("inserting order line for product %d: %w", l.productID, err)
			}
			o.Items[i] = item
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// GetByID returns an order with its lines, owner summary, and approver name.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	var (
		o            order.Order
		status       string
		user         order.UserSummary
		approverName *string
	)
	err := r.pool.QueryRow(ctx, getOrderSQL, id).Scan(
		&o.ID, &o.UserID, &o.OrderedAt, &o.Total, &status,
		&o.ShippingAddress, &o.ApprovedBy, &o.ApprovedAt,
		&user.FullName, &user.Email, &user.Phone, &approverName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	o.Status = order.Status(status)
	user.ID = o.UserID
	o.User = &user
	if approverName != nil {
		o.ApproverName = *approverName
	}

	rows, err := r.pool.Query(ctx, getOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d lines: %w", id, err)
	}
	o.Items, err = pgx.CollectRows(rows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("getting order %d lines: %w", id, err)
	}
	return &o, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64, status *order.Status) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listUserOrdersSQL, userID, statusFilter(status))
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %d: %w", userID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Order, error) {
		return scanOrderRow(row, false)
	})
}

// ListAll returns every order with owner summaries, newest first.
func (r *OrderRepository) ListAll(ctx context.Context, status *order.Status) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listAllOrdersSQL, statusFilter(status))
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Order, error) {
		return scanOrderRow(row, true)
	})
}

// SetStatus performs the guarded status transition. The WHERE clause pins the
// expected current status, so a concurrent transition makes this a no-op and
// the caller re-evaluates against fresh state.
func (r *OrderRepository) SetStatus(ctx context.Context, orderID int64, from, to order.Status, approvedBy *int64) (bool, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	if approvedBy != nil {
		tag, err = r.pool.Exec(ctx, setStatusApprovedSQL, orderID, string(to), *approvedBy, string(from))
	} else {
		tag, err = r.pool.Exec(ctx, setStatusSQL, orderID, string(to), string(from))
	}
	if err != nil {
		return false, fmt.Errorf("updating order %d status: %w", orderID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// checkoutLine is one cart line read under lock during checkout.
type checkoutLine struct {
	productID int64
	quantity  int
	price     decimal.Decimal
	stock     int
}

func statusFilter(status *order.Status) *string {
	if status == nil {
		return nil
	}
	s := string(*status)
	return &s
}

func scanOrderRow(row pgx.CollectableRow, withUser bool) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	dest := []any{
		&o.ID, &o.UserID, &o.OrderedAt, &o.Total, &status,
		&o.ShippingAddress, &o.ApprovedBy, &o.ApprovedAt,
	}
	var user order.UserSummary
	if withUser {
		dest = append(dest, &user.FullName, &user.Email, &user.Phone)
	}
	if err := row.Scan(dest...); err != nil {
		return o, err
	}
	o.Status = order.Status(status)
	if withUser {
		user.ID = o.UserID
		o.User = &user
	}
	return o, nil
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var (
		it    order.Item
		image *string
	)
	err := row.Scan(
		&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice,
		&it.ProductName, &image, &it.CategoryName,
	)
	if image != nil {
		it.ProductImage = *image
	}
	return it, err
}
