package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
)

const (
	cartItemsSQL = `SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity,
			p.name, p.price, p.image, p.stock, c2.name
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id AND c.user_id = $1 AND c.status = 'active'
		JOIN products p ON p.id = ci.product_id
		JOIN categories c2 ON c2.id = p.category_id
		ORDER BY ci.id`

	ensureCartSQL = `INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) WHERE status = 'active' DO NOTHING`

	activeCartIDSQL = `SELECT id FROM carts WHERE user_id = $1 AND status = 'active'`

	lockProductSQL = `SELECT stock, is_active FROM products WHERE id = $1 FOR UPDATE`

	currentLineQtySQL = `SELECT quantity FROM cart_items
		WHERE cart_id = $1 AND product_id = $2`

	upsertLineSQL = `INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`

	lockOwnedLineSQL = `SELECT ci.product_id, p.stock
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id AND c.user_id = $1 AND c.status = 'active'
		JOIN products p ON p.id = ci.product_id
		WHERE ci.id = $2
		FOR UPDATE OF ci, p`

	setLineQtySQL = `UPDATE cart_items SET quantity = $2 WHERE id = $1`

	deleteOwnedLineSQL = `DELETE FROM cart_items ci
		USING carts c
		WHERE ci.id = $2 AND ci.cart_id = c.id
		  AND c.user_id = $1 AND c.status = 'active'`

	clearCartSQL = `DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1 AND c.status = 'active'`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Mutations
// run in transactions that lock the product row first, so concurrent adds of
// the same product serialize on the stock check instead of racing past it.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Items returns the active cart's lines with live product snapshots.
func (r *CartRepository) Items(ctx context.Context, userID int64) ([]cart.Item, error) {
	rows, err := r.pool.Query(ctx, cartItemsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart items for user %d: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanCartItem)
}

// Upsert adds quantity of a product to the user's active cart, creating the
// cart lazily. The unique (cart_id, product_id) constraint plus the locked
// product row make the increment atomic under concurrency.
func (r *CartRepository) Upsert(ctx context.Context, userID, productID int64, quantity int) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, ensureCartSQL, userID); err != nil {
			return fmt.Errorf("ensuring cart for user %d: %w", userID, err)
		}

		var cartID int64
		if err := tx.QueryRow(ctx, activeCartIDSQL, userID).Scan(&cartID); err != nil {
			return fmt.Errorf("finding active cart for user %d: %w", userID, err)
		}

		var (
			stock  int
			active bool
		)
		err := tx.QueryRow(ctx, lockProductSQL, productID).Scan(&stock, &active)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return catalog.ErrNotFound
			}
			return fmt.Errorf("locking product %d: %w", productID, err)
		}
		if !active {
			return catalog.ErrNotFound
		}

		var current int
		err = tx.QueryRow(ctx, currentLineQtySQL, cartID, productID).Scan(&current)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("reading cart line: %w", err)
		}

		if current+quantity > stock {
			return &cart.InsufficientStockError{
				ProductID: productID,
				Requested: current + quantity,
				Available: stock,
			}
		}

		if _, err := tx.Exec(ctx, upsertLineSQL, cartID, productID, quantity); err != nil {
			return fmt.Errorf("upserting cart line: %w", err)
		}
		return nil
	})
}

// SetQuantity replaces an owned line's quantity after re-checking stock under
// a row lock. Missing and foreign lines both come back as ErrItemNotFound.
func (r *CartRepository) SetQuantity(ctx context.Context, userID, itemID int64, quantity int) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			productID int64
			stock     int
		)
		err := tx.QueryRow(ctx, lockOwnedLineSQL, userID, itemID).Scan(&productID, &stock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return cart.ErrItemNotFound
			}
			return fmt.Errorf("locking cart line %d: %w", itemID, err)
		}

		if quantity > stock {
			return &cart.InsufficientStockError{
				ProductID: productID,
				Requested: quantity,
				Available: stock,
			}
		}

		if _, err := tx.Exec(ctx, setLineQtySQL, itemID, quantity); err != nil {
			return fmt.Errorf("updating cart line %d: %w", itemID, err)
		}
		return nil
	})
}

// Delete removes one owned line.
func (r *CartRepository) Delete(ctx context.Context, userID, itemID int64) error {
	tag, err := r.pool.Exec(ctx, deleteOwnedLineSQL, userID, itemID)
	if err != nil {
		return fmt.Errorf("deleting cart line %d: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

// Clear removes every line of the user's active cart, keeping the cart row.
func (r *CartRepository) Clear(ctx context.Context, userID int64) error {
	if _, err := r.pool.Exec(ctx, clearCartSQL, userID); err != nil {
		return fmt.Errorf("clearing cart for user %d: %w", userID, err)
	}
	return nil
}

func scanCartItem(row pgx.CollectableRow) (cart.Item, error) {
	var (
		it    cart.Item
		image *string
	)
	err := row.Scan(
		&it.ID, &it.CartID, &it.ProductID, &it.Quantity,
		&it.Product.Name, &it.Product.Price, &image,
		&it.Product.Stock, &it.Product.CategoryName,
	)
	if image != nil {
		it.Product.Image = *image
	}
	return it, err
}
