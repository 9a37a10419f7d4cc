package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"superloja/internal/domain"
)

type CartRepo struct {
	db  Querier
	raw *sqlx.DB
}

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db, raw: db} }

func (r *CartRepo) WithTx(tx *sqlx.Tx) *CartRepo { return &CartRepo{db: tx, raw: r.raw} }

// CartItemRow is a cart line joined with the product fields pricing needs.
// UnitPrice starts as the price captured on add; the cart service reprices it.
type CartItemRow struct {
	ProductID   string       `db:"product_id" json:"product_id"`
	ProductName string       `db:"name" json:"name"`
	ImageURL    string       `db:"image_url" json:"image_url"`
	CategoryID  string       `db:"category_id" json:"-"`
	ListPrice   domain.Money `db:"price_cents" json:"-"`
	Quantity    int          `db:"quantity" json:"quantity"`
	UnitPrice   domain.Money `db:"unit_price_cents" json:"unit_price_cents"`
	Subtotal    domain.Money `db:"-" json:"subtotal_cents"`
}

func (r *CartRepo) EnsureCart(ctx context.Context, sessionID string) (string, error) {
	var cartID string
	err := r.db.GetContext(ctx, &cartID, `SELECT id FROM carts WHERE session_id = ?`, sessionID)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO carts(id,session_id,updated_at) VALUES(?,?,?)`,
		sessionID, sessionID, TS(time.Now()))
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// UpsertItem adds qty to an existing line for the product, or creates the line. The
// resulting quantity may not exceed limit; ok is false when it would.
func (r *CartRepo) UpsertItem(ctx context.Context, cartID, productID string, qty, limit int, price domain.Money) (bool, error) {
	if qty > limit {
		return false, nil
	}
	now := TS(time.Now())
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items(cart_id,product_id,quantity,unit_price_cents,created_at,updated_at)
		VALUES(?,?,?,?,?,?)
		ON CONFLICT(cart_id,product_id) DO UPDATE
		SET quantity = cart_items.quantity + excluded.quantity, updated_at = excluded.updated_at
		WHERE cart_items.quantity + excluded.quantity <= ?
	`, cartID, productID, qty, price, now, now, limit)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *CartRepo) SetQuantity(ctx context.Context, cartID, productID string, qty int) error {
	if qty <= 0 {
		return r.Remove(ctx, cartID, productID)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE cart_items SET quantity = ?, updated_at = ? WHERE cart_id = ? AND product_id = ?`,
		qty, TS(time.Now()), cartID, productID)
	return affected(res, err)
}

func (r *CartRepo) Remove(ctx context.Context, cartID, productID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`, cartID, productID)
	return err
}

func (r *CartRepo) View(ctx context.Context, cartID string) ([]CartItemRow, error) {
	rows := []CartItemRow{}
	err := r.db.SelectContext(ctx, &rows, `
	  SELECT ci.product_id, p.name, p.image_url, p.category_id, p.price_cents,
	         ci.quantity, ci.unit_price_cents
	  FROM cart_items ci JOIN products p ON p.id=ci.product_id
	  WHERE ci.cart_id = ?
	  ORDER BY ci.created_at, ci.product_id
	`, cartID)
	return rows, err
}

type CartLine struct {
	ProductID string `db:"product_id"`
	Quantity  int    `db:"quantity"`
}

func (r *CartRepo) Lines(ctx context.Context, cartID string) ([]CartLine, error) {
	out := []CartLine{}
	err := r.db.SelectContext(ctx, &out, `SELECT product_id, quantity FROM cart_items WHERE cart_id = ? ORDER BY product_id`, cartID)
	return out, err
}

func (r *CartRepo) Clear(ctx context.Context, cartID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return err
}

// MergeForLogin folds the anonymous session cart into the user's most recent cart.
func (r *CartRepo) MergeForLogin(ctx context.Context, userID, sid string) error {
	return InTx(ctx, r.raw, func(tx *sqlx.Tx) error {
		var anonID, userCartID sql.NullString

		if err := tx.GetContext(ctx, &anonID, `SELECT id FROM carts WHERE session_id=? AND user_id IS NULL`, sid); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if err := tx.GetContext(ctx, &userCartID, `SELECT id FROM carts WHERE user_id=? AND session_id != ? ORDER BY updated_at DESC LIMIT 1`, userID, sid); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		if !anonID.Valid {
			return nil
		}

		// No earlier user cart: the session cart simply becomes the user's cart.
		if !userCartID.Valid {
			_, err := tx.ExecContext(ctx, `UPDATE carts SET user_id=?, updated_at=? WHERE id=?`, userID, TS(time.Now()), anonID.String)
			return err
		}

		// Move the earlier user cart's lines into the session cart, which stays addressable by sid.
		var lines []struct {
			ProductID string       `db:"product_id"`
			Quantity  int          `db:"quantity"`
			UnitPrice domain.Money `db:"unit_price_cents"`
		}
		if err := tx.SelectContext(ctx, &lines, `SELECT product_id, quantity, unit_price_cents FROM cart_items WHERE cart_id=?`, userCartID.String); err != nil {
			return err
		}
		now := TS(time.Now())
		for _, it := range lines {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO cart_items(cart_id, product_id, quantity, unit_price_cents, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(cart_id, product_id) DO UPDATE SET
				  quantity = cart_items.quantity + excluded.quantity,
				  updated_at = excluded.updated_at
			`, anonID.String, it.ProductID, it.Quantity, it.UnitPrice, now, now); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE id=?`, userCartID.String); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE carts SET user_id=?, updated_at=? WHERE id=?`, userID, now, anonID.String)
		return err
	})
}
