package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"superloja/internal/domain"
)

type WishlistRepo struct{ db *sqlx.DB }

func NewWishlistRepo(db *sqlx.DB) *WishlistRepo { return &WishlistRepo{db: db} }

// Ensure returns the wishlist of a session, creating it on first use.
func (r *WishlistRepo) Ensure(ctx context.Context, sessionID string) (string, error) {
	var id string
	err := r.db.GetContext(ctx, &id, `SELECT id FROM wishlists WHERE session_id = ?`, sessionID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	_, err = r.db.ExecContext(ctx, `
	  INSERT INTO wishlists(id, session_id, updated_at) VALUES(?, ?, ?)
	  ON CONFLICT(session_id) DO NOTHING
	`, sessionID, sessionID, TS(time.Now()))
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

func (r *WishlistRepo) Add(ctx context.Context, wishlistID, productID string) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO wishlist_items(wishlist_id, product_id, created_at)
	  VALUES(?, ?, ?)
	  ON CONFLICT(wishlist_id, product_id) DO NOTHING
	`, wishlistID, productID, TS(time.Now()))
	return err
}

func (r *WishlistRepo) Remove(ctx context.Context, wishlistID, productID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE wishlist_id = ? AND product_id = ?`, wishlistID, productID)
	return err
}

// List returns the saved products, inactive ones included so the shopper sees what went away.
func (r *WishlistRepo) List(ctx context.Context, wishlistID string) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE id IN (SELECT product_id FROM wishlist_items WHERE wishlist_id = ?)
	  ORDER BY name
	`, wishlistID)
	return out, err
}
