package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"superloja/internal/domain"
)

type ProductRepo struct{ db Querier }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// WithTx returns a repo bound to tx.
func (r *ProductRepo) WithTx(tx *sqlx.Tx) *ProductRepo { return &ProductRepo{db: tx} }

const productCols = `
    id, category_id, name, description, price_cents, original_price_cents, stock_quantity,
    image_url, is_active, is_auction, starting_bid_cents, current_bid_cents, bid_increment_cents,
    auction_start, auction_end, auction_status, auction_winner_id, auction_version,
    created_at, updated_at`

func (r *ProductRepo) ListByCategory(ctx context.Context, catID string, limit, offset int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE category_id = ? AND is_active = 1
	  ORDER BY created_at DESC, id
	  LIMIT ? OFFSET ?
	`, catID, limit, offset)
	return out, err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, notFound(err)
}

func (r *ProductRepo) Search(ctx context.Context, q, catID string, limit, offset int) ([]domain.Product, error) {
	where := `is_active = 1`
	args := []any{}
	if q != "" {
		where += ` AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`
		like := "%" + strings.ToLower(q) + "%"
		args = append(args, like, like)
	}
	if catID != "" {
		where += ` AND category_id = ?`
		args = append(args, catID)
	}
	query := `SELECT ` + productCols + ` FROM products WHERE ` + where + `
	  ORDER BY created_at DESC, id
	  LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, query, args...)
	return out, err
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO products(id, category_id, name, description, price_cents, original_price_cents,
	    stock_quantity, image_url, is_active, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.CategoryID, p.Name, p.Description, p.Price, p.OriginalPrice, p.StockQuantity,
		p.ImageURL, p.Active, TS(time.Now()))
	return err
}

func (r *ProductRepo) Update(ctx context.Context, p domain.Product) error {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE products
	  SET category_id = ?, name = ?, description = ?, price_cents = ?, original_price_cents = ?,
	      stock_quantity = ?, is_active = ?, updated_at = ?
	  WHERE id = ?
	`, p.CategoryID, p.Name, p.Description, p.Price, p.OriginalPrice, p.StockQuantity, p.Active,
		TS(time.Now()), p.ID)
	return affected(res, err)
}

// Deactivate hides a product; rows referenced by orders are never hard-deleted.
func (r *ProductRepo) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET is_active = 0, updated_at = ? WHERE id = ?`, TS(time.Now()), id)
	return affected(res, err)
}

func (r *ProductRepo) SetImageURL(ctx context.Context, id, url string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE products SET image_url = ?, updated_at = ? WHERE id = ?`, url, TS(time.Now()), id)
	return err
}

// ---------- stock ----------

func (r *ProductRepo) Stock(ctx context.Context, id string) (int, error) {
	var qty int
	err := r.db.GetContext(ctx, &qty, `SELECT stock_quantity FROM products WHERE id = ?`, id)
	return qty, notFound(err)
}

// ErrInsufficientStock is returned when a decrement would take stock below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// DecrementStock subtracts by units only if enough stock exists.
func (r *ProductRepo) DecrementStock(ctx context.Context, id string, by int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - ?
		WHERE id = ? AND stock_quantity >= ?
	`, by, id, by)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientStock, id)
	}
	return nil
}

func (r *ProductRepo) SetStock(ctx context.Context, id string, qty int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET stock_quantity = ?, updated_at = ? WHERE id = ?`, qty, TS(time.Now()), id)
	return affected(res, err)
}

func (r *ProductRepo) LowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+productCols+` FROM products
	  WHERE is_active = 1 AND is_auction = 0 AND stock_quantity <= ?
	  ORDER BY stock_quantity, name
	`, threshold)
	return out, err
}

// ---------- auction fields ----------

func (r *ProductRepo) ListAuctions(ctx context.Context, statuses ...string) ([]domain.Product, error) {
	if len(statuses) == 0 {
		statuses = []string{domain.AuctionScheduled, domain.AuctionActive}
	}
	query, args, err := sqlx.In(`SELECT `+productCols+` FROM products
	  WHERE is_auction = 1 AND is_active = 1 AND auction_status IN (?)
	  ORDER BY auction_end`, statuses)
	if err != nil {
		return nil, err
	}
	out := []domain.Product{}
	err = r.db.SelectContext(ctx, &out, query, args...)
	return out, err
}

// ConfigureAuction turns a product into an auction and resets its bidding state.
func (r *ProductRepo) ConfigureAuction(ctx context.Context, id string, starting, increment domain.Money, start, end time.Time, status string) error {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE products
	  SET is_auction = 1, starting_bid_cents = ?, bid_increment_cents = ?, current_bid_cents = 0,
	      auction_start = ?, auction_end = ?, auction_status = ?, auction_winner_id = '',
	      auction_version = auction_version + 1, updated_at = ?
	  WHERE id = ?
	`, starting, increment, TS(start), TS(end), status, TS(time.Now()), id)
	return affected(res, err)
}

// AdvanceBid sets current_bid only if nobody changed the auction since version was read.
func (r *ProductRepo) AdvanceBid(ctx context.Context, id string, amount domain.Money, version int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE products
	  SET current_bid_cents = ?, auction_version = auction_version + 1, auction_status = 'active'
	  WHERE id = ? AND auction_version = ?
	`, amount, id, version)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// DueAuctions lists auctions whose window has closed but are not marked ended.
func (r *ProductRepo) DueAuctions(ctx context.Context, now time.Time) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+productCols+` FROM products
	  WHERE is_auction = 1 AND auction_status != 'ended' AND auction_end != '' AND auction_end <= ?`, TS(now))
	return out, err
}

// ScheduledToStart lists scheduled auctions whose start has passed.
func (r *ProductRepo) ScheduledToStart(ctx context.Context, now time.Time) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+productCols+` FROM products
	  WHERE is_auction = 1 AND auction_status = 'scheduled' AND auction_start <= ? AND auction_end > ?`, TS(now), TS(now))
	return out, err
}

func (r *ProductRepo) SetAuctionStatus(ctx context.Context, id, status, winnerID string) error {
	_, err := r.db.ExecContext(ctx, `
	  UPDATE products SET auction_status = ?, auction_winner_id = ?, auction_version = auction_version + 1
	  WHERE id = ?`, status, winnerID, id)
	return err
}

func affected(res interface{ RowsAffected() (int64, error) }, err error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
