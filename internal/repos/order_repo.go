package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"superloja/internal/domain"
)

type OrderRepo struct{ db Querier }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

func (r *OrderRepo) WithTx(tx *sqlx.Tx) *OrderRepo { return &OrderRepo{db: tx} }

const orderCols = `id, session_id, user_id, channel, customer_name, customer_email, customer_phone,
  shipping_address, fulfillment, payment_method, payment_status, status, total_cents,
  payment_proof_url, notes, created_at`

// Create inserts a new order header.
func (r *OrderRepo) Create(ctx context.Context, o domain.Order) error {
	if o.CreatedAt == "" {
		o.CreatedAt = TS(time.Now())
	}
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO orders(`+orderCols+`)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.SessionID, o.UserID, o.Channel, o.CustomerName, o.CustomerEmail, o.CustomerPhone,
		o.ShippingAddress, o.Fulfillment, o.PaymentMethod, o.PaymentStatus, o.Status, o.Total,
		o.PaymentProofURL, o.Notes, o.CreatedAt)
	return err
}

// InsertItem inserts a single line item.
func (r *OrderRepo) InsertItem(ctx context.Context, it domain.OrderItem) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO order_items(order_id, product_id, product_name, quantity, unit_price_cents)
	  VALUES(?, ?, ?, ?, ?)
	`, it.OrderID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice)
	return err
}

func (r *OrderRepo) Get(ctx context.Context, orderID string) (domain.Order, []domain.OrderItem, error) {
	var o domain.Order
	if err := r.db.GetContext(ctx, &o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, orderID); err != nil {
		return domain.Order{}, nil, notFound(err)
	}
	items := []domain.OrderItem{}
	if err := r.db.SelectContext(ctx, &items, `
		SELECT order_id, product_id, product_name, quantity, unit_price_cents
		FROM order_items
		WHERE order_id = ?
		ORDER BY product_name
	`, orderID); err != nil {
		return domain.Order{}, nil, err
	}
	return o, items, nil
}

func (r *OrderRepo) ListLatest(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []domain.Order{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC LIMIT ?`, limit)
	return out, err
}

// ListByUser returns orders placed by the user or from a session bound to the user.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+orderCols+` FROM orders
		WHERE user_id = ?
		   OR session_id IN (SELECT id FROM sessions WHERE user_id = ?)
		ORDER BY created_at DESC
	`, userID, userID)
	return out, err
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id, status, paymentStatus string) error {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE orders
	  SET status = COALESCE(NULLIF(?, ''), status),
	      payment_status = COALESCE(NULLIF(?, ''), payment_status)
	  WHERE id = ?`, status, paymentStatus, id)
	return affected(res, err)
}

func (r *OrderRepo) SetPaymentProof(ctx context.Context, id, url string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET payment_proof_url = ? WHERE id = ?`, url, id)
	return affected(res, err)
}

type SalesSummary struct {
	Orders  int          `db:"orders" json:"orders"`
	Revenue domain.Money `db:"revenue_cents" json:"revenue_cents"`
}

// Summary totals non-cancelled orders created at or after since.
func (r *OrderRepo) Summary(ctx context.Context, since time.Time) (SalesSummary, error) {
	var s SalesSummary
	err := r.db.GetContext(ctx, &s, `
	  SELECT COUNT(*) AS orders, COALESCE(SUM(total_cents), 0) AS revenue_cents
	  FROM orders WHERE created_at >= ? AND status != 'cancelled'`, TS(since))
	return s, err
}
