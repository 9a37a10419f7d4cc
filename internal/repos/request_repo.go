package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"superloja/internal/domain"
)

type RequestRepo struct{ db Querier }

func NewRequestRepo(db *sqlx.DB) *RequestRepo { return &RequestRepo{db: db} }

func (r *RequestRepo) Create(ctx context.Context, p domain.ProductRequest) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO product_requests(id, product_name, description, contact_name, contact_email, contact_phone, status, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ProductName, p.Description, p.ContactName, p.ContactEmail, p.ContactPhone, p.Status, p.CreatedAt)
	return err
}

// List returns requests newest first, optionally filtered by status.
func (r *RequestRepo) List(ctx context.Context, status string) ([]domain.ProductRequest, error) {
	q := `SELECT id, product_name, description, contact_name, contact_email, contact_phone, status, created_at
	      FROM product_requests`
	args := []any{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC, id`
	out := []domain.ProductRequest{}
	err := r.db.SelectContext(ctx, &out, q, args...)
	return out, err
}

func (r *RequestRepo) SetStatus(ctx context.Context, id, status string) error {
	return affected(r.db.ExecContext(ctx, `UPDATE product_requests SET status = ? WHERE id = ?`, status, id))
}
