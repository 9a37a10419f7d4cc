package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"superloja/internal/domain"
)

type ImageRepo struct{ db Querier }

func NewImageRepo(db *sqlx.DB) *ImageRepo { return &ImageRepo{db: db} }

func (r *ImageRepo) WithTx(tx *sqlx.Tx) *ImageRepo { return &ImageRepo{db: tx} }

func (r *ImageRepo) List(ctx context.Context, productID string) ([]domain.ProductImage, error) {
	out := []domain.ProductImage{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, product_id, object_key, url, position, created_at
	  FROM product_images WHERE product_id = ?
	  ORDER BY position, created_at
	`, productID)
	return out, err
}

func (r *ImageRepo) Get(ctx context.Context, productID, id string) (domain.ProductImage, error) {
	var img domain.ProductImage
	err := r.db.GetContext(ctx, &img, `
	  SELECT id, product_id, object_key, url, position, created_at
	  FROM product_images WHERE product_id = ? AND id = ?
	`, productID, id)
	return img, notFound(err)
}

// Append stores img at the next free position and returns that position.
func (r *ImageRepo) Append(ctx context.Context, img domain.ProductImage) (int, error) {
	var next int
	if err := r.db.GetContext(ctx, &next, `SELECT COALESCE(MAX(position), -1) + 1 FROM product_images WHERE product_id = ?`, img.ProductID); err != nil {
		return 0, err
	}
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO product_images(id, product_id, object_key, url, position, created_at)
	  VALUES(?, ?, ?, ?, ?, ?)
	`, img.ID, img.ProductID, img.ObjectKey, img.URL, next, TS(time.Now()))
	return next, err
}

func (r *ImageRepo) Delete(ctx context.Context, productID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = ? AND id = ?`, productID, id)
	return affected(res, err)
}
