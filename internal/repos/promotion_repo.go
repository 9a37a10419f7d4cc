package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"superloja/internal/domain"
)

type PromotionRepo struct{ db Querier }

func NewPromotionRepo(db *sqlx.DB) *PromotionRepo { return &PromotionRepo{db: db} }

func (r *PromotionRepo) WithTx(tx *sqlx.Tx) *PromotionRepo { return &PromotionRepo{db: tx} }

const promotionCols = `id, title, product_id, category_id, discount_percent, starts_at, ends_at, is_active`

func (r *PromotionRepo) List(ctx context.Context) ([]domain.Promotion, error) {
	out := []domain.Promotion{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+promotionCols+` FROM promotions ORDER BY starts_at DESC`)
	return out, err
}

// Active returns promotions whose window contains now.
func (r *PromotionRepo) Active(ctx context.Context, now time.Time) ([]domain.Promotion, error) {
	out := []domain.Promotion{}
	t := TS(now)
	err := r.db.SelectContext(ctx, &out, `SELECT `+promotionCols+` FROM promotions
	  WHERE is_active = 1 AND starts_at <= ? AND ends_at > ?
	  ORDER BY discount_percent DESC`, t, t)
	return out, err
}

func (r *PromotionRepo) Create(ctx context.Context, p domain.Promotion) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO promotions(`+promotionCols+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Title, p.ProductID, p.CategoryID, p.DiscountPercent, p.StartsAt, p.EndsAt, p.Active)
	return err
}

func (r *PromotionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM promotions WHERE id = ?`, id)
	return affected(res, err)
}
