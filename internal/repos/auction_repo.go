package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"superloja/internal/domain"
)

type AuctionRepo struct{ db Querier }

func NewAuctionRepo(db *sqlx.DB) *AuctionRepo { return &AuctionRepo{db: db} }

func (r *AuctionRepo) WithTx(tx *sqlx.Tx) *AuctionRepo { return &AuctionRepo{db: tx} }

// Bids returns the bid history, highest first.
func (r *AuctionRepo) Bids(ctx context.Context, productID string, limit int) ([]domain.AuctionBid, error) {
	if limit <= 0 {
		limit = 50
	}
	out := []domain.AuctionBid{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT b.id, b.product_id, b.bidder_id, COALESCE(p.name, '') AS bidder_name,
	         b.bid_amount_cents, b.bid_time, b.is_winning
	  FROM auction_bids b LEFT JOIN profiles p ON p.id = b.bidder_id
	  WHERE b.product_id = ?
	  ORDER BY b.bid_amount_cents DESC, b.bid_time
	  LIMIT ?`, productID, limit)
	return out, err
}

func (r *AuctionRepo) Winning(ctx context.Context, productID string) (domain.AuctionBid, error) {
	var b domain.AuctionBid
	err := r.db.GetContext(ctx, &b, `
	  SELECT b.id, b.product_id, b.bidder_id, COALESCE(p.name, '') AS bidder_name,
	         b.bid_amount_cents, b.bid_time, b.is_winning
	  FROM auction_bids b LEFT JOIN profiles p ON p.id = b.bidder_id
	  WHERE b.product_id = ? AND b.is_winning = 1`, productID)
	return b, notFound(err)
}

func (r *AuctionRepo) ClearWinning(ctx context.Context, productID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE auction_bids SET is_winning = 0 WHERE product_id = ? AND is_winning = 1`, productID)
	return err
}

func (r *AuctionRepo) Insert(ctx context.Context, b domain.AuctionBid) error {
	if b.BidTime == "" {
		b.BidTime = TS(time.Now())
	}
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO auction_bids(id, product_id, bidder_id, bid_amount_cents, bid_time, is_winning)
	  VALUES(?, ?, ?, ?, ?, ?)`, b.ID, b.ProductID, b.BidderID, b.Amount, b.BidTime, b.IsWinning)
	return err
}

func (r *AuctionRepo) Count(ctx context.Context, productID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM auction_bids WHERE product_id = ?`, productID)
	return n, err
}

// DeleteForProduct drops the bid history when an auction is reconfigured.
func (r *AuctionRepo) DeleteForProduct(ctx context.Context, productID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM auction_bids WHERE product_id = ?`, productID)
	return err
}
