package domain

const (
	AuctionScheduled = "scheduled"
	AuctionActive    = "active"
	AuctionEnded     = "ended"
)

type AuctionBid struct {
	ID         string `db:"id" json:"id"`
	ProductID  string `db:"product_id" json:"product_id"`
	BidderID   string `db:"bidder_id" json:"bidder_id"`
	BidderName string `db:"bidder_name" json:"bidder_name"`
	Amount     Money  `db:"bid_amount_cents" json:"bid_amount_cents"`
	BidTime    string `db:"bid_time" json:"bid_time"`
	IsWinning  bool   `db:"is_winning" json:"is_winning"`
}

// MinimumBid is current_bid (or starting_bid when no bid exists) plus the increment.
func MinimumBid(p Product) Money {
	base := p.CurrentBid
	if base <= 0 {
		base = p.StartingBid
	}
	return base + p.BidIncrement
}
