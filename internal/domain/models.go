package domain

import (
	"fmt"
	"math"
	"strings"
)

// Money is an amount in cents.
type Money int64

// Reais converts a decimal amount to Money, rounding to the nearest cent.
func Reais(v float64) Money { return Money(math.Round(v * 100)) }

func (m Money) Float() float64 { return float64(m) / 100 }

// String renders Brazilian currency notation: R$ 1.234,56.
func (m Money) String() string {
	neg := m < 0
	if neg {
		m = -m
	}
	whole := int64(m) / 100
	cents := int64(m) % 100
	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	s := fmt.Sprintf("R$ %s,%02d", b.String(), cents)
	if neg {
		return "-" + s
	}
	return s
}

type Category struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`
}

type Product struct {
	ID            string `db:"id" json:"id"`
	CategoryID    string `db:"category_id" json:"category_id"`
	Name          string `db:"name" json:"name"`
	Description   string `db:"description" json:"description"`
	Price         Money  `db:"price_cents" json:"price_cents"`
	OriginalPrice Money  `db:"original_price_cents" json:"original_price_cents"`
	StockQuantity int    `db:"stock_quantity" json:"stock_quantity"`
	ImageURL      string `db:"image_url" json:"image_url"`
	Active        bool   `db:"is_active" json:"is_active"`

	IsAuction       bool   `db:"is_auction" json:"is_auction"`
	StartingBid     Money  `db:"starting_bid_cents" json:"starting_bid_cents"`
	CurrentBid      Money  `db:"current_bid_cents" json:"current_bid_cents"`
	BidIncrement    Money  `db:"bid_increment_cents" json:"bid_increment_cents"`
	AuctionStart    string `db:"auction_start" json:"auction_start,omitempty"`
	AuctionEnd      string `db:"auction_end" json:"auction_end,omitempty"`
	AuctionStatus   string `db:"auction_status" json:"auction_status,omitempty"`
	AuctionWinnerID string `db:"auction_winner_id" json:"auction_winner_id,omitempty"`
	AuctionVersion  int64  `db:"auction_version" json:"-"`

	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`
}

type ProductImage struct {
	ID        string `db:"id" json:"id"`
	ProductID string `db:"product_id" json:"product_id"`
	ObjectKey string `db:"object_key" json:"-"`
	URL       string `db:"url" json:"url"`
	Position  int    `db:"position" json:"position"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

// Promotion discounts a single product or a whole category while active.
type Promotion struct {
	ID              string `db:"id" json:"id"`
	Title           string `db:"title" json:"title"`
	ProductID       string `db:"product_id" json:"product_id,omitempty"`
	CategoryID      string `db:"category_id" json:"category_id,omitempty"`
	DiscountPercent int    `db:"discount_percent" json:"discount_percent"`
	StartsAt        string `db:"starts_at" json:"starts_at"`
	EndsAt          string `db:"ends_at" json:"ends_at"`
	Active          bool   `db:"is_active" json:"is_active"`
}

// Discounted applies the promotion percent to price, rounded to the cent.
func (p Promotion) Discounted(price Money) Money {
	pct := p.DiscountPercent
	if pct <= 0 {
		return price
	}
	if pct >= 100 {
		return 0
	}
	return Money(math.Round(float64(price) * float64(100-pct) / 100))
}

type ProductRequest struct {
	ID           string `db:"id" json:"id"`
	ProductName  string `db:"product_name" json:"product_name"`
	Description  string `db:"description" json:"description"`
	ContactName  string `db:"contact_name" json:"contact_name"`
	ContactEmail string `db:"contact_email" json:"contact_email"`
	ContactPhone string `db:"contact_phone" json:"contact_phone"`
	Status       string `db:"status" json:"status"`
	CreatedAt    string `db:"created_at" json:"created_at"`
}

var RequestStatuses = []string{"open", "contacted", "fulfilled", "closed"}
