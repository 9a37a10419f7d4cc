package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"superloja/internal/domain"
	"superloja/internal/metrics"
	"superloja/internal/repos"
)

type AuctionService struct {
	DB       *sqlx.DB
	Prods    *repos.ProductRepo
	Bids     *repos.AuctionRepo
	Notify   *NotificationService
	Settings *SettingsService
	Now      func() time.Time
}

func NewAuctionService(db *sqlx.DB, notify *NotificationService, settings *SettingsService) *AuctionService {
	return &AuctionService{
		DB:       db,
		Prods:    repos.NewProductRepo(db),
		Bids:     repos.NewAuctionRepo(db),
		Notify:   notify,
		Settings: settings,
		Now:      time.Now,
	}
}

func (s *AuctionService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// window reports whether now falls inside the auction's start/end.
func window(p domain.Product, now time.Time) error {
	if p.AuctionStatus == domain.AuctionEnded {
		return ErrAuctionClosed
	}
	if p.AuctionStart != "" {
		start, err := repos.ParseTS(p.AuctionStart)
		if err == nil && now.Before(start) {
			return ErrAuctionNotStarted
		}
	}
	if p.AuctionEnd != "" {
		end, err := repos.ParseTS(p.AuctionEnd)
		if err == nil && !now.Before(end) {
			return ErrAuctionClosed
		}
	}
	return nil
}

// PlaceBid records amount for bidderID. The product row is advanced under a version guard,
// so of two bids racing on the same minimum only one commits; the other gets
// ErrBidTooLow or ErrBidConflict. Exactly one bid per auction carries is_winning.
func (s *AuctionService) PlaceBid(ctx context.Context, productID, bidderID string, amount domain.Money) (domain.AuctionBid, error) {
	if s.Settings != nil {
		st, err := s.Settings.Load(ctx)
		if err != nil {
			return domain.AuctionBid{}, err
		}
		if !st.AuctionsEnabled {
			return domain.AuctionBid{}, ErrAuctionsDisabled
		}
	}
	now := s.now()
	bid := domain.AuctionBid{
		ID:        uuid.NewString(),
		ProductID: productID,
		BidderID:  bidderID,
		Amount:    amount,
		BidTime:   repos.TS(now),
		IsWinning: true,
	}
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		prods := s.Prods.WithTx(tx)
		bids := s.Bids.WithTx(tx)

		p, err := prods.Get(ctx, productID)
		if err != nil {
			return err
		}
		if !p.IsAuction || !p.Active {
			return ErrNotAuction
		}
		if err := window(p, now); err != nil {
			return err
		}
		if minBid := domain.MinimumBid(p); amount < minBid {
			return fmt.Errorf("%w: minimum is %s", ErrBidTooLow, minBid)
		}

		prev, err := bids.Winning(ctx, productID)
		hasPrev := err == nil
		if err != nil && !errors.Is(err, repos.ErrNotFound) {
			return err
		}
		if hasPrev && prev.BidderID == bidderID {
			return ErrOwnAuctionWinning
		}

		ok, err := prods.AdvanceBid(ctx, productID, amount, p.AuctionVersion)
		if err != nil {
			return err
		}
		if !ok {
			return ErrBidConflict
		}
		if err := bids.ClearWinning(ctx, productID); err != nil {
			return err
		}
		if err := bids.Insert(ctx, bid); err != nil {
			return err
		}
		if hasPrev && s.Notify != nil {
			if _, err := s.Notify.SendTx(ctx, tx, domain.Notification{
				UserID: prev.BidderID,
				Kind:   domain.NotifyOutbid,
				Title:  "Seu lance foi superado",
				Body:   fmt.Sprintf("%s recebeu um lance de %s", p.Name, amount),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	metrics.Bids.WithLabelValues(bidResult(err)).Inc()
	if err != nil {
		return domain.AuctionBid{}, err
	}
	return bid, nil
}

func bidResult(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrBidTooLow):
		return "too_low"
	case errors.Is(err, ErrBidConflict):
		return "conflict"
	case errors.Is(err, ErrAuctionClosed), errors.Is(err, ErrAuctionNotStarted):
		return "closed"
	case repos.IsBusy(err):
		return "busy"
	}
	return "rejected"
}

type AuctionView struct {
	Product          domain.Product      `json:"product"`
	MinimumBid       domain.Money        `json:"minimum_bid_cents"`
	Bids             []domain.AuctionBid `json:"bids"`
	RemainingSeconds int64               `json:"remaining_seconds"`
	Open             bool                `json:"open"`
}

func (s *AuctionService) View(ctx context.Context, productID string) (AuctionView, error) {
	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return AuctionView{}, err
	}
	if !p.IsAuction {
		return AuctionView{}, ErrNotAuction
	}
	bids, err := s.Bids.Bids(ctx, productID, 50)
	if err != nil {
		return AuctionView{}, err
	}
	now := s.now()
	v := AuctionView{Product: p, MinimumBid: domain.MinimumBid(p), Bids: bids, Open: window(p, now) == nil}
	if end, err := repos.ParseTS(p.AuctionEnd); err == nil && end.After(now) {
		v.RemainingSeconds = int64(end.Sub(now) / time.Second)
	}
	return v, nil
}

// List returns scheduled and active auctions, promoting scheduled ones whose start has passed.
func (s *AuctionService) List(ctx context.Context) ([]domain.Product, error) {
	due, err := s.Prods.ScheduledToStart(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for _, p := range due {
		if err := s.Prods.SetAuctionStatus(ctx, p.ID, domain.AuctionActive, ""); err != nil {
			return nil, err
		}
	}
	return s.Prods.ListAuctions(ctx)
}

type AuctionConfig struct {
	StartingBid domain.Money `json:"starting_bid_cents"`
	Increment   domain.Money `json:"bid_increment_cents"`
	Start       time.Time    `json:"auction_start"`
	End         time.Time    `json:"auction_end"`
}

// Configure makes productID an auction with a fresh bid history.
func (s *AuctionService) Configure(ctx context.Context, productID string, c AuctionConfig) error {
	if c.StartingBid <= 0 || c.Increment <= 0 {
		return fmt.Errorf("%w: starting bid and increment must be positive", ErrInvalidInput)
	}
	now := s.now()
	if c.Start.IsZero() {
		c.Start = now
	}
	if !c.End.After(c.Start) {
		return fmt.Errorf("%w: auction must end after it starts", ErrInvalidInput)
	}
	status := domain.AuctionScheduled
	if !now.Before(c.Start) {
		status = domain.AuctionActive
	}
	return repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if err := s.Prods.WithTx(tx).ConfigureAuction(ctx, productID, c.StartingBid, c.Increment, c.Start, c.End, status); err != nil {
			return err
		}
		return s.Bids.WithTx(tx).DeleteForProduct(ctx, productID)
	})
}

// CloseDue ends every auction past its end time and notifies winners. Ended auctions are skipped,
// so running it twice is harmless.
func (s *AuctionService) CloseDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.Prods.DueAuctions(ctx, now)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, p := range due {
		err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
			w, err := s.Bids.WithTx(tx).Winning(ctx, p.ID)
			if err != nil && !errors.Is(err, repos.ErrNotFound) {
				return err
			}
			if err := s.Prods.WithTx(tx).SetAuctionStatus(ctx, p.ID, domain.AuctionEnded, w.BidderID); err != nil {
				return err
			}
			if w.BidderID == "" || s.Notify == nil {
				return nil
			}
			_, err = s.Notify.SendTx(ctx, tx, domain.Notification{
				UserID: w.BidderID,
				Kind:   domain.NotifyAuctionWon,
				Title:  "Você venceu o leilão",
				Body:   fmt.Sprintf("%s arrematado por %s", p.Name, w.Amount),
			})
			return err
		})
		if err != nil {
			return closed, err
		}
		closed++
	}
	return closed, nil
}
