package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"superloja/internal/domain"
	"superloja/internal/repos"
)

type DashboardService struct {
	Orders    *repos.OrderRepo
	Inventory *InventoryService
	Auctions  *AuctionService
	Requests  *RequestService
	Now       func() time.Time
}

type Dashboard struct {
	Today        repos.SalesSummary      `json:"today"`
	Last30Days   repos.SalesSummary      `json:"last_30_days"`
	LowStock     []domain.Product        `json:"low_stock"`
	Auctions     []domain.Product        `json:"active_auctions"`
	OpenRequests []domain.ProductRequest `json:"open_requests"`
}

// Build gathers the back-office overview. Sections load concurrently.
func (s *DashboardService) Build(ctx context.Context) (Dashboard, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	today := now.UTC().Truncate(24 * time.Hour)

	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Today, err = s.Orders.Summary(gctx, today)
		return
	})
	g.Go(func() (err error) {
		d.Last30Days, err = s.Orders.Summary(gctx, today.AddDate(0, 0, -29))
		return
	})
	g.Go(func() (err error) {
		d.LowStock, err = s.Inventory.LowStock(gctx)
		return
	})
	g.Go(func() (err error) {
		d.Auctions, err = s.Auctions.Prods.ListAuctions(gctx, domain.AuctionActive)
		return
	})
	g.Go(func() (err error) {
		d.OpenRequests, err = s.Requests.List(gctx, "open")
		return
	})
	return d, g.Wait()
}
