package services

import (
	"context"

	"superloja/internal/domain"
	"superloja/internal/repos"
)

const (
	InStock    = "IN_STOCK"
	LowStock   = "LOW_STOCK"
	OutOfStock = "OUT_OF_STOCK"
)

type Availability struct {
	Status string `json:"status"`
	Qty    int    `json:"qty"`
}

type InventoryService struct {
	Prods    *repos.ProductRepo
	Settings *SettingsService
}

func NewInventoryService(prods *repos.ProductRepo, settings *SettingsService) *InventoryService {
	return &InventoryService{Prods: prods, Settings: settings}
}

func (s *InventoryService) threshold(ctx context.Context) (int, error) {
	if s.Settings == nil {
		return domain.DefaultStoreSettings().LowStockThreshold, nil
	}
	st, err := s.Settings.Load(ctx)
	if err != nil {
		return 0, err
	}
	return st.LowStockThreshold, nil
}

// CheckAvailability converts qty into IN_STOCK / LOW_STOCK / OUT_OF_STOCK using the store's
// low-stock threshold.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string) (Availability, error) {
	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return Availability{}, err
	}
	if !p.Active {
		return Availability{Status: OutOfStock}, nil
	}
	limit, err := s.threshold(ctx)
	if err != nil {
		return Availability{}, err
	}
	status := OutOfStock
	switch {
	case p.StockQuantity > limit:
		status = InStock
	case p.StockQuantity > 0:
		status = LowStock
	}
	return Availability{Status: status, Qty: p.StockQuantity}, nil
}

// LowStock lists active non-auction products at or under the threshold.
func (s *InventoryService) LowStock(ctx context.Context) ([]domain.Product, error) {
	limit, err := s.threshold(ctx)
	if err != nil {
		return nil, err
	}
	return s.Prods.LowStock(ctx, limit)
}
