package services

import (
	"context"
	"fmt"

	"superloja/internal/domain"
	"superloja/internal/repos"
)

const MaxLineQty = 50

type CartService struct {
	Carts   *repos.CartRepo
	Prods   *repos.ProductRepo
	Catalog *CatalogService
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo, catalog *CatalogService) *CartService {
	return &CartService{Carts: carts, Prods: prods, Catalog: catalog}
}

// lineLimit is the most units of p one cart line may hold.
func lineLimit(p domain.Product) int {
	return min(p.StockQuantity, MaxLineQty)
}

// Add puts qty units in the cart. A product already in the cart gets its quantity
// increased instead of a second line, and the total per line stays within stock and
// MaxLineQty.
func (s *CartService) Add(ctx context.Context, sessionID, productID string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	if qty > MaxLineQty {
		qty = MaxLineQty
	}
	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return err
	}
	if !p.Active {
		return ErrNotFound
	}
	if p.IsAuction {
		return fmt.Errorf("%w: auction items take bids, not cart adds", ErrInvalidInput)
	}
	price, err := s.Catalog.EffectivePrice(ctx, p)
	if err != nil {
		return err
	}
	cartID, err := s.Carts.EnsureCart(ctx, sessionID)
	if err != nil {
		return err
	}
	ok, err := s.Carts.UpsertItem(ctx, cartID, productID, qty, lineLimit(p), price)
	if err != nil {
		return err
	}
	if !ok {
		if p.StockQuantity < MaxLineQty {
			return fmt.Errorf("%w: %s", ErrInsufficientStock, p.ID)
		}
		return fmt.Errorf("%w: at most %d units per product", ErrInvalidInput, MaxLineQty)
	}
	return nil
}

// SetQuantity replaces the line quantity; zero removes the line.
func (s *CartService) SetQuantity(ctx context.Context, sessionID, productID string, qty int) error {
	if qty < 0 || qty > MaxLineQty {
		return fmt.Errorf("%w: quantity %d", ErrInvalidInput, qty)
	}
	if qty > 0 {
		p, err := s.Prods.Get(ctx, productID)
		if err != nil {
			return err
		}
		if qty > p.StockQuantity {
			return fmt.Errorf("%w: %s", ErrInsufficientStock, p.ID)
		}
	}
	cartID, err := s.Carts.EnsureCart(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.Carts.SetQuantity(ctx, cartID, productID, qty)
}

func (s *CartService) Remove(ctx context.Context, sessionID, productID string) error {
	cartID, err := s.Carts.EnsureCart(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.Carts.Remove(ctx, cartID, productID)
}

type CartView struct {
	Items []repos.CartItemRow `json:"items"`
	Total domain.Money        `json:"total_cents"`
}

// View is the checkout summary. Lines are priced the way checkout prices them, so the
// total shown here is the total the order will carry.
func (s *CartService) View(ctx context.Context, sessionID string) (CartView, error) {
	cartID, err := s.Carts.EnsureCart(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	rows, err := s.Carts.View(ctx, cartID)
	if err != nil {
		return CartView{}, err
	}
	promos, err := s.Catalog.activePromotions(ctx)
	if err != nil {
		return CartView{}, err
	}
	items := make([]domain.OrderItem, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		p := domain.Product{ID: r.ProductID, CategoryID: r.CategoryID, Price: r.ListPrice}
		r.UnitPrice = view(p, promos).EffectivePrice
		it := domain.OrderItem{ProductID: r.ProductID, Quantity: r.Quantity, UnitPrice: r.UnitPrice}
		r.Subtotal = it.Subtotal()
		items = append(items, it)
	}
	return CartView{Items: rows, Total: domain.OrderTotal(items)}, nil
}
