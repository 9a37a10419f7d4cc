package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"superloja/internal/domain"
	"superloja/internal/repos"
	"superloja/internal/validate"
)

const DefaultPageSize = 12

type CatalogService struct {
	Cats   *repos.CategoryRepo
	Prods  *repos.ProductRepo
	Images *repos.ImageRepo
	Promos *repos.PromotionRepo
	Now    func() time.Time
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, images *repos.ImageRepo, promos *repos.PromotionRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Images: images, Promos: promos, Now: time.Now}
}

// ProductView is a product as a shopper sees it: with the promotion already applied.
type ProductView struct {
	domain.Product
	EffectivePrice domain.Money      `json:"effective_price_cents"`
	Promotion      *domain.Promotion `json:"promotion,omitempty"`
}

type ProductDetail struct {
	ProductView
	Images     []domain.ProductImage `json:"images"`
	MinimumBid domain.Money          `json:"minimum_bid_cents,omitempty"`
}

func (s *CatalogService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

func pageOffset(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return pageSize, (page - 1) * pageSize
}

func (s *CatalogService) ListProductsByCategory(ctx context.Context, catID string, page, pageSize int) ([]ProductView, error) {
	limit, offset := pageOffset(page, pageSize)
	ps, err := s.Prods.ListByCategory(ctx, catID, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, ps)
}

func (s *CatalogService) Search(ctx context.Context, q, category string, page, pageSize int) ([]ProductView, error) {
	limit, offset := pageOffset(page, pageSize)
	ps, err := s.Prods.Search(ctx, q, category, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, ps)
}

func (s *CatalogService) activePromotions(ctx context.Context) ([]domain.Promotion, error) {
	return s.Promos.Active(ctx, s.now())
}

func (s *CatalogService) views(ctx context.Context, ps []domain.Product) ([]ProductView, error) {
	promos, err := s.activePromotions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProductView, 0, len(ps))
	for _, p := range ps {
		out = append(out, view(p, promos))
	}
	return out, nil
}

func view(p domain.Product, promos []domain.Promotion) ProductView {
	v := ProductView{Product: p, EffectivePrice: p.Price}
	if promo := BestPromotion(promos, p); promo != nil {
		v.Promotion = promo
		v.EffectivePrice = promo.Discounted(p.Price)
	}
	return v
}

// BestPromotion picks the single active promotion giving the largest discount on p.
// Product-specific promotions win ties over category-wide ones.
func BestPromotion(promos []domain.Promotion, p domain.Product) *domain.Promotion {
	var best *domain.Promotion
	for i := range promos {
		pr := &promos[i]
		if !pr.Active {
			continue
		}
		applies := (pr.ProductID != "" && pr.ProductID == p.ID) ||
			(pr.ProductID == "" && pr.CategoryID != "" && pr.CategoryID == p.CategoryID)
		if !applies {
			continue
		}
		if best == nil || pr.DiscountPercent > best.DiscountPercent ||
			(pr.DiscountPercent == best.DiscountPercent && pr.ProductID != "" && best.ProductID == "") {
			best = pr
		}
	}
	return best
}

// EffectivePrice is the unit price charged right now for p.
func (s *CatalogService) EffectivePrice(ctx context.Context, p domain.Product) (domain.Money, error) {
	promos, err := s.activePromotions(ctx)
	if err != nil {
		return 0, err
	}
	return view(p, promos).EffectivePrice, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (ProductDetail, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return ProductDetail{}, err
	}
	vs, err := s.views(ctx, []domain.Product{p})
	if err != nil {
		return ProductDetail{}, err
	}
	imgs, err := s.Images.List(ctx, id)
	if err != nil {
		return ProductDetail{}, err
	}
	d := ProductDetail{ProductView: vs[0], Images: imgs}
	if p.IsAuction {
		d.MinimumBid = domain.MinimumBid(p)
	}
	return d, nil
}

// ---------- admin ----------

type ProductInput struct {
	CategoryID    string       `json:"category_id" validate:"required,slug"`
	Name          string       `json:"name" validate:"required,max=120"`
	Description   string       `json:"description" validate:"max=2000"`
	Price         domain.Money `json:"price_cents" validate:"gte=0"`
	OriginalPrice domain.Money `json:"original_price_cents" validate:"gte=0"`
	StockQuantity int          `json:"stock_quantity" validate:"gte=0,lte=100000"`
	Active        *bool        `json:"is_active"`
}

func (s *CatalogService) checkProduct(ctx context.Context, in *ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validate.Struct(*in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	ok, err := s.Cats.Exists(ctx, in.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.CategoryID)
	}
	return nil
}

func (in ProductInput) apply(p *domain.Product) {
	p.CategoryID = in.CategoryID
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.OriginalPrice = in.OriginalPrice
	p.StockQuantity = in.StockQuantity
	if in.Active != nil {
		p.Active = *in.Active
	}
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	if err := s.checkProduct(ctx, &in); err != nil {
		return domain.Product{}, err
	}
	p := domain.Product{ID: uuid.NewString(), Active: true}
	in.apply(&p)
	if err := s.Prods.Create(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return s.Prods.Get(ctx, p.ID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (domain.Product, error) {
	if err := s.checkProduct(ctx, &in); err != nil {
		return domain.Product{}, err
	}
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	in.apply(&p)
	if err := s.Prods.Update(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// DeleteProduct hides the product; order history keeps referencing the row.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	return s.Prods.Deactivate(ctx, id)
}

func (s *CatalogService) SetStock(ctx context.Context, id string, qty int) error {
	if qty < 0 || qty > 100000 {
		return fmt.Errorf("%w: stock %d", ErrInvalidInput, qty)
	}
	return s.Prods.SetStock(ctx, id, qty)
}

// ---------- promotions ----------

type PromotionInput struct {
	Title           string    `json:"title" validate:"required,max=120"`
	ProductID       string    `json:"product_id" validate:"omitempty,slug"`
	CategoryID      string    `json:"category_id" validate:"omitempty,slug"`
	DiscountPercent int       `json:"discount_percent" validate:"gte=1,lte=99"`
	StartsAt        time.Time `json:"starts_at" validate:"required"`
	EndsAt          time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

func (s *CatalogService) ListPromotions(ctx context.Context) ([]domain.Promotion, error) {
	return s.Promos.List(ctx)
}

func (s *CatalogService) CreatePromotion(ctx context.Context, in PromotionInput) (domain.Promotion, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validate.Struct(in); err != nil {
		return domain.Promotion{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if (in.ProductID == "") == (in.CategoryID == "") {
		return domain.Promotion{}, fmt.Errorf("%w: promotion targets exactly one product or category", ErrInvalidInput)
	}
	if in.ProductID != "" {
		if _, err := s.Prods.Get(ctx, in.ProductID); err != nil {
			return domain.Promotion{}, err
		}
	} else {
		ok, err := s.Cats.Exists(ctx, in.CategoryID)
		if err != nil {
			return domain.Promotion{}, err
		}
		if !ok {
			return domain.Promotion{}, ErrNotFound
		}
	}
	p := domain.Promotion{
		ID:              uuid.NewString(),
		Title:           in.Title,
		ProductID:       in.ProductID,
		CategoryID:      in.CategoryID,
		DiscountPercent: in.DiscountPercent,
		StartsAt:        repos.TS(in.StartsAt),
		EndsAt:          repos.TS(in.EndsAt),
		Active:          true,
	}
	return p, s.Promos.Create(ctx, p)
}

func (s *CatalogService) DeletePromotion(ctx context.Context, id string) error {
	return s.Promos.Delete(ctx, id)
}
