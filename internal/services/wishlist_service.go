package services

import (
	"context"

	"superloja/internal/domain"
	"superloja/internal/repos"
)

// WishlistService keeps the products a session saved for later.
type WishlistService struct {
	Repo  *repos.WishlistRepo
	Prods *repos.ProductRepo
}

func NewWishlistService(r *repos.WishlistRepo, prods *repos.ProductRepo) *WishlistService {
	return &WishlistService{Repo: r, Prods: prods}
}

func (s *WishlistService) Save(ctx context.Context, sessionID, productID string) error {
	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return err
	}
	if !p.Active {
		return ErrNotFound
	}
	id, err := s.Repo.Ensure(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.Repo.Add(ctx, id, productID)
}

func (s *WishlistService) Unsave(ctx context.Context, sessionID, productID string) error {
	id, err := s.Repo.Ensure(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.Repo.Remove(ctx, id, productID)
}

func (s *WishlistService) List(ctx context.Context, sessionID string) ([]domain.Product, error) {
	id, err := s.Repo.Ensure(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.Repo.List(ctx, id)
}
