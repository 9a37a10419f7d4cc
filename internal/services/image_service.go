package services

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"superloja/internal/domain"
	"superloja/internal/repos"
	"superloja/internal/storage"
)

type ImageService struct {
	DB     *sqlx.DB
	Prods  *repos.ProductRepo
	Images *repos.ImageRepo
	Bucket *storage.Bucket
}

func NewImageService(db *sqlx.DB, bucket *storage.Bucket) *ImageService {
	return &ImageService{DB: db, Prods: repos.NewProductRepo(db), Images: repos.NewImageRepo(db), Bucket: bucket}
}

func (s *ImageService) List(ctx context.Context, productID string) ([]domain.ProductImage, error) {
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		return nil, err
	}
	return s.Images.List(ctx, productID)
}

// Upload stores data under <productID>/ and appends it to the gallery. The first image of a
// product without a main image becomes the main image.
func (s *ImageService) Upload(ctx context.Context, productID string, data []byte) (domain.ProductImage, error) {
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		return domain.ProductImage{}, err
	}
	key, err := s.Bucket.Upload(ctx, productID, data)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			return domain.ProductImage{}, errors.Join(ErrInvalidInput, err)
		}
		return domain.ProductImage{}, err
	}
	img := domain.ProductImage{
		ID:        uuid.NewString(),
		ProductID: productID,
		ObjectKey: key,
		URL:       s.Bucket.PublicURL(key),
	}
	err = repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		pos, err := s.Images.WithTx(tx).Append(ctx, img)
		if err != nil {
			return err
		}
		img.Position = pos
		prods := s.Prods.WithTx(tx)
		p, err := prods.Get(ctx, productID)
		if err != nil {
			return err
		}
		if p.ImageURL == "" {
			return prods.SetImageURL(ctx, productID, img.URL)
		}
		return nil
	})
	if err != nil {
		_ = s.Bucket.Remove(key)
		return domain.ProductImage{}, err
	}
	return img, nil
}

// Remove deletes one gallery image and its stored object. When it was the main image, the
// lowest-position survivor takes its place, or the main image is cleared.
func (s *ImageService) Remove(ctx context.Context, productID, imageID string) error {
	var key string
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		images := s.Images.WithTx(tx)
		prods := s.Prods.WithTx(tx)
		img, err := images.Get(ctx, productID, imageID)
		if err != nil {
			return err
		}
		key = img.ObjectKey
		if err := images.Delete(ctx, productID, imageID); err != nil {
			return err
		}
		p, err := prods.Get(ctx, productID)
		if err != nil {
			return err
		}
		if p.ImageURL != img.URL {
			return nil
		}
		rest, err := images.List(ctx, productID)
		if err != nil {
			return err
		}
		next := ""
		if len(rest) > 0 {
			next = rest[0].URL
		}
		return prods.SetImageURL(ctx, productID, next)
	})
	if err != nil {
		return err
	}
	return s.Bucket.Remove(key)
}

// Main opens the product's main image, for composing banners.
func (s *ImageService) Main(ctx context.Context, productID string) (domain.Product, io.ReadCloser, error) {
	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return p, nil, err
	}
	key, ok := s.Bucket.KeyFromURL(p.ImageURL)
	if !ok {
		return p, nil, nil
	}
	rc, err := s.Bucket.Open(key)
	if err != nil {
		return p, nil, err
	}
	return p, rc, nil
}
