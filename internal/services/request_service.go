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

type RequestService struct {
	Repo *repos.RequestRepo
}

func NewRequestService(r *repos.RequestRepo) *RequestService { return &RequestService{Repo: r} }

type ProductRequestInput struct {
	ProductName  string `json:"product_name" form:"product_name" validate:"required,max=120"`
	Description  string `json:"description" form:"description" validate:"max=1000"`
	ContactName  string `json:"contact_name" form:"contact_name" validate:"required,max=80"`
	ContactEmail string `json:"contact_email" form:"contact_email" validate:"omitempty,email,max=120"`
	ContactPhone string `json:"contact_phone" form:"contact_phone" validate:"omitempty,phone"`
}

// Submit records a request for something the catalog does not carry. Either an email or a
// phone is needed so the store can answer.
func (s *RequestService) Submit(ctx context.Context, in ProductRequestInput) (domain.ProductRequest, error) {
	in.ProductName = strings.TrimSpace(in.ProductName)
	in.Description = strings.TrimSpace(in.Description)
	in.ContactName = strings.TrimSpace(in.ContactName)
	in.ContactEmail = strings.TrimSpace(in.ContactEmail)
	in.ContactPhone = strings.TrimSpace(in.ContactPhone)
	if err := validate.Struct(in); err != nil {
		return domain.ProductRequest{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.ContactEmail == "" && in.ContactPhone == "" {
		return domain.ProductRequest{}, fmt.Errorf("%w: contact email or phone required", ErrInvalidInput)
	}
	r := domain.ProductRequest{
		ID:           uuid.NewString(),
		ProductName:  in.ProductName,
		Description:  in.Description,
		ContactName:  in.ContactName,
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
		Status:       "open",
		CreatedAt:    repos.TS(time.Now()),
	}
	return r, s.Repo.Create(ctx, r)
}

func (s *RequestService) List(ctx context.Context, status string) ([]domain.ProductRequest, error) {
	if status != "" && !domain.ValidRequestStatus(status) {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidInput, status)
	}
	return s.Repo.List(ctx, status)
}

func (s *RequestService) SetStatus(ctx context.Context, id, status string) error {
	if !domain.ValidRequestStatus(status) {
		return fmt.Errorf("%w: status %q", ErrInvalidInput, status)
	}
	return s.Repo.SetStatus(ctx, id, status)
}
