package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"superloja/internal/domain"
	"superloja/internal/repos"
	"superloja/internal/validate"
)

type AuthService struct {
	Users      *repos.UserRepo
	Carts      *repos.CartRepo
	AdminEmail string
}

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.Profile, error) {
	u, err := s.Users.ByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	if s.Carts != nil {
		if err := s.Carts.MergeForLogin(ctx, u.ID, sid); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.Profile, error) {
	return s.Users.SessionUser(ctx, sid)
}

// IsAdmin is true for the admin role or the configured admin email.
func (s *AuthService) IsAdmin(p *domain.Profile) bool {
	return p.IsAdmin(s.AdminEmail)
}

type RegisterInput struct {
	Name     string `json:"name" form:"name" validate:"required,max=80"`
	Email    string `json:"email" form:"email" validate:"required,email,max=120"`
	Phone    string `json:"phone" form:"phone" validate:"omitempty,phone"`
	Password string `json:"password" form:"password" validate:"required"`
}

// Register creates a customer profile and signs the session in.
func (s *AuthService) Register(ctx context.Context, sid string, in RegisterInput) (*domain.Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !validate.Password(in.Password) {
		return nil, ErrWeakPassword
	}
	if _, err := s.Users.ByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repos.ErrNotFound) {
		return nil, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	p := domain.Profile{
		ID:    uuid.NewString(),
		Email: in.Email,
		Name:  in.Name,
		Hash:  string(h),
		Role:  domain.RoleCustomer,
		Phone: in.Phone,
	}
	if err := s.Users.Create(ctx, p); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	if err := s.Users.BindSession(ctx, sid, p.ID); err != nil {
		return nil, err
	}
	if s.Carts != nil {
		if err := s.Carts.MergeForLogin(ctx, p.ID, sid); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

type ProfileInput struct {
	Name    string `json:"name" validate:"required,max=80"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
	Address string `json:"address" validate:"max=200"`
	City    string `json:"city" validate:"max=80"`
	State   string `json:"state" validate:"omitempty,len=2,alpha"`
	ZipCode string `json:"zip_code" validate:"omitempty,cep"`
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*domain.Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.State = strings.ToUpper(strings.TrimSpace(in.State))
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if zip, ok := validate.CEP(in.ZipCode); ok {
		in.ZipCode = zip
	}
	p, err := s.Users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.Name, p.Phone, p.Address, p.City, p.State, p.ZipCode = in.Name, in.Phone, in.Address, in.City, in.State, in.ZipCode
	if err := s.Users.UpdateContact(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]domain.Profile, error) {
	return s.Users.ListCustomers(ctx)
}

func (s *AuthService) DeleteUser(ctx context.Context, userID string) error {
	if _, err := s.Users.ByID(ctx, userID); err != nil {
		return err
	}
	return s.Users.DeleteUserCascade(ctx, userID)
}
