package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"superloja/internal/domain"
	"superloja/internal/repos"
)

type NotificationService struct {
	Repo *repos.NotificationRepo
}

func NewNotificationService(r *repos.NotificationRepo) *NotificationService {
	return &NotificationService{Repo: r}
}

// Send stores n unless the user switched its kind off. Both outcomes land in notification_logs.
func (s *NotificationService) Send(ctx context.Context, n domain.Notification) (bool, error) {
	return deliver(ctx, s.Repo, n)
}

// SendTx is Send inside an open transaction.
func (s *NotificationService) SendTx(ctx context.Context, tx *sqlx.Tx, n domain.Notification) (bool, error) {
	return deliver(ctx, s.Repo.WithTx(tx), n)
}

func deliver(ctx context.Context, r *repos.NotificationRepo, n domain.Notification) (bool, error) {
	if n.UserID == "" {
		return false, nil
	}
	prefs, err := r.Settings(ctx, n.UserID)
	if err != nil {
		return false, err
	}
	now := repos.TS(time.Now())
	outcome := "skipped"
	if prefs.Allows(n.Kind) {
		n.ID = uuid.NewString()
		n.CreatedAt = now
		if err := r.Insert(ctx, n); err != nil {
			return false, err
		}
		outcome = "sent"
	}
	if err := r.Log(ctx, repos.NotificationLog{
		ID: uuid.NewString(), UserID: n.UserID, Kind: n.Kind, Outcome: outcome, CreatedAt: now,
	}); err != nil {
		return false, err
	}
	return outcome == "sent", nil
}

func (s *NotificationService) List(ctx context.Context, userID string) ([]domain.Notification, error) {
	return s.Repo.ListForUser(ctx, userID, 50)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.Repo.MarkRead(ctx, userID, id)
}

func (s *NotificationService) Unread(ctx context.Context, userID string) (int, error) {
	return s.Repo.Unread(ctx, userID)
}

func (s *NotificationService) Settings(ctx context.Context, userID string) (domain.NotificationSettings, error) {
	return s.Repo.Settings(ctx, userID)
}

func (s *NotificationService) SaveSettings(ctx context.Context, userID string, in domain.NotificationSettings) error {
	in.UserID = userID
	return s.Repo.SaveSettings(ctx, in)
}

func (s *NotificationService) Logs(ctx context.Context) ([]repos.NotificationLog, error) {
	return s.Repo.Logs(ctx, 200)
}
