package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"superloja/internal/domain"
)

type NotificationRepo struct{ db Querier }

func NewNotificationRepo(db *sqlx.DB) *NotificationRepo { return &NotificationRepo{db: db} }

func (r *NotificationRepo) WithTx(tx *sqlx.Tx) *NotificationRepo { return &NotificationRepo{db: tx} }

func (r *NotificationRepo) Insert(ctx context.Context, n domain.Notification) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO notifications(id, user_id, kind, title, body, is_read, created_at)
	  VALUES(?, ?, ?, ?, ?, 0, ?)`, n.ID, n.UserID, n.Kind, n.Title, n.Body, n.CreatedAt)
	return err
}

func (r *NotificationRepo) ListForUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	out := []domain.Notification{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, user_id, kind, title, body, is_read, created_at
	  FROM notifications WHERE user_id = ?
	  ORDER BY created_at DESC, id LIMIT ?`, userID, limit)
	return out, err
}

func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	return affected(r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID))
}

func (r *NotificationRepo) Unread(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID)
	return n, err
}

// Settings returns the user's toggles, all enabled when no row exists.
func (r *NotificationRepo) Settings(ctx context.Context, userID string) (domain.NotificationSettings, error) {
	var s domain.NotificationSettings
	err := r.db.GetContext(ctx, &s, `
	  SELECT user_id, order_placed, outbid, auction_won, order_status
	  FROM notification_settings WHERE user_id = ?`, userID)
	if err != nil {
		if notFound(err) == ErrNotFound {
			return domain.DefaultNotificationSettings(userID), nil
		}
		return s, err
	}
	return s, nil
}

func (r *NotificationRepo) SaveSettings(ctx context.Context, s domain.NotificationSettings) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO notification_settings(user_id, order_placed, outbid, auction_won, order_status)
	  VALUES(?, ?, ?, ?, ?)
	  ON CONFLICT(user_id) DO UPDATE SET order_placed = excluded.order_placed, outbid = excluded.outbid,
	    auction_won = excluded.auction_won, order_status = excluded.order_status`,
		s.UserID, s.OrderPlaced, s.Outbid, s.AuctionWon, s.OrderStatus)
	return err
}

type NotificationLog struct {
	ID        string `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"user_id"`
	Kind      string `db:"kind" json:"kind"`
	Outcome   string `db:"outcome" json:"outcome"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

func (r *NotificationRepo) Log(ctx context.Context, l NotificationLog) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO notification_logs(id, user_id, kind, outcome, created_at) VALUES(?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Kind, l.Outcome, l.CreatedAt)
	return err
}

func (r *NotificationRepo) Logs(ctx context.Context, limit int) ([]NotificationLog, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []NotificationLog{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, user_id, kind, outcome, created_at FROM notification_logs
	  ORDER BY created_at DESC, id LIMIT ?`, limit)
	return out, err
}
