package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"superloja/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const profileCols = `id, email, name, password_hash, role, phone, address, city, state, zip_code, created_at, updated_at`

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	var u domain.Profile
	err := r.DB.GetContext(ctx, &u, `SELECT `+profileCols+` FROM profiles WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.Profile, error) {
	var u domain.Profile
	err := r.DB.GetContext(ctx, &u, `SELECT `+profileCols+` FROM profiles WHERE id=?`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, p domain.Profile) error {
	_, err := r.DB.ExecContext(ctx, `
	  INSERT INTO profiles(id, email, name, password_hash, role, phone, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, ?)`, p.ID, p.Email, p.Name, p.Hash, p.Role, p.Phone, TS(time.Now()))
	return err
}

func (r *UserRepo) UpdateContact(ctx context.Context, p domain.Profile) error {
	res, err := r.DB.ExecContext(ctx, `
	  UPDATE profiles
	  SET name = ?, phone = ?, address = ?, city = ?, state = ?, zip_code = ?, updated_at = ?
	  WHERE id = ?`, p.Name, p.Phone, p.Address, p.City, p.State, p.ZipCode, TS(time.Now()), p.ID)
	return affected(res, err)
}

func (r *UserRepo) ListCustomers(ctx context.Context) ([]domain.Profile, error) {
	out := []domain.Profile{}
	err := r.DB.SelectContext(ctx, &out, `SELECT `+profileCols+` FROM profiles WHERE role != 'admin' ORDER BY email`)
	return out, err
}

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,?)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=excluded.last_seen`, sid, userID, TS(time.Now()))
	return err
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.Profile, error) {
	var u domain.Profile
	err := r.DB.GetContext(ctx, &u, `
      SELECT u.id,u.email,u.name,u.password_hash,u.role,u.phone,u.address,u.city,u.state,u.zip_code,u.created_at,u.updated_at
      FROM sessions s
      JOIN profiles u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE sessions SET user_id=NULL,last_seen=? WHERE id=?`, TS(time.Now()), sid)
	return err
}

// DeleteUserCascade cancels the user's orders (kept for audit) and removes sessions and carts.
func (r *UserRepo) DeleteUserCascade(ctx context.Context, userID string) error {
	return InTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		var sessionIDs []string
		if err := tx.SelectContext(ctx, &sessionIDs, `SELECT id FROM sessions WHERE user_id=?`, userID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE orders SET status='cancelled' WHERE user_id=? AND status NOT IN ('delivered','cancelled')`, userID); err != nil {
			return err
		}
		if len(sessionIDs) > 0 {
			query, args, err := sqlx.In(`UPDATE orders SET status='cancelled' WHERE session_id IN (?) AND status NOT IN ('delivered','cancelled')`, sessionIDs)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
			query, args, err = sqlx.In(`DELETE FROM carts WHERE session_id IN (?)`, sessionIDs)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
			query, args, err = sqlx.In(`DELETE FROM sessions WHERE id IN (?)`, sessionIDs)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE user_id=?`, userID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE id=?`, userID)
		return affected(res, err)
	})
}
