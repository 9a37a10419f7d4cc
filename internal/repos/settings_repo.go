package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// KVRepo reads and writes one of the key/value settings tables.
type KVRepo struct {
	db    Querier
	table string
}

func NewSettingsRepo(db *sqlx.DB) *KVRepo { return &KVRepo{db: db, table: "settings"} }

func NewAISettingsRepo(db *sqlx.DB) *KVRepo { return &KVRepo{db: db, table: "ai_settings"} }

func (r *KVRepo) WithTx(tx *sqlx.Tx) *KVRepo { return &KVRepo{db: tx, table: r.table} }

func (r *KVRepo) All(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT key, value FROM `+r.table); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, kv := range rows {
		out[kv.Key] = kv.Value
	}
	return out, nil
}

func (r *KVRepo) Put(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO `+r.table+`(key, value, updated_at) VALUES(?, ?, ?)
	  ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, TS(time.Now()))
	return err
}

func (r *KVRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE key = ?`, key)
	return err
}
