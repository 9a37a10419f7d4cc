package repos

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	applog "superloja/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx.
type Querier interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const tsLayout = "2006-01-02 15:04:05"

// TS formats t the way CURRENT_TIMESTAMP does so text comparisons order correctly.
func TS(t time.Time) string { return t.UTC().Format(tsLayout) }

// ParseTS reads a timestamp written by TS or CURRENT_TIMESTAMP.
func ParseTS(s string) (time.Time, error) {
	if t, err := time.Parse(tsLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func OpenDB(dsn string) (*sqlx.DB, error) {
	memory := dsn == ":memory:"
	if !memory && !strings.Contains(dsn, "?") {
		dsn = "file:" + dsn + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if memory {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			return nil, err
		}
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := Migrate(context.Background(), db); err != nil {
		return nil, err
	}
	// Seed baseline data if DB is empty (categories/products)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(ctx context.Context, db *sqlx.DB) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(applog.Std())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db.DB, "migrations")
}

// IsBusy reports whether err is SQLite refusing a write because another one holds the lock.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "SQLITE_BUSY") || strings.Contains(s, "database is locked")
}

// InTx runs fn inside one transaction, retrying the whole unit when SQLite reports a lock.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	return retry.Do(
		func() error {
			tx, err := db.BeginTxx(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback() }()
			if err := fn(tx); err != nil {
				return err
			}
			return tx.Commit()
		},
		retry.Attempts(6),
		retry.Delay(10*time.Millisecond),
		retry.MaxJitter(10*time.Millisecond),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsBusy),
		retry.Context(ctx),
	)
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.Std().Info("seed.catalog")

	now := time.Now().UTC()
	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO categories(id,name) VALUES
	  ('eletronicos','Eletrônicos'),
	  ('casa','Casa e Cozinha'),
	  ('moda','Moda'),
	  ('colecionaveis','Colecionáveis')`)

	tx.MustExec(`INSERT INTO products(id,category_id,name,description,price_cents,original_price_cents,stock_quantity) VALUES
	  ('fone-bt-01','eletronicos','Fone Bluetooth','Fone sem fio com cancelamento de ruído',19990,24990,25),
	  ('smartwatch-01','eletronicos','Smartwatch Fit','Relógio inteligente à prova d''água',34990,0,8),
	  ('panela-01','casa','Jogo de Panelas Inox','5 peças, fundo triplo',45900,52900,4),
	  ('tenis-01','moda','Tênis Casual','Couro legítimo',29990,0,12)`)

	tx.MustExec(`INSERT INTO products(id,category_id,name,description,price_cents,stock_quantity,
	    is_auction,starting_bid_cents,bid_increment_cents,auction_start,auction_end,auction_status)
	  VALUES ('relogio-vintage','colecionaveis','Relógio de Bolso Vintage','Peça de 1920, funcionando',
	    0,1,1,100000,5000,?,?,'active')`,
		TS(now.Add(-time.Hour)), TS(now.Add(7*24*time.Hour)))

	return tx.Commit()
}

// seedUsers ensures one admin and two customers exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-admin", "admin@superloja.test", "Admin", "admin", "Passw0rd!"),
		mk("u-ana", "ana@superloja.test", "Ana", "customer", "Passw0rd!"),
		mk("u-bruno", "bruno@superloja.test", "Bruno", "customer", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO profiles(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
