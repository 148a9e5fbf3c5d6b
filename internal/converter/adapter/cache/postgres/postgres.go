package postgres

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/langowen/converter/deploy/config"
	"github.com/pkg/errors"
)

// DB is the part of pgxpool.Pool the cache needs.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

type Storage struct {
	db  DB
	now func() time.Time
}

func NewStorage(db DB) *Storage {
	return &Storage{
		db:  db,
		now: time.Now,
	}
}

// DSN builds a postgres:// url, credentials are escaped.
func DSN(cfg config.Storage) string {
	return storageURL("postgres", cfg)
}

// MigrationURL builds the pgx5:// url golang-migrate expects.
func MigrationURL(cfg config.Storage) string {
	return storageURL("pgx5", cfg)
}

func storageURL(scheme string, cfg config.Storage) string {
	u := url.URL{
		Scheme: scheme,
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.DBName,
	}

	q := u.Query()
	q.Set("sslmode", cfg.SSLMode)
	q.Set("search_path", cfg.Schema)
	u.RawQuery = q.Encode()

	return u.String()
}

func InitStorage(ctx context.Context, cfg config.Storage) (*Storage, error) {
	const op = "storage.postgres.InitStorage"

	poolConfig, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 10 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, op)
	}

	if err = Migrate(MigrationURL(cfg)); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, op)
	}

	return NewStorage(pool), nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const op = "storage.postgres.Get"

	var value []byte
	err := s.db.QueryRow(ctx,
		`SELECT value FROM cache_entries WHERE key = $1 AND expires_at > $2`,
		key, s.now(),
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, op)
	}

	return value, true, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	const op = "storage.postgres.Set"

	_, err := s.db.Exec(ctx, `
		INSERT INTO cache_entries (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
	`, key, value, s.now().Add(ttl))
	if err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}

// DeleteExpired removes stale rows and reports how many were dropped.
func (s *Storage) DeleteExpired(ctx context.Context) (int64, error) {
	const op = "storage.postgres.DeleteExpired"

	tag, err := s.db.Exec(ctx, `DELETE FROM cache_entries WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, errors.Wrap(err, op)
	}

	return tag.RowsAffected(), nil
}

func (s *Storage) Close() {
	s.db.Close()
}
