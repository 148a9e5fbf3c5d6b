package postgres

import (
	"embed"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the cache schema. url uses the pgx5:// scheme.
func Migrate(url string) error {
	const op = "storage.postgres.Migrate"

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, op)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return errors.Wrap(err, op)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_, _ = m.Close()
		return errors.Wrap(err, op)
	}

	srcErr, dbErr := m.Close()
	if srcErr != nil {
		return errors.Wrap(srcErr, op)
	}
	if dbErr != nil {
		return errors.Wrap(dbErr, op)
	}

	return nil
}
