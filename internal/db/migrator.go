package db

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for goose
	"github.com/pressly/goose/v3"

	"github.com/medunigraz/idmsync/internal/config"
	"github.com/medunigraz/idmsync/internal/db/dsn"
)

const MigrationTable = "goose_db_version"

var ErrUnsupportedMigration = errors.New("unsupported migration")

type migrateFunc func(ctx context.Context, db *sql.DB, dir string) error

type migrator struct {
	dsn string
	dir string
}

type Migrator interface {
	MigrateToLatest(ctx context.Context, downgrade bool) error
	MigrateTo(ctx context.Context, downgrade bool, version int64) error
}

func NewMigrator(cfg *config.Config) (Migrator, error) {
	dsn, err := dsn.FromDBConfig(cfg.Database)
	if err != nil {
		return nil, err
	}

	return &migrator{
		dsn: dsn,
		dir: cfg.Database.Migrations,
	}, nil
}

// MigrateToLatest runs all pending migrations, or with downgrade set rolls
// back the most recent one.
func (m *migrator) MigrateToLatest(ctx context.Context, downgrade bool) error {
	return m.migrate(ctx, func(ctx context.Context, db *sql.DB, dir string) error {
		if downgrade {
			return goose.DownContext(ctx, db, dir)
		}
		return goose.UpContext(ctx, db, dir)
	})
}

// MigrateTo migrates up to a specific version, or with downgrade set
// downgrades until the DB is at the specified version.
func (m *migrator) MigrateTo(ctx context.Context, downgrade bool, version int64) error {
	return m.migrate(ctx, func(ctx context.Context, db *sql.DB, dir string) error {
		if downgrade {
			return goose.DownToContext(ctx, db, dir, version)
		}
		return goose.UpToContext(ctx, db, dir, version)
	})
}

func (m *migrator) migrate(ctx context.Context, f migrateFunc) error {
	db, err := goose.OpenDBWithDriver("pgx", m.dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetTableName(MigrationTable)

	return f(ctx, db, m.dir)
}
