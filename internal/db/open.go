package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Config chooses between a local sqlite file and a remote libsql database.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (c Config) Validate() error {
	if c.File == "" && c.Url == "" {
		return fmt.Errorf("database: either file or url must be specified")
	}
	return nil
}

// Open opens the configured database and applies all pending migrations.
func Open(config Config) (*sql.DB, error) {
	db, err := openRaw(config)
	if err != nil {
		return nil, err
	}
	err = Migrate(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openRaw(config Config) (*sql.DB, error) {
	if config.Url == "" {
		err := config.Validate()
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("sqlite", config.File)
		if err != nil {
			return nil, err
		}
		// sqlite only supports a single writer, this also serializes
		// identity lookups with the insert that follows them.
		db.SetMaxOpenConns(1)
		if config.File != ":memory:" && !strings.Contains(config.File, "mode=memory") {
			_, err = db.Exec("PRAGMA journal_mode = WAL")
			if err != nil {
				db.Close()
				return nil, fmt.Errorf("enable wal: %w", err)
			}
		}
		return db, nil
	}

	values := url.Values{}
	if config.AuthToken != "" {
		values.Add("authToken", config.AuthToken)
	}
	dsn := config.Url
	if len(values) > 0 {
		dsn += "?" + values.Encode()
	}
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Migrate brings the schema of db up to date.
func Migrate(db *sql.DB) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return err
	}
	// m.Close() is not called since it would also close db.
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
