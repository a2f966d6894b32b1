package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"climate-server/internal/config"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Open returns a read-only handle on the observation dataset. The file must
// already exist; nothing here creates or migrates a schema.
func Open(cfg config.Config) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.LogSQL {
		connector, err := NewLoggingConnector(cfg.Driver, dsn, slog.Default())
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		db = sql.OpenDB(connector)
	} else {
		db, err = sql.Open(cfg.Driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func buildDSN(cfg config.Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.Path == "" {
		return "", fmt.Errorf("db: empty SQLITE_PATH")
	}

	// The two drivers spell connection pragmas differently.
	var params []string
	switch cfg.Driver {
	case config.DriverMattn:
		params = []string{"mode=ro", "_busy_timeout=5000"}
	case config.DriverModernc:
		params = []string{"mode=ro", "_pragma=busy_timeout(5000)"}
	default:
		return "", fmt.Errorf("db: driver %q is not a sqlite driver", cfg.Driver)
	}

	path := cfg.Path
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}

	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
