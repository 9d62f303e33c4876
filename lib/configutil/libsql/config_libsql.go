package configlibsql

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Struct configures a database that is either a local sqlite file or a
// remote libsql server.
type Struct struct {
	// Database is a file path, ":memory:" or a libsql:// (or http(s)://) url.
	Database string `json:"database" yaml:"database"`
	// AuthToken is only used for remote databases.
	AuthToken string `json:"auth_token" yaml:"auth_token"`
}

func (config Struct) remote() bool {
	return strings.HasPrefix(config.Database, "libsql://") ||
		strings.HasPrefix(config.Database, "https://") ||
		strings.HasPrefix(config.Database, "http://")
}

func (config Struct) openRemote() (*sql.DB, error) {
	dsn := config.Database
	if config.AuthToken != "" {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn = fmt.Sprintf("%s%sauthToken=%s", dsn, sep, config.AuthToken)
	}
	return sql.Open("libsql", dsn)
}

func (config Struct) openLocal() (*sql.DB, error) {
	if config.Database != ":memory:" {
		err := os.MkdirAll(filepath.Dir(config.Database), 0777)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", config.Database)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenDB opens the database and applies `schema`, the schema must be
// idempotent (CREATE ... IF NOT EXISTS).
func (config Struct) OpenDB(schema string) (*sql.DB, error) {
	if config.Database == "" {
		return nil, fmt.Errorf("a database was not specified")
	}

	var db *sql.DB
	var err error
	if config.remote() {
		db, err = config.openRemote()
	} else {
		db, err = config.openLocal()
	}
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if schema != "" {
		_, err = db.Exec(schema)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return db, nil
}
