package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/propmatch/internal/config"
)

// Connection holds the database connection
type Connection struct {
	DB     *sql.DB
	Driver string
}

// NewConnection opens a database connection using environment configuration.
// DB_DRIVER selects the backend: "postgres" (default) or "sqlite" for local
// development and testing.
func NewConnection() (*Connection, error) {
	driver := config.GetEnv("DB_DRIVER", "postgres")

	switch driver {
	case "postgres":
		return NewPostgres(postgresDSN())
	case "sqlite":
		return NewSQLite(config.GetEnv("DB_PATH", "propmatch.db"))
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}
}

// NewPostgres opens a Postgres connection with pool settings applied.
func NewPostgres(dsn string) (*Connection, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)

	return &Connection{DB: db, Driver: "postgres"}, nil
}

// NewSQLite opens a sqlite database at the given path (":memory:" for tests).
func NewSQLite(path string) (*Connection, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	// sqlite handles a single writer; keep the pool small
	db.SetMaxOpenConns(1)

	return &Connection{DB: db, Driver: "sqlite"}, nil
}

func postgresDSN() string {
	if dsn := config.GetEnv("DB_URL", ""); dsn != "" {
		return dsn
	}

	host := config.GetEnv("PGHOST", "localhost")
	port := config.GetEnv("PGPORT", "5432")
	user := config.GetEnv("PGUSER", "postgres")
	password := config.GetEnv("PGPASSWORD", "postgres")
	dbname := config.GetEnv("PGDATABASE", "propmatch")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.DB.Close()
}
