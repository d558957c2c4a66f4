package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Client holds the database client
type Client struct {
	Bun *bun.DB
	db  *sql.DB // Underlying database for pool stats
}

// PoolConfig holds connection pool configuration
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns pool settings suited to a single SQLite file.
// Idle connections are never reaped so shared in-memory databases survive.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}
}

// BuildDSN builds a go-sqlite3 DSN for a database file with foreign keys,
// WAL journaling and a busy timeout enabled.
func BuildDSN(path string, busyTimeout time.Duration) string {
	query := url.Values{}
	query.Set("_fk", "1")
	query.Set("_journal_mode", "WAL")
	query.Set("_busy_timeout", strconv.FormatInt(busyTimeout.Milliseconds(), 10))
	return "file:" + path + "?" + query.Encode()
}

// NewClient opens the SQLite database at path, creating its directory if
// needed, and applies migrations.
func NewClient(ctx context.Context, path string) (*Client, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed creating database directory: %w", err)
		}
	}
	return Open(ctx, BuildDSN(path, 5*time.Second), DefaultPoolConfig())
}

// Open opens a database from a raw DSN and applies migrations.
func Open(ctx context.Context, dsn string, poolCfg PoolConfig) (*Client, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed opening connection to sqlite: %w", err)
	}

	sqldb.SetMaxOpenConns(poolCfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(poolCfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(poolCfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(poolCfg.ConnMaxIdleTime)

	client := &Client{
		Bun: bun.NewDB(sqldb, sqlitedialect.New()),
		db:  sqldb,
	}

	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed creating schema resources: %w", err)
	}

	return client, nil
}

// OpenInMemory opens a named shared in-memory database on a single
// connection. Used by tests.
func OpenInMemory(ctx context.Context, name string) (*Client, error) {
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	return Open(ctx, "file:"+name+"?mode=memory&cache=shared&_fk=1", PoolConfig{
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.Bun.Close()
}

// Ping checks if the database is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.Bun.PingContext(ctx)
}

// Stats returns database connection pool statistics
func (c *Client) Stats() sql.DBStats {
	return c.db.Stats()
}
