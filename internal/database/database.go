package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ DB = (*Client)(nil) // Ensure Client implements DB

var (
	// ErrStorage wraps every failure of the underlying store.
	ErrStorage = errors.New("storage error")
	// ErrNotFound is returned when a user lookup has no match.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned when creating a user whose name already exists.
	ErrUsernameTaken = errors.New("username already taken")
)

// Client wraps the gorm.DB instance.
type Client struct {
	db    *gorm.DB
	clock *Clock
}

// Option configures a Client.
type Option func(*Client)

// WithClock replaces the timestamp source of the client.
func WithClock(clock *Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// New creates a new database connection and performs migrations.
// The backend is chosen from the DSN, see Dialector.
func New(dsn string, opts ...Option) (*Client, error) {
	db, err := gorm.Open(Dialector(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if !IsPostgresDSN(dsn) {
		// sqlite allows a single writer, serialize on one connection instead of failing with SQLITE_BUSY
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return newClient(db, opts...)
}

// NewWithConn builds a postgres backed client on top of an existing connection.
// No migrations are run.
func NewWithConn(conn *sql.DB) (*Client, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn: conn,
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return &Client{db: db, clock: NewClock()}, nil
}

func newClient(db *gorm.DB, opts ...Option) (*Client, error) {
	if err := db.AutoMigrate(
		&User{},
		&MetricSample{},
		&DreamRecord{},
		&ChatMessage{},
		&UserSettings{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	client := &Client{db: db, clock: NewClock()}
	for _, opt := range opts {
		opt(client)
	}

	// keep insertion order across restarts even if the wall clock went backwards
	latest, err := latestTimestamp(db)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest timestamp: %w", err)
	}
	client.clock.Observe(latest)

	return client, nil
}

// latestTimestamp returns the newest timestamp of any stored record.
func latestTimestamp(db *gorm.DB) (time.Time, error) {
	var latest time.Time
	for _, src := range []struct {
		model  any
		column string
	}{
		{&User{}, "created_at"},
		{&MetricSample{}, "timestamp"},
		{&DreamRecord{}, "timestamp"},
		{&ChatMessage{}, "timestamp"},
	} {
		var ts []time.Time
		if err := db.Model(src.model).Order(src.column + " DESC").Limit(1).Pluck(src.column, &ts).Error; err != nil {
			return time.Time{}, err
		}
		if len(ts) > 0 && ts[0].After(latest) {
			latest = ts[0]
		}
	}
	return latest, nil
}

// Dialector returns the gorm dialector for dsn.
// postgres:// and postgresql:// URLs are opened through lib/pq, everything else is a sqlite path.
func Dialector(dsn string) gorm.Dialector {
	if IsPostgresDSN(dsn) {
		return postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        dsn,
		})
	}
	return sqlite.Open(dsn)
}

// IsPostgresDSN reports whether dsn points to a postgres server.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// isDuplicateKey reports unique constraint violations from either backend.
// gorm only translates pgx errors, lib/pq errors are checked by code.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// normalizeLimit returns def for non positive limits.
func normalizeLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
