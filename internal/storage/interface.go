/*
Package storage implements the persistent store of the bot: users, their
faculty applications and the history of produced recommendations.

SQLite (modernc.org/sqlite, pure Go) is the default backend; PostgreSQL is
available through the pgx stdlib driver. Queries are built with squirrel so
the same code serves both placeholder styles.
*/
package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("storage: not found")

// Driver selects the database backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config selects and locates the database.
type Config struct {
	Driver string `koanf:"driver"`
	Path   string `koanf:"path"`
	DSN    string `koanf:"dsn"`
}

// Storage defines the persistent storage operations.
type Storage interface {
	// Init opens the database and runs migrations.
	Init(ctx context.Context) error

	// UpsertUser creates a user or refreshes the profile names of an existing one.
	UpsertUser(ctx context.Context, u User) (User, error)

	// FindUserByExternalID looks a user up by messenger account id.
	FindUserByExternalID(ctx context.Context, externalID int64) (User, error)

	// UpdateContacts stores phone and e-mail of a user.
	UpdateContacts(ctx context.Context, userID int64, phone, email string) error

	// AddApplication records an application; repeated calls for the same
	// user and faculty return the existing row with created=false.
	AddApplication(ctx context.Context, userID int64, facultyCode string) (app Application, created bool, err error)

	// ListApplicationsByUser returns a user's applications, oldest first.
	ListApplicationsByUser(ctx context.Context, userID int64) ([]Application, error)

	// RecordRecommendation appends to the recommendation history.
	RecordRecommendation(ctx context.Context, rec RecommendationRecord) error

	// RecommendationStats counts recommendations since a given time.
	RecommendationStats(ctx context.Context, since time.Time) ([]FacultyCount, error)

	// Close closes the database connection.
	Close() error
}

// SQLStorage implements Storage over database/sql.
type SQLStorage struct {
	db       *sql.DB
	driver   Driver
	dsn      string
	sb       sq.StatementBuilderType
	mu       sync.Mutex
	initOnce sync.Once
}

// New creates a storage for the configured backend. The database is not
// opened until Init.
func New(cfg Config) (*SQLStorage, error) {
	switch Driver(cfg.Driver) {
	case DriverSQLite, "":
		if cfg.Path == "" {
			return nil, errors.New("storage: sqlite path is empty")
		}
		return &SQLStorage{driver: DriverSQLite, dsn: cfg.Path, sb: builderFor(DriverSQLite)}, nil
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, errors.New("storage: postgres dsn is empty")
		}
		return &SQLStorage{driver: DriverPostgres, dsn: cfg.DSN, sb: builderFor(DriverPostgres)}, nil
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.Driver)
	}
}

// NewWithDB wraps an already opened database.
func NewWithDB(db *sql.DB, driver Driver) *SQLStorage {
	return &SQLStorage{db: db, driver: driver, sb: builderFor(driver)}
}

func builderFor(driver Driver) sq.StatementBuilderType {
	if driver == DriverPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// Init opens the database and runs migrations. It runs once.
func (s *SQLStorage) Init(ctx context.Context) error {
	var initErr error
	s.initOnce.Do(func() {
		if s.db == nil {
			db, err := s.open()
			if err != nil {
				initErr = err
				return
			}
			s.db = db
		}

		if err := s.db.PingContext(ctx); err != nil {
			initErr = fmt.Errorf("failed to ping database: %w", err)
			return
		}

		if err := s.runMigrations(ctx); err != nil {
			initErr = fmt.Errorf("failed to run migrations: %w", err)
		}
	})
	return initErr
}

func (s *SQLStorage) open() (*sql.DB, error) {
	if s.driver == DriverPostgres {
		db, err := sql.Open("pgx", s.dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.dsn), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", s.dsn+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	return db, nil
}

// Close closes the database connection.
func (s *SQLStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.db = nil
	return nil
}

// HashChat creates a SHA256 hash of a chat id for privacy.
func HashChat(chatID int64) string {
	hash := sha256.Sum256([]byte(strconv.FormatInt(chatID, 10)))
	return hex.EncodeToString(hash[:])
}

// timeLayout has fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
