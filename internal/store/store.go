// Package store provides storage backends for AthenaPipe.
//
// It includes an in-memory store for tests, an SQLite store for single-node
// deployments, and a PostgreSQL store for shared deployments. All backends
// persist student profiles and per-student session state.
package store

import (
	"log/slog"
	"strings"

	"github.com/AthenaAdvising/AthenaPipe/internal/models"
)

// Store is the persistence interface consumed by the conversation router.
type Store interface {
	// SaveStudent inserts or replaces a student profile.
	SaveStudent(p models.StudentProfile) error

	// GetStudent retrieves a profile by student id. Returns (nil, nil) when
	// the student is unknown.
	GetStudent(studentID string) (*models.StudentProfile, error)

	// ListStudents returns all known profiles.
	ListStudents() ([]models.StudentProfile, error)

	// SaveSession inserts or replaces per-student session state.
	SaveSession(s models.SessionState) error

	// GetSession retrieves session state by student id. Returns (nil, nil)
	// when no session exists yet.
	GetSession(studentID string) (*models.SessionState, error)

	// DeleteSession removes session state for a student.
	DeleteSession(studentID string) error

	// Close releases any underlying resources.
	Close() error
}

// Opts holds configuration for store backends.
type Opts struct {
	// DSN is the database connection string: a file path for SQLite or a
	// postgres:// URL / key=value DSN for PostgreSQL.
	DSN string
	// Driver forces a specific backend ("sqlite3" or "postgres"); when empty
	// the backend is detected from the DSN.
	Driver string
}

// Option configures store construction.
type Option func(*Opts)

// WithSQLiteDSN configures an SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
		o.Driver = "sqlite3"
	}
}

// WithPostgresDSN configures a PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
		o.Driver = "postgres"
	}
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite" based on its shape.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// NewStore builds a store from options. With no DSN configured it falls back
// to the in-memory store.
func NewStore(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	switch {
	case cfg.DSN == "":
		slog.Debug("store.NewStore: no DSN configured, using in-memory store")
		return NewInMemoryStore(), nil
	case cfg.Driver == "postgres" || (cfg.Driver == "" && DetectDSNType(cfg.DSN) == "postgres"):
		slog.Debug("store.NewStore: using PostgreSQL store", "dsn_set", true)
		return NewPostgresStore(opts...)
	default:
		slog.Debug("store.NewStore: using SQLite store", "db_path", cfg.DSN)
		return NewSQLiteStore(opts...)
	}
}
