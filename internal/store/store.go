// =============================================================================
// POS Scenario Synthesizer - Relational Store
// =============================================================================
//
// This module is the persistence side of a run. It reads the catalog with
// three SELECT queries and writes the generated headers and lines back in
// chunks, one database transaction per chunk.
//
// SUPPORTED DIALECTS:
//   - mysql     (the analytics database)
//   - postgres
//   - sqlite    (local runs and tests)
//
// Output table names come from the configuration, so every statement goes
// through db.Table(name) rather than a fixed model table.
//
// =============================================================================

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ginjaninja78/pos-scenario-synth/internal/config"
)

// Dialect names accepted in database.dialect.
const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

var (
	// ErrUnsupportedDialect is returned for an unknown database.dialect.
	ErrUnsupportedDialect = errors.New("unsupported database dialect")

	// ErrNotEmpty is returned by EnsureEmpty when the output tables hold rows.
	ErrNotEmpty = errors.New("output tables are not empty")
)

// Store wraps a gorm connection and the output table layout.
type Store struct {
	db        *gorm.DB
	dialect   string
	headers   string
	lines     string
	chunkSize int
	log       zerolog.Logger
}

// =============================================================================
// CONNECTION
// =============================================================================

// Open connects to the configured database and pings it. A failed ping is
// returned as an error; callers treat it as fatal.
func Open(ctx context.Context, dbCfg config.DatabaseConfig, out config.OutputConfig, log zerolog.Logger) (*Store, error) {
	dialector, err := dialectorFor(dbCfg.Dialect, dbCfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, classify("connect", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, classify("ping", err)
	}

	log.Debug().Str("dialect", dbCfg.Dialect).Msg("connected to database")
	return New(db, dbCfg.Dialect, out, log), nil
}

// New wraps an existing gorm connection.
func New(db *gorm.DB, dialect string, out config.OutputConfig, log zerolog.Logger) *Store {
	chunk := out.ChunkSize
	if chunk <= 0 {
		chunk = config.DefaultChunkSize
	}
	return &Store{
		db:        db,
		dialect:   dialect,
		headers:   out.HeadersTable,
		lines:     out.LinesTable,
		chunkSize: chunk,
		log:       log,
	}
}

func dialectorFor(dialect, dsn string) (gorm.Dialector, error) {
	switch dialect {
	case DialectMySQL:
		return mysql.Open(dsn), nil
	case DialectPostgres:
		return postgres.Open(dsn), nil
	case DialectSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB exposes the gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Dialect returns the configured dialect name.
func (s *Store) Dialect() string {
	return s.dialect
}

// =============================================================================
// SCHEMA
// =============================================================================

// AutoMigrate creates or updates the output tables.
func (s *Store) AutoMigrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.Table(s.headers).AutoMigrate(&HeaderRow{}); err != nil {
		return classify("migrate "+s.headers, err)
	}
	if err := db.Table(s.lines).AutoMigrate(&LineRow{}); err != nil {
		return classify("migrate "+s.lines, err)
	}
	s.log.Info().Str("headers", s.headers).Str("lines", s.lines).Msg("output tables migrated")
	return nil
}

// Counts returns the number of rows in the header and line tables.
func (s *Store) Counts(ctx context.Context) (headers, lines int64, err error) {
	db := s.db.WithContext(ctx)
	if err := db.Table(s.headers).Count(&headers).Error; err != nil {
		return 0, 0, classify("count "+s.headers, err)
	}
	if err := db.Table(s.lines).Count(&lines).Error; err != nil {
		return 0, 0, classify("count "+s.lines, err)
	}
	return headers, lines, nil
}

// EnsureEmpty fails with ErrNotEmpty when either output table has rows.
// Generated ids start at 1, so a run must not append to earlier data.
func (s *Store) EnsureEmpty(ctx context.Context) error {
	headers, lines, err := s.Counts(ctx)
	if err != nil {
		return err
	}
	if headers > 0 || lines > 0 {
		return fmt.Errorf("%w: %s has %d rows, %s has %d rows", ErrNotEmpty, s.headers, headers, s.lines, lines)
	}
	return nil
}
