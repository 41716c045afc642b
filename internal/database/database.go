package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonboulle/clockwork"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/qa-community/backend/internal/config"
	"github.com/emilythestrangee/qa-community/backend/internal/logging"
	"github.com/emilythestrangee/qa-community/backend/internal/models"
)

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error
	GetDB() *gorm.DB
}

type service struct {
	db   *gorm.DB
	name string
}

// Options tune how a connection is opened.
type Options struct {
	Clock    clockwork.Clock
	LogLevel logger.LogLevel
}

// New opens the database selected by cfg, migrates the schema and configures the pool.
func New(cfg *config.Config, opts Options) (Service, error) {
	var (
		dialector gorm.Dialector
		name      string
	)
	switch cfg.DBDriver {
	case config.DriverSQLite:
		dialector = sqlite.Open(fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.SQLitePath))
		name = cfg.SQLitePath
	default:
		dialector = postgres.Open(cfg.PostgresDSN())
		name = cfg.DBName
	}

	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
		if !cfg.IsProduction() {
			opts.LogLevel = logger.Info
		}
	}

	db, err := Open(dialector, opts)
	if err != nil {
		return nil, err
	}

	if cfg.DBDriver == config.DriverSQLite {
		// sqlite allows a single writer; queue writers in the pool instead of failing with SQLITE_BUSY
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	return &service{db: db, name: name}, nil
}

// Wrap exposes an already open connection as a Service.
func Wrap(db *gorm.DB, name string) Service {
	return &service{db: db, name: name}
}

// Open connects through dialector, migrates and configures the pool.
func Open(dialector gorm.Dialector, opts Options) (*gorm.DB, error) {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	// Configure GORM logger
	gormLogger := logger.Discard
	if opts.LogLevel != logger.Silent {
		gormLogger = logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  opts.LogLevel,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return clock.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	logging.Logger.Info("Database connected", "dialect", dialector.Name())

	if err := Migrate(db); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Question{},
		&models.Answer{},
		&models.Vote{},
		&models.UserStats{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logging.Logger.Debug("Database migrations completed")
	return nil
}

func (s *service) GetDB() *gorm.DB {
	return s.db
}

// Health checks the health of the database connection by pinging the database.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats := make(map[string]string)

	sqlDB, err := s.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db error: %v", err)
		return stats
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)

	return stats
}

// Close closes the database connection.
func (s *service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	logging.Logger.Info("Disconnected from database", "database", s.name)
	return sqlDB.Close()
}

// IsConflict reports whether err is a write collision that is safe to retry:
// duplicate keys from racing inserts, postgres serialization failures and deadlocks,
// and sqlite lock contention.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, models.ErrConflictingWrite) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505", "55P03":
			return true
		}
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// ForUpdate reports whether the dialect supports SELECT ... FOR UPDATE row locks.
func ForUpdate(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// Locked adds FOR UPDATE to the next query where the dialect supports it. On
// sqlite the single connection already serializes writers.
func Locked(tx *gorm.DB) *gorm.DB {
	if ForUpdate(tx) {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// WrapConflict marks a retryable storage collision as models.ErrConflictingWrite
// and returns every other error unchanged.
func WrapConflict(err error) error {
	if err == nil || errors.Is(err, models.ErrConflictingWrite) || !IsConflict(err) {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrConflictingWrite, err)
}
