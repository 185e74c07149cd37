package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wmsexpress/backend/internal/infrastructure/config"
)

// Database is an open catalog database
type Database struct {
	DB  *gorm.DB
	sql *sql.DB
}

// Option customizes the GORM configuration of a new Database
type Option func(*gorm.Config)

// WithLogger sets the GORM logger
func WithLogger(l logger.Interface) Option {
	return func(c *gorm.Config) { c.Logger = l }
}

// Plugin is registered on the connection after it is opened
type Plugin interface {
	Register(db *gorm.DB) error
}

// NewDatabase opens the database described by cfg, registers plugins, sizes
// the pool and verifies the connection. Nothing is left open on error.
func NewDatabase(cfg *config.DatabaseConfig, plugins []Plugin, opts ...Option) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN())
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gormCfg := &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	}
	for _, opt := range opts {
		opt(gormCfg)
	}

	gdb, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db, err := newDatabase(gdb)
	if err != nil {
		return nil, err
	}

	for _, p := range plugins {
		if err := p.Register(gdb); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to register database plugin: %w", err), db.Close())
		}
	}

	db.sql.SetMaxOpenConns(cfg.MaxOpenConns)
	db.sql.SetMaxIdleConns(cfg.MaxIdleConns)
	db.sql.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	db.sql.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := db.sql.Ping(); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to ping database: %w", err), db.Close())
	}
	return db, nil
}

func newDatabase(gdb *gorm.DB) (*Database, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return &Database{DB: gdb, sql: sqlDB}, nil
}

func (d *Database) Close() error {
	return d.sql.Close()
}

// Ping checks the connection; the health endpoint calls it per request.
func (d *Database) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// Stats returns the connection pool statistics
func (d *Database) Stats() sql.DBStats {
	return d.sql.Stats()
}

// LogStats writes the pool statistics at debug level
func (d *Database) LogStats(log *zap.Logger) {
	s := d.Stats()
	log.Debug("Database pool stats",
		zap.Int("max_open", s.MaxOpenConnections),
		zap.Int("open", s.OpenConnections),
		zap.Int("in_use", s.InUse),
		zap.Int("idle", s.Idle),
		zap.Int64("wait_count", s.WaitCount),
		zap.Duration("wait_duration", s.WaitDuration),
	)
}
