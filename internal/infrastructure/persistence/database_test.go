package persistence

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wmsexpress/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDatabase creates a Database backed by sqlmock with the postgres dialect
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	db, err := newDatabase(gormDB)
	require.NoError(t, err)
	return db, mock, mockDB
}

func sqliteConfig(t *testing.T) *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "wms.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
}

type recordingPlugin struct {
	called bool
	err    error
}

func (p *recordingPlugin) Register(*gorm.DB) error {
	p.called = true
	return p.err
}

func TestNewDatabase(t *testing.T) {
	t.Run("opens sqlite and registers plugins", func(t *testing.T) {
		plugin := &recordingPlugin{}
		db, err := NewDatabase(sqliteConfig(t), []Plugin{plugin})
		require.NoError(t, err)
		defer db.Close()

		assert.True(t, plugin.called)
		assert.NoError(t, db.Ping(context.Background()))
		assert.Equal(t, 1, db.Stats().MaxOpenConnections)
	})

	t.Run("applies options", func(t *testing.T) {
		gl := logger.Default.LogMode(logger.Warn)
		db, err := NewDatabase(sqliteConfig(t), nil, WithLogger(gl))
		require.NoError(t, err)
		defer db.Close()

		assert.Equal(t, gl, db.DB.Config.Logger)
	})

	t.Run("plugin failure", func(t *testing.T) {
		_, err := NewDatabase(sqliteConfig(t), []Plugin{&recordingPlugin{err: errors.New("boom")}})
		require.Error(t, err)
		assert.ErrorContains(t, err, "boom")
		assert.Contains(t, err.Error(), "failed to register database plugin")
	})

	t.Run("unsupported driver", func(t *testing.T) {
		_, err := NewDatabase(&config.DatabaseConfig{Driver: "mysql"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})
}

func TestDatabase_Ping(t *testing.T) {
	t.Run("successful ping", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectPing()
		assert.NoError(t, db.Ping(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed ping", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		assert.Error(t, db.Ping(context.Background()))
	})
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_LogStats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	core, recorded := observer.New(zapcore.DebugLevel)
	db.LogStats(zap.New(core))

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Database pool stats", entries[0].Message)
	assert.Contains(t, entries[0].ContextMap(), "open")
}
