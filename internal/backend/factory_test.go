package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankdash/internal/config"
	"bankdash/internal/dashboard"
	"bankdash/internal/log"
	"bankdash/internal/session"
	"bankdash/internal/storage"
)

func TestCreateMemoryBackend(t *testing.T) {
	res, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	defer res.Close()

	assert.IsType(t, &session.MemoryStore{}, res.Tokens)
	assert.IsType(t, dashboard.NopPublisher{}, res.Publisher)
	assert.Nil(t, res.Pinger)
}

func TestCreateSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bankdash.db")
	res, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)

	assert.IsType(t, &storage.SQLiteRepository{}, res.Tokens)
	require.NotNil(t, res.Pinger)
	assert.NoError(t, res.Pinger.Ping(context.Background()))
	assert.NoError(t, res.Close())
}

func TestCreateBackendRejectsUnknownType(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: "sheets"})
	assert.Error(t, err)
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{SessionBackend: "sqlite", SQLiteDBPath: "x.db", AMQPQueue: "activity"})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "activity", cfg.AMQPQueue)
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
}
