package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankdash/internal/log"
	"bankdash/internal/session"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "bankdash.db"), log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

var _ session.TokenStore = (*SQLiteRepository)(nil)

func TestTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	id := session.NewID()

	_, err := repo.Token(ctx, id)
	assert.ErrorIs(t, err, session.ErrNoToken)

	require.NoError(t, repo.SaveToken(ctx, id, "first"))
	require.NoError(t, repo.SaveToken(ctx, id, "Bearer second"))

	tok, err := repo.Token(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "second", tok)

	require.NoError(t, repo.DeleteToken(ctx, id))
	_, err = repo.Token(ctx, id)
	assert.ErrorIs(t, err, session.ErrNoToken)
}

func TestSaveEmptyTokenRejected(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.SaveToken(context.Background(), session.NewID(), "")
	assert.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestRecordActivityIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	first := Activity{ID: "a1", Kind: "transfer", SessionID: "s", AccountID: "A1", Amount: "10.00", Outcome: "success", OccurredAt: base}
	second := Activity{ID: "a2", Kind: "set_primary", SessionID: "s", AccountID: "A2", Outcome: "failure", Detail: "nope", OccurredAt: base.Add(time.Minute)}

	require.NoError(t, repo.RecordActivity(ctx, first))
	require.NoError(t, repo.RecordActivity(ctx, second))
	require.NoError(t, repo.RecordActivity(ctx, first))

	got, err := repo.RecentActivity(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a2", got[0].ID)
	assert.Equal(t, "nope", got[0].Detail)
	assert.Equal(t, "a1", got[1].ID)
	assert.True(t, got[1].OccurredAt.Equal(base))
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bankdash.db")
	id := session.NewID()

	repo, err := NewSQLiteRepository(path, log.Discard())
	require.NoError(t, err)
	require.NoError(t, repo.SaveToken(ctx, id, "tok"))
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path, log.Discard())
	require.NoError(t, err)
	defer repo.Close()

	tok, err := repo.Token(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
	assert.NoError(t, repo.Ping(ctx))
}
