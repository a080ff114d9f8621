package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankdash/internal/amqp"
	"bankdash/internal/log"
	"bankdash/internal/storage"
)

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "audit.db"), log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestHandleActivityPersists(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	w := NewAuditWorker(repo, log.Discard())

	ok := amqp.NewActivityMessage(amqp.KindTransfer, "s1", "A1", "25.5", nil)
	failed := amqp.NewActivityMessage(amqp.KindSetPrimary, "s1", "A2", "", errors.New("bank api: 500"))
	failed.Timestamp = ok.Timestamp.Add(time.Second)

	require.NoError(t, w.HandleActivity(ctx, ok))
	require.NoError(t, w.HandleActivity(ctx, failed))
	require.NoError(t, w.HandleActivity(ctx, ok), "redelivery is not an error")

	entries, err := repo.RecentActivity(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, failed.ID, entries[0].ID)
	assert.Equal(t, amqp.OutcomeFailure, entries[0].Outcome)
	assert.Equal(t, "bank api: 500", entries[0].Detail)
	assert.Equal(t, "25.5", entries[1].Amount)

	s, err := w.Summarize(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Failures)
	assert.Equal(t, 1, s.ByKind[amqp.KindTransfer])
}

func TestHandleActivityDropsIncompleteMessages(t *testing.T) {
	repo := newRepo(t)
	w := NewAuditWorker(repo, log.Discard())

	assert.NoError(t, w.HandleActivity(context.Background(), nil))
	assert.NoError(t, w.HandleActivity(context.Background(), &amqp.ActivityMessage{ID: "x"}))

	entries, err := repo.RecentActivity(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type failingStore struct{}

func (failingStore) RecordActivity(context.Context, storage.Activity) error {
	return errors.New("database is locked")
}

func (failingStore) RecentActivity(context.Context, int) ([]storage.Activity, error) {
	return nil, errors.New("database is locked")
}

func TestHandleActivityReturnsStorageErrors(t *testing.T) {
	w := NewAuditWorker(failingStore{}, log.Discard())

	err := w.HandleActivity(context.Background(), amqp.NewActivityMessage(amqp.KindAddAccount, "s", "", "", nil))
	assert.ErrorContains(t, err, "database is locked")

	_, err = w.Summarize(context.Background(), 5)
	assert.Error(t, err)
}

func TestRunSummariesStopsWithContext(t *testing.T) {
	w := NewAuditWorker(newRepo(t), log.Discard())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.RunSummaries(ctx, 5*time.Millisecond, 10)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunSummaries did not return after cancel")
	}
}
