// Package worker turns activity events from the broker into audit log rows.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bankdash/internal/amqp"
	"bankdash/internal/log"
	"bankdash/internal/storage"
)

// ActivityStore is the part of the repository the audit worker writes to.
type ActivityStore interface {
	RecordActivity(ctx context.Context, a storage.Activity) error
	RecentActivity(ctx context.Context, limit int) ([]storage.Activity, error)
}

var errIncompleteMessage = errors.New("activity message without id or kind")

// AuditWorker persists every activity message it is handed.
type AuditWorker struct {
	store  ActivityStore
	logger *log.Logger
}

func NewAuditWorker(store ActivityStore, logger *log.Logger) *AuditWorker {
	if logger == nil {
		logger = log.Default()
	}
	return &AuditWorker{store: store, logger: logger.WithComponent(log.ComponentAudit)}
}

// HandleActivity records msg. Messages missing an id or kind are logged and
// dropped; a storage failure is returned so the broker redelivers.
func (w *AuditWorker) HandleActivity(ctx context.Context, msg *amqp.ActivityMessage) error {
	if msg == nil || msg.ID == "" || msg.Kind == "" {
		w.logger.WarnContext(ctx, "Dropping activity message", log.FieldError, errIncompleteMessage)
		return nil
	}

	occurred := msg.Timestamp
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}

	err := w.store.RecordActivity(ctx, storage.Activity{
		ID:         msg.ID,
		Kind:       msg.Kind,
		SessionID:  msg.SessionID,
		AccountID:  msg.AccountID,
		Amount:     msg.Amount,
		Outcome:    msg.Outcome,
		Detail:     msg.Detail,
		OccurredAt: occurred,
	})
	if err != nil {
		return fmt.Errorf("persist activity %s: %w", msg.ID, err)
	}

	w.logger.DebugContext(ctx, "Activity recorded",
		log.FieldActivityID, msg.ID,
		log.FieldOperation, msg.Kind,
		log.FieldOutcome, msg.Outcome)
	return nil
}

// Summary counts the most recent audit entries by outcome.
type Summary struct {
	Total    int
	Failures int
	ByKind   map[string]int
}

// Summarize reads up to limit recent entries and logs their breakdown.
func (w *AuditWorker) Summarize(ctx context.Context, limit int) (Summary, error) {
	entries, err := w.store.RecentActivity(ctx, limit)
	if err != nil {
		return Summary{}, fmt.Errorf("read recent activity: %w", err)
	}

	s := Summary{Total: len(entries), ByKind: make(map[string]int)}
	for _, e := range entries {
		s.ByKind[e.Kind]++
		if e.Outcome == amqp.OutcomeFailure {
			s.Failures++
		}
	}

	w.logger.InfoContext(ctx, "Recent activity",
		"entries", s.Total,
		"failures", s.Failures,
		amqp.KindTransfer, s.ByKind[amqp.KindTransfer],
		amqp.KindSetPrimary, s.ByKind[amqp.KindSetPrimary],
		amqp.KindAddAccount, s.ByKind[amqp.KindAddAccount])
	return s, nil
}

// RunSummaries calls Summarize every interval until ctx is done.
func (w *AuditWorker) RunSummaries(ctx context.Context, interval time.Duration, limit int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Summarize(ctx, limit); err != nil {
				w.logger.ErrorContext(ctx, "Periodic summary failed", log.FieldError, err)
			}
		}
	}
}
