package backend

import (
	"context"
	"errors"
	"fmt"

	"bankdash/internal/amqp"
	"bankdash/internal/dashboard"
	"bankdash/internal/log"
	"bankdash/internal/session"
	"bankdash/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend builds the token store for config.Type and, when AMQP is
// configured, an activity publisher. A broker that cannot be reached at
// startup downgrades to a no-op publisher.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result   = &BackendResult{}
		cleanups []func() error
	)

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		result.Tokens = repo
		result.Pinger = repo
		cleanups = append(cleanups, repo.Close)
		f.logger.InfoContext(ctx, "Initialized SQLite session backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		result.Tokens = session.NewMemoryStore()
		f.logger.InfoContext(ctx, "Initialized memory session backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result.Publisher = dashboard.NopPublisher{}
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without activity events", log.FieldError, err)
		} else {
			result.Publisher = client
			cleanups = append(cleanups, client.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			errs = append(errs, cleanups[i]())
		}
		return errors.Join(errs...)
	}
	return result, nil
}
