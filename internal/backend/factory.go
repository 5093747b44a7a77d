package backend

import (
	"context"
	"errors"
	"fmt"

	"atm/internal/amqp"
	applog "atm/internal/log"
	"atm/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		repo storage.AccountRepository
		err  error
	)
	switch config.Type {
	case FileBackend:
		repo = f.createFileRepository(config)
	case SQLiteBackend:
		repo, err = f.createSQLiteRepository(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	client := f.createPublisher(config)

	result := &BackendResult{
		Repository: repo,
		Cleanup: func() error {
			var errs []error
			if err := repo.Close(); err != nil {
				errs = append(errs, fmt.Errorf("storage: %w", err))
			}
			if client != nil {
				if err := client.Close(); err != nil {
					errs = append(errs, fmt.Errorf("amqp: %w", err))
				}
			}
			return errors.Join(errs...)
		},
	}
	// A nil *amqp.Client must not end up as a non-nil interface value.
	if client != nil {
		result.Publisher = client
	}
	return result, nil
}

func (f *DefaultFactory) createFileRepository(config Config) storage.AccountRepository {
	f.logger.Info("Initialized file backend", applog.FieldPath, config.StateFile)
	return storage.NewFileRepository(config.StateFile)
}

func (f *DefaultFactory) createSQLiteRepository(ctx context.Context, config Config) (storage.AccountRepository, error) {
	repo, err := storage.NewSQLiteRepository(ctx, config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", applog.FieldPath, config.SQLiteDBPath)
	return repo, nil
}

// createPublisher connects to the broker when one is configured. Failure is
// not fatal: the session runs without summaries.
func (f *DefaultFactory) createPublisher(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without session summaries",
			applog.FieldError, err)
		return nil
	}

	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
