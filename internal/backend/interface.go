package backend

import (
	"context"
	"slices"

	"atm/internal/amqp"
	"atm/internal/storage"
)

// Publisher receives a summary of what a session added once its state has
// been saved.
type Publisher interface {
	PublishSessionSummary(ctx context.Context, msg *amqp.SessionSummaryMessage) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the repository, the optional publisher and a cleanup
// function releasing both.
type BackendResult struct {
	Repository storage.AccountRepository
	// Publisher is nil when no broker is configured or reachable.
	Publisher Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// File specific
	StateFile string

	// SQLite specific
	SQLiteDBPath string

	// Optional session summaries
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	return slices.Contains(GetBackendTypes(), bt)
}
