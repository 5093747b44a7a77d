// Package worker consumes session summaries and records them in an
// append-only audit journal.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"atm/internal/amqp"
	"atm/internal/cache"
	"atm/internal/core"
	applog "atm/internal/log"
)

// Redelivery tracking bounds.
const (
	seenCapacity = 10000
	seenTTL      = 24 * time.Hour
)

// ErrInvalidSummary is returned for summaries that can never be journaled.
// It wraps amqp.ErrRejected so the consumer drops them.
var ErrInvalidSummary = fmt.Errorf("invalid session summary: %w", amqp.ErrRejected)

// AuditEntry is one line of the journal.
type AuditEntry struct {
	SessionID    string    `json:"session_id"`
	BalanceCents int64     `json:"balance_cents"`
	Balance      string    `json:"balance"`
	Entries      []string  `json:"entries"`
	ClosedAt     time.Time `json:"closed_at"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Journal stores audit entries.
type Journal interface {
	Append(ctx context.Context, entry AuditEntry) error
}

// AuditWorker handles session summary messages from AMQP
type AuditWorker struct {
	journal Journal
	logger  *applog.Logger
	now     func() time.Time

	mu   sync.Mutex
	seen *cache.LRU[time.Time]
}

func NewAuditWorker(journal Journal, logger *applog.Logger) *AuditWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &AuditWorker{
		journal: journal,
		logger:  logger.WithComponent(applog.ComponentAudit),
		now:     time.Now,
		seen:    cache.NewLRU[time.Time](seenCapacity, seenTTL),
	}
}

// HandleSummary journals one summary. Redelivered summaries for a session
// journaled recently by this worker are acknowledged without a second write.
func (w *AuditWorker) HandleSummary(ctx context.Context, msg *amqp.SessionSummaryMessage) error {
	if msg == nil || msg.SessionID == "" {
		return fmt.Errorf("%w: missing session id", ErrInvalidSummary)
	}
	if msg.BalanceCents < 0 {
		return fmt.Errorf("%w: negative balance", ErrInvalidSummary)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.seen.Contains(msg.SessionID) {
		w.logger.DebugContext(ctx, "Duplicate session summary ignored", applog.FieldSessionID, msg.SessionID)
		return nil
	}

	entry := AuditEntry{
		SessionID:    msg.SessionID,
		BalanceCents: msg.BalanceCents,
		Balance:      core.Money{Cents: msg.BalanceCents}.String(),
		Entries:      msg.Entries,
		ClosedAt:     msg.Timestamp,
		RecordedAt:   w.now().UTC(),
	}
	if entry.Entries == nil {
		entry.Entries = []string{}
	}
	if err := w.journal.Append(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	w.seen.Set(msg.SessionID, entry.RecordedAt)

	w.logger.InfoContext(ctx, "Session summary journaled",
		applog.FieldSessionID, msg.SessionID,
		applog.FieldBalanceCents, msg.BalanceCents,
		applog.FieldHistoryEntries, len(msg.Entries))
	return nil
}

// FileJournal appends entries as JSON lines to a file.
type FileJournal struct {
	path string
	mu   sync.Mutex
}

func NewFileJournal(path string) *FileJournal {
	return &FileJournal{path: path}
}

func (j *FileJournal) Append(ctx context.Context, entry AuditEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if dir := filepath.Dir(j.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal directory: %w", err)
		}
	}
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("write journal: %w", err)
	}
	return f.Close()
}
