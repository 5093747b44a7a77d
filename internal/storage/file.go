package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"atm/internal/core"
)

// maxLineBytes bounds a single history entry when reading the record.
const maxLineBytes = 1 << 20

// FileRepository stores the record as text: PIN on the first line, balance on
// the second, then one history entry per line. Entries are not escaped.
type FileRepository struct {
	path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Path returns the location of the record.
func (r *FileRepository) Path() string { return r.path }

// Load reads and parses the whole record.
func (r *FileRepository) Load(ctx context.Context) (Record, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, ErrNoState
		}
		return Record{}, fmt.Errorf("open state file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)

	var rec Record
	if !sc.Scan() {
		return Record{}, fmt.Errorf("%w: missing pin line", scanErr(sc))
	}
	rec.Pin = sc.Text()

	if !sc.Scan() {
		return Record{}, fmt.Errorf("%w: missing balance line", scanErr(sc))
	}
	balance, err := core.ParseAmount(sc.Text())
	if err != nil {
		return Record{}, fmt.Errorf("%w: balance: %v", ErrMalformed, err)
	}
	rec.Balance = balance

	for sc.Scan() {
		rec.History = append(rec.History, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return Record{}, fmt.Errorf("read state file: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}

	slog.DebugContext(ctx, "State file loaded",
		"path", r.path,
		"balance_cents", rec.Balance.Cents,
		"history_entries", len(rec.History))
	return rec, nil
}

// Save overwrites the record. The new content is written to a temporary file
// next to the target and renamed over it.
func (r *FileRepository) Save(ctx context.Context, rec Record) error {
	if dir := filepath.Dir(r.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}

	tmp := r.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, rec.Pin)
	fmt.Fprintln(w, rec.Balance.Record())
	for _, entry := range rec.History {
		fmt.Fprintln(w, entry)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write state file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace state file: %w", err)
	}

	slog.DebugContext(ctx, "State file saved",
		"path", r.path,
		"balance_cents", rec.Balance.Cents,
		"history_entries", len(rec.History))
	return nil
}

// Close is a no-op; the file is only open during Load and Save.
func (r *FileRepository) Close() error { return nil }

func scanErr(sc *bufio.Scanner) error {
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read state file: %w", err)
	}
	return ErrMalformed
}

var _ AccountRepository = (*FileRepository)(nil)
