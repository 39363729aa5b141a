package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cryptogyan1/tgbot/internal/config"
)

var (
	ErrCorrupt        = errors.New("progress store is corrupt")
	ErrLockTimeout    = errors.New("progress store lock timeout")
	ErrUnknownBackend = errors.New("unknown progress backend")
)

// Record is the persisted bulk queue of one user.
type Record struct {
	BulkQuestions []string  `json:"bulkQuestions"`
	BulkTotal     int       `json:"bulkTotal"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

// Store maps user ids to their pending bulk queue.
// Load never fails for a missing backing file; it reports ok=false instead.
type Store interface {
	Load(ctx context.Context, userID string) (Record, bool, error)
	Save(ctx context.Context, userID string, questions []string, total int) error
	Clear(ctx context.Context, userID string) error
	// Prune deletes records last written before the given time and returns how many were removed.
	Prune(ctx context.Context, before time.Time) (int, error)
	Close() error
}

// New opens the backend named by cfg.Backend.
func New(cfg config.ProgressConfig) (Store, error) {
	switch cfg.Backend {
	case "", "json":
		return NewJSONStore(cfg.Path), nil
	case "sqlite":
		return OpenSQL(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

func newRecord(questions []string, total int) Record {
	if total < len(questions) {
		total = len(questions)
	}

	return Record{
		BulkQuestions: append([]string{}, questions...),
		BulkTotal:     total,
		UpdatedAt:     time.Now().UTC(),
	}
}
