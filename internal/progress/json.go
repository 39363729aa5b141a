package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cryptogyan1/tgbot/internal/logger"
)

// JSONStore keeps every user's record in one JSON document. Each write is a
// full read-modify-write under an exclusive file lock, replaced atomically.
type JSONStore struct {
	path string
	mu   sync.Mutex
}

type document map[string]Record

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) Load(ctx context.Context, userID string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if errors.Is(err, ErrCorrupt) {
		logger.Error("progress store unreadable, treating as empty", "path", s.path, "error", err)
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}

	rec, ok := doc[userID]
	return rec, ok, nil
}

func (s *JSONStore) Save(ctx context.Context, userID string, questions []string, total int) error {
	return s.update(ctx, func(doc document) bool {
		doc[userID] = newRecord(questions, total)
		return true
	})
}

func (s *JSONStore) Clear(ctx context.Context, userID string) error {
	return s.update(ctx, func(doc document) bool {
		if _, ok := doc[userID]; !ok {
			return false
		}
		delete(doc, userID)
		return true
	})
}

// Prune skips records without a timestamp.
func (s *JSONStore) Prune(ctx context.Context, before time.Time) (int, error) {
	var removed int
	err := s.update(ctx, func(doc document) bool {
		for userID, rec := range doc {
			if rec.UpdatedAt.IsZero() || !rec.UpdatedAt.Before(before) {
				continue
			}
			delete(doc, userID)
			removed++
		}
		return removed > 0
	})
	return removed, err
}

func (s *JSONStore) Close() error {
	return nil
}

// update applies fn to the current document and writes it back if fn reports a change.
func (s *JSONStore) update(ctx context.Context, fn func(document) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ensureDir(filepath.Dir(s.path)); err != nil {
		return err
	}

	return withFileLock(ctx, s.path+".lock", func() error {
		doc, err := s.read()
		if errors.Is(err, ErrCorrupt) {
			logger.Error("progress store unreadable, starting over", "path", s.path, "error", err)
			if err := s.moveAside(); err != nil {
				return err
			}
			doc = document{}
		} else if err != nil {
			return err
		}

		if !fn(doc) {
			return nil
		}

		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode progress: %w", err)
		}

		return writeAtomic(s.path, append(data, '\n'))
	})
}

func (s *JSONStore) read() (document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return document{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return document{}, nil
	}

	doc := document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrCorrupt, s.path, err)
	}

	return doc, nil
}

// moveAside keeps a corrupt file around for inspection instead of overwriting it.
func (s *JSONStore) moveAside() error {
	target := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
	if err := os.Rename(s.path, target); err != nil {
		return fmt.Errorf("move corrupt store aside: %w", err)
	}
	logger.Warn("corrupt progress store moved aside", "path", target)
	return nil
}
