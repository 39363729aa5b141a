package session

import (
	"sync"
	"sync/atomic"
)

// Session is the per-user state of one bot identity. It lives in memory for
// the lifetime of the process; the bulk queue is mirrored to the progress store
// by the bulk runner.
type Session struct {
	mu            sync.Mutex
	selectedModel string
	apiKey        string
	collecting    bool
	draft         []string
	bulkQuestions []string
	bulkTotal     int
	stopBulk      bool

	// draining is held for the whole lifetime of a drain loop
	draining sync.Mutex
	active   atomic.Bool
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	SelectedModel string
	HasAPIKey     bool
	Collecting    bool
	Questions     []string
	Total         int
	StopRequested bool
	Draining      bool
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}
