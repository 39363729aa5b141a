package progress

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestNewPrunerValidates(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "p.json"))

	if _, err := NewPruner(store, "not a schedule", time.Hour); err == nil {
		t.Error("expected error for invalid schedule")
	}
	if _, err := NewPruner(store, "@daily", 0); err == nil {
		t.Error("expected error for zero age")
	}
	if _, err := NewPruner(store, "0 3 * * *", time.Hour); err != nil {
		t.Errorf("valid pruner rejected: %v", err)
	}
}

func TestPruneOnceUsesMaxAge(t *testing.T) {
	ctx := context.Background()
	store := NewJSONStore(filepath.Join(t.TempDir(), "p.json"))
	if err := store.Save(ctx, "1", []string{"q"}, 1); err != nil {
		t.Fatal(err)
	}

	p, err := NewPruner(store, "@hourly", 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if n := p.PruneOnce(ctx); n != 0 {
		t.Errorf("record younger than max age should stay, pruned %d", n)
	}

	p.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	if n := p.PruneOnce(ctx); n != 1 {
		t.Errorf("expected 1 pruned, got %d", n)
	}
}

func TestPrunerRunStopsOnCancel(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "p.json"))
	p, err := NewPruner(store, "@every 1h", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pruner did not stop after cancel")
	}
}
