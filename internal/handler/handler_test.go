package handler

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cryptogyan1/tgbot/internal/bulk"
	"github.com/cryptogyan1/tgbot/internal/chat"
	"github.com/cryptogyan1/tgbot/internal/config"
	"github.com/cryptogyan1/tgbot/internal/dispatch"
	"github.com/cryptogyan1/tgbot/internal/progress"
	"github.com/cryptogyan1/tgbot/internal/session"
)

type fakeDispatcher struct {
	catalog  *config.Catalog
	mu       sync.Mutex
	requests []dispatch.Request
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, req dispatch.Request) (*dispatch.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	desc, ok := f.catalog.Lookup(req.Model)
	if !ok {
		return nil, fmt.Errorf("%w: %s", dispatch.ErrUnknownModel, req.Model)
	}

	switch desc.Category {
	case config.CategoryImage:
		return &dispatch.Result{Kind: desc.Category, Data: []byte("png")}, nil
	case config.CategoryAudio:
		return &dispatch.Result{Kind: desc.Category, Data: []byte("mp3"), Filename: "voice.mp3"}, nil
	}
	return &dispatch.Result{Kind: desc.Category, Text: "answer: " + req.Input}, nil
}

func (f *fakeDispatcher) inputs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, r := range f.requests {
		out = append(out, r.Input)
	}
	return out
}

type fixture struct {
	h          *Handler
	runner     *bulk.Runner
	store      *progress.JSONStore
	dispatcher *fakeDispatcher
}

func newFixture(t *testing.T, path string) *fixture {
	t.Helper()

	catalog, err := config.LoadCatalog("")
	if err != nil {
		t.Fatal(err)
	}

	if path == "" {
		path = filepath.Join(t.TempDir(), "progress.json")
	}
	store := progress.NewJSONStore(path)
	d := &fakeDispatcher{catalog: catalog}
	runner := bulk.NewRunner(store, d, bulk.Options{MinDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})

	return &fixture{
		h:          New(session.NewStore(), runner, d, catalog, "identity-key"),
		runner:     runner,
		store:      store,
		dispatcher: d,
	}
}

func lastText(conv *chat.Recorder) string {
	texts := conv.Texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func TestStartShowsCategories(t *testing.T) {
	f := newFixture(t, "")
	conv := chat.NewRecorder("1")

	f.h.HandleCommand(context.Background(), conv, "start")

	if lastText(conv) != msgChooseCategory {
		t.Errorf("unexpected reply %q", lastText(conv))
	}

	var data []string
	for _, row := range conv.LastButtons() {
		data = append(data, row[0].Data)
	}
	if !reflect.DeepEqual(data, []string{"category_text", "category_image", "category_audio"}) {
		t.Errorf("unexpected category buttons %v", data)
	}
}

func TestCategoryListsModels(t *testing.T) {
	f := newFixture(t, "")
	conv := chat.NewRecorder("1")

	f.h.HandleButton(context.Background(), conv, "category_image")

	rows := conv.LastButtons()
	if len(rows) != 6 || rows[0][0].Data != "model_flux" {
		t.Errorf("unexpected image models %v", rows)
	}

	f.h.HandleButton(context.Background(), conv, "category_video")
	if lastText(conv) != msgUnknownCat {
		t.Errorf("expected unknown category notice, got %q", lastText(conv))
	}
}

func TestTextWithoutModel(t *testing.T) {
	f := newFixture(t, "")
	conv := chat.NewRecorder("1")

	f.h.HandleText(context.Background(), conv, "hello")

	if lastText(conv) != msgSelectFirst {
		t.Errorf("expected select-model notice, got %q", lastText(conv))
	}
	if len(f.dispatcher.inputs()) != 0 {
		t.Error("nothing should be dispatched without a model")
	}
}

func TestSingleShotImage(t *testing.T) {
	f := newFixture(t, "")
	conv := chat.NewRecorder("1")
	ctx := context.Background()

	f.h.HandleButton(ctx, conv, "model_flux")
	if lastText(conv) != "🎯 Selected: 🎨 FLUX.1-dev" {
		t.Errorf("unexpected selection notice %q", lastText(conv))
	}

	f.h.HandleText(ctx, conv, "a red fox")

	if conv.Photos() != 1 {
		t.Error("expected the image to be sent as a photo")
	}
	if req := f.dispatcher.requests[0]; req.Model != "flux" || req.Credential != "identity-key" {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestSingleShotTextOffersSwitch(t *testing.T) {
	f := newFixture(t, "")
	conv := chat.NewRecorder("1")
	ctx := context.Background()

	f.h.HandleButton(ctx, conv, "model_deepseek")
	f.h.HandleText(ctx, conv, "hi")

	if lastText(conv) != "answer: hi" {
		t.Errorf("expected the answer, got %q", lastText(conv))
	}
	if rows := conv.LastButtons(); len(rows) != 1 || rows[0][0].Data != BtnSwitchModel {
		t.Errorf("expected switch model button, got %v", rows)
	}
}

func TestUnknownModelButton(t *testing.T) {
	f := newFixture(t, "")
	conv := chat.NewRecorder("1")

	f.h.HandleButton(context.Background(), conv, "model_gpt5")

	if lastText(conv) != msgUnknownModel {
		t.Errorf("expected unknown model notice, got %q", lastText(conv))
	}
	if s, _ := f.h.sessions.Lookup("1"); s.SelectedModel() != "" {
		t.Error("unknown key must not be selected")
	}
}

func TestBulkFlow(t *testing.T) {
	f := newFixture(t, "")
	conv := chat.NewRecorder("1")
	ctx := context.Background()

	f.h.HandleButton(ctx, conv, BtnBulkDone)
	if lastText(conv) != msgEnterFirst {
		t.Errorf("done without a list should be refused, got %q", lastText(conv))
	}

	f.h.HandleButton(ctx, conv, BtnBulkNew)
	if lastText(conv) != msgEnterList {
		t.Fatalf("unexpected reply %q", lastText(conv))
	}

	f.h.HandleText(ctx, conv, "a, b,, c ")
	if lastText(conv) != "🗂️ 3 questions collected. Click Done when ready." {
		t.Errorf("unexpected reply %q", lastText(conv))
	}

	f.h.HandleButton(ctx, conv, BtnBulkDone)

	rec, ok, _ := f.store.Load(ctx, "1")
	if !ok || rec.BulkTotal != 3 {
		t.Errorf("finished list should be persisted, got %+v", rec)
	}

	f.h.HandleButton(ctx, conv, "model_deepseek")
	f.runner.Wait()

	if got := f.dispatcher.inputs(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("expected a, b, c dispatched in order, got %v", got)
	}
	if lastText(conv) != bulk.MsgCompleted {
		t.Errorf("expected completion notice, got %q", lastText(conv))
	}
	if _, ok, _ := f.store.Load(ctx, "1"); ok {
		t.Error("record should be cleared after completion")
	}
}

func TestStartResumesSavedProgress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	ctx := context.Background()

	if err := progress.NewJSONStore(path).Save(ctx, "1", []string{"b", "c"}, 3); err != nil {
		t.Fatal(err)
	}

	f := newFixture(t, path)
	conv := chat.NewRecorder("1")

	f.h.HandleCommand(ctx, conv, "start")

	texts := conv.Texts()
	if len(texts) < 2 || texts[0] != "📁 Resuming from where you left off...\n2 questions remaining." {
		t.Fatalf("expected resume notice, got %v", texts)
	}

	f.h.HandleCommand(ctx, conv, "status")
	status := lastText(conv)
	for _, want := range []string{"🔑 API Key: ❌ Not set", "🧠 Model: ❌ Not selected", "✅ Answered: 1 / 3", "▓▓▓░░░░░░░ 33%", "⚪ Not running"} {
		if !strings.Contains(status, want) {
			t.Errorf("status missing %q:\n%s", want, status)
		}
	}

	f.h.HandleButton(ctx, conv, "model_qwen")
	f.runner.Wait()

	if got := f.dispatcher.inputs(); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("expected remaining items only, got %v", got)
	}
}

func TestBulkResumeButton(t *testing.T) {
	f := newFixture(t, "")
	conv := chat.NewRecorder("1")
	ctx := context.Background()

	f.h.HandleButton(ctx, conv, BtnBulkResume)
	if lastText(conv) != msgNoProgress {
		t.Errorf("expected no-progress notice, got %q", lastText(conv))
	}

	if err := f.store.Save(ctx, "1", []string{"x"}, 1); err != nil {
		t.Fatal(err)
	}

	f.h.HandleButton(ctx, conv, BtnBulkResume)
	texts := conv.Texts()
	if !reflect.DeepEqual(texts[len(texts)-3:len(texts)-1], []string{"📁 Resuming 1 remaining questions...", msgPickModel}) {
		t.Errorf("expected resume then pick-model notices, got %v", texts)
	}
}

func TestStopAndClear(t *testing.T) {
	f := newFixture(t, "")
	conv := chat.NewRecorder("1")
	ctx := context.Background()

	if err := f.store.Save(ctx, "1", []string{"x", "y"}, 2); err != nil {
		t.Fatal(err)
	}
	f.h.HandleCommand(ctx, conv, "start")

	f.h.HandleCommand(ctx, conv, "stop")
	if lastText(conv) != msgStopAck {
		t.Errorf("unexpected reply %q", lastText(conv))
	}
	sess, _ := f.h.sessions.Lookup("1")
	if !sess.StopRequested() {
		t.Error("expected stop flag")
	}

	f.h.HandleCommand(ctx, conv, "clear")
	if lastText(conv) != msgBulkCleared {
		t.Errorf("unexpected reply %q", lastText(conv))
	}
	if sess.Remaining() != 0 {
		t.Error("expected empty queue")
	}
	if _, ok, _ := f.store.Load(ctx, "1"); ok {
		t.Error("expected record to be gone")
	}
}

func TestRemoveAndSwitch(t *testing.T) {
	f := newFixture(t, "")
	conv := chat.NewRecorder("1")
	ctx := context.Background()

	f.h.HandleButton(ctx, conv, "model_flux")
	f.h.HandleText(ctx, conv, "a cat")

	sess, _ := f.h.sessions.Lookup("1")
	if sess.APIKey() != "identity-key" {
		t.Fatalf("expected the identity key after a prompt, got %q", sess.APIKey())
	}

	f.h.HandleCommand(ctx, conv, "remove")
	if sess.SelectedModel() != "" || sess.APIKey() != "" {
		t.Error("expected model and key to be cleared")
	}

	f.h.HandleCommand(ctx, conv, "status")
	if status := lastText(conv); !strings.Contains(status, "🔑 API Key: ❌ Not set") {
		t.Errorf("removed key should stay removed in status:\n%s", status)
	}

	f.h.HandleCommand(ctx, conv, "switch")
	if lastText(conv) != msgNoKey {
		t.Errorf("expected no-key notice, got %q", lastText(conv))
	}

	// the next prompt applies the identity key again
	f.h.HandleText(ctx, conv, "hello")
	if lastText(conv) != msgSelectFirst {
		t.Errorf("unexpected reply %q", lastText(conv))
	}
	f.h.HandleCommand(ctx, conv, "switch")
	if lastText(conv) != msgChooseCategory {
		t.Errorf("expected category menu once the key is back, got %q", lastText(conv))
	}
}

func TestDrainAppliesIdentityKey(t *testing.T) {
	f := newFixture(t, "")
	conv := chat.NewRecorder("1")
	ctx := context.Background()

	f.h.HandleButton(ctx, conv, BtnBulkNew)
	f.h.HandleText(ctx, conv, "a, b")
	f.h.HandleButton(ctx, conv, BtnBulkDone)

	sess, _ := f.h.sessions.Lookup("1")
	if sess.APIKey() != "" {
		t.Fatal("collecting a list should not apply the key")
	}

	f.h.HandleButton(ctx, conv, "model_qwen")
	f.runner.Wait()

	f.dispatcher.mu.Lock()
	defer f.dispatcher.mu.Unlock()
	if len(f.dispatcher.requests) != 2 {
		t.Fatalf("expected 2 dispatches, got %d", len(f.dispatcher.requests))
	}
	for _, r := range f.dispatcher.requests {
		if r.Credential != "identity-key" {
			t.Errorf("expected identity key on drain requests, got %q", r.Credential)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t, "")
	conv := chat.NewRecorder("1")

	f.h.HandleCommand(context.Background(), conv, "frobnicate")
	if lastText(conv) != msgUnknownCommand {
		t.Errorf("unexpected reply %q", lastText(conv))
	}
}

func TestSplitList(t *testing.T) {
	cases := map[string][]string{
		"a,b,c":           {"a", "b", "c"},
		" a , b ,, c ,":   {"a", "b", "c"},
		"single question": {"single question"},
		" , ,":            nil,
	}

	for in, want := range cases {
		if got := SplitList(in); !reflect.DeepEqual(got, want) {
			t.Errorf("SplitList(%q) = %v, want %v", in, got, want)
		}
	}
}
