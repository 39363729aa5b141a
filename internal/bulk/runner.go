package bulk

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cryptogyan1/tgbot/internal/chat"
	"github.com/cryptogyan1/tgbot/internal/dispatch"
	"github.com/cryptogyan1/tgbot/internal/logger"
	"github.com/cryptogyan1/tgbot/internal/progress"
	"github.com/cryptogyan1/tgbot/internal/session"
	"github.com/cryptogyan1/tgbot/internal/storage"
)

var (
	ErrNoModel         = errors.New("no model selected")
	ErrEmptyQueue      = errors.New("bulk queue is empty")
	ErrAlreadyDraining = errors.New("bulk run already active")
)

const (
	DefaultMinDelay = 2 * time.Minute
	DefaultMaxDelay = 5 * time.Minute

	archiveTimeout = 30 * time.Second
	persistTimeout = 30 * time.Second
)

// User-facing notices.
const (
	MsgStopped       = "🛑 Stopped by user."
	MsgCompleted     = "✅ All questions processed!"
	MsgItemFailed    = "❌ Failed to process input"
	MsgMisconfigured = "⚠️ The selected model is not available. Choose another model to continue."
)

// Outcome is how a drain ended.
type Outcome int

const (
	Completed Outcome = iota
	Stopped
	Interrupted
	Misconfigured
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Stopped:
		return "stopped"
	case Interrupted:
		return "interrupted"
	case Misconfigured:
		return "misconfigured"
	default:
		return "unknown"
	}
}

type Archiver interface {
	Archive(ctx context.Context, e storage.Entry) (string, error)
}

type Options struct {
	MinDelay time.Duration
	MaxDelay time.Duration
	Archive  Archiver // optional
}

// Runner drains bulk queues, one item at a time, persisting after every item.
// At most one drain runs per session; the session's drain lock enforces it.
type Runner struct {
	store      progress.Store
	dispatcher dispatch.Dispatcher
	archive    Archiver
	minDelay   time.Duration
	maxDelay   time.Duration

	sleep          func(ctx context.Context, d time.Duration) error
	persistTimeout time.Duration
	wg             sync.WaitGroup
}

func NewRunner(store progress.Store, dispatcher dispatch.Dispatcher, opts Options) *Runner {
	if opts.MinDelay <= 0 && opts.MaxDelay <= 0 {
		opts.MinDelay, opts.MaxDelay = DefaultMinDelay, DefaultMaxDelay
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}

	return &Runner{
		store:      store,
		dispatcher: dispatcher,
		archive:    opts.Archive,
		minDelay:   opts.MinDelay,
		maxDelay:   opts.MaxDelay,
		sleep:      sleepContext,

		persistTimeout: persistTimeout,
	}
}

// Start launches a drain in the background. It fails without side effects
// when no model is selected, the queue is empty, or a drain is already running.
func (r *Runner) Start(ctx context.Context, userID string, sess *session.Session, conv chat.Conversation) error {
	if err := r.acquire(sess); err != nil {
		return err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer sess.Release()
		r.drain(ctx, userID, sess, conv)
	}()

	return nil
}

// Drain runs a drain on the calling goroutine and returns how it ended.
func (r *Runner) Drain(ctx context.Context, userID string, sess *session.Session, conv chat.Conversation) (Outcome, error) {
	if err := r.acquire(sess); err != nil {
		return 0, err
	}
	defer sess.Release()

	return r.drain(ctx, userID, sess, conv), nil
}

// Wait blocks until every background drain has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) acquire(sess *session.Session) error {
	if !sess.TryAcquire() {
		return ErrAlreadyDraining
	}

	if sess.SelectedModel() == "" {
		sess.Release()
		return ErrNoModel
	}
	if sess.Remaining() == 0 {
		sess.Release()
		return ErrEmptyQueue
	}

	sess.ClearStop()
	return nil
}

func (r *Runner) drain(ctx context.Context, userID string, sess *session.Session, conv chat.Conversation) Outcome {
	runID := uuid.NewString()
	// store writes for an item that was already dispatched must land even after cancellation
	persistCtx := context.WithoutCancel(ctx)

	logger.Info("drain started", "user", userID, "run", runID, "remaining", sess.Remaining(), "total", sess.Total())

	if err := r.save(persistCtx, userID, sess.Queue(), sess.Total()); err != nil {
		logger.Error("progress save failed", "user", userID, "run", runID, "error", err)
	}

	processed := 0
	outcome := func(o Outcome) Outcome {
		logger.Info("drain finished", "user", userID, "run", runID, "outcome", o.String(),
			"processed", processed, "remaining", sess.Remaining())
		return o
	}

	for {
		if sess.StopRequested() {
			reply(conv, MsgStopped)
			return outcome(Stopped)
		}
		if ctx.Err() != nil {
			return outcome(Interrupted)
		}

		prompt, ok := sess.Peek()
		if !ok {
			break
		}

		model := sess.SelectedModel()
		index := sess.Total() - sess.Remaining() + 1

		res, err := r.dispatcher.Dispatch(ctx, dispatch.Request{
			Model:      model,
			Credential: sess.APIKey(),
			Input:      prompt,
			Indicator:  conv,
		})
		if dispatch.IsConfigError(err) {
			logger.Error("drain cannot dispatch", "user", userID, "run", runID, "model", model, "error", err)
			reply(conv, MsgMisconfigured)
			return outcome(Misconfigured)
		}
		if err != nil && ctx.Err() != nil {
			// the item stays queued and is attempted again on resume
			return outcome(Interrupted)
		}

		if err != nil {
			reply(conv, MsgItemFailed)
		} else {
			if err := res.Deliver(conv); err != nil {
				logger.Error("deliver failed", "user", userID, "run", runID, "error", err)
			}
			r.archiveResult(persistCtx, storage.Entry{
				UserID: userID,
				RunID:  runID,
				Index:  index,
				Model:  model,
				Kind:   res.Kind,
				Prompt: prompt,
				Text:   res.Text,
				Data:   res.Data,
			})
		}

		remaining, total := sess.Pop()
		processed++

		if err := r.save(persistCtx, userID, remaining, total); err != nil {
			logger.Error("progress save failed", "user", userID, "run", runID, "error", err)
		}

		reply(conv, Progress(total, len(remaining)).Message())

		if len(remaining) == 0 {
			break
		}

		if err := r.sleep(ctx, r.nextDelay()); err != nil {
			return outcome(Interrupted)
		}
	}

	reply(conv, MsgCompleted)
	sess.ResetBulk()
	if err := r.clear(persistCtx, userID); err != nil {
		logger.Error("progress clear failed", "user", userID, "run", runID, "error", err)
	}

	return outcome(Completed)
}

// Resume loads the persisted queue into sess. It reports whether a
// non-empty record was found. A session with an active drain is left alone.
func (r *Runner) Resume(ctx context.Context, userID string, sess *session.Session) (bool, error) {
	if !sess.TryAcquire() {
		return false, ErrAlreadyDraining
	}
	defer sess.Release()

	rec, ok, err := r.store.Load(ctx, userID)
	if err != nil {
		return false, err
	}
	if !ok || len(rec.BulkQuestions) == 0 {
		return false, nil
	}

	sess.Restore(rec.BulkQuestions, rec.BulkTotal)
	logger.Debug("progress restored", "user", userID, "remaining", len(rec.BulkQuestions), "total", rec.BulkTotal)
	return true, nil
}

// NewList enters collection mode and drops any persisted queue.
func (r *Runner) NewList(ctx context.Context, userID string, sess *session.Session) error {
	if !sess.TryAcquire() {
		return ErrAlreadyDraining
	}
	defer sess.Release()

	sess.StartCollecting()
	return r.store.Clear(ctx, userID)
}

// Finish turns the collected list into the queue and persists it, so the
// list survives a restart even before a model is picked.
func (r *Runner) Finish(ctx context.Context, userID string, sess *session.Session, list []string) error {
	if !sess.TryAcquire() {
		return ErrAlreadyDraining
	}
	defer sess.Release()

	sess.FinishCollecting(list)
	return r.store.Save(ctx, userID, sess.Queue(), sess.Total())
}

// Clear empties the queue in memory and on disk.
func (r *Runner) Clear(ctx context.Context, userID string, sess *session.Session) error {
	if !sess.TryAcquire() {
		return ErrAlreadyDraining
	}
	defer sess.Release()

	sess.ResetBulk()
	return r.store.Clear(ctx, userID)
}

// save and clear bound each drain write; the drain's persist context is never cancelled.
func (r *Runner) save(ctx context.Context, userID string, questions []string, total int) error {
	ctx, cancel := context.WithTimeout(ctx, r.persistTimeout)
	defer cancel()
	return r.store.Save(ctx, userID, questions, total)
}

func (r *Runner) clear(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.persistTimeout)
	defer cancel()
	return r.store.Clear(ctx, userID)
}

func (r *Runner) archiveResult(ctx context.Context, e storage.Entry) {
	if r.archive == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
	defer cancel()

	name, err := r.archive.Archive(ctx, e)
	if err != nil {
		logger.Warn("archive failed", "user", e.UserID, "run", e.RunID, "error", err)
		return
	}
	logger.Debug("result archived", "object", name)
}

// nextDelay is uniform in [minDelay, maxDelay).
func (r *Runner) nextDelay() time.Duration {
	span := r.maxDelay - r.minDelay
	if span <= 0 {
		return r.minDelay
	}
	return r.minDelay + time.Duration(rand.Int64N(int64(span)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func reply(conv chat.Conversation, text string) {
	if err := conv.Reply(text); err != nil {
		logger.Error("reply failed", "user", conv.UserID(), "error", err)
	}
}
