package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cryptogyan1/tgbot/internal/bulk"
	"github.com/cryptogyan1/tgbot/internal/chat"
	"github.com/cryptogyan1/tgbot/internal/config"
	"github.com/cryptogyan1/tgbot/internal/dispatch"
	"github.com/cryptogyan1/tgbot/internal/logger"
	"github.com/cryptogyan1/tgbot/internal/session"
)

// Button payloads.
const (
	BtnCategoryPrefix = "category_"
	BtnModelPrefix    = "model_"
	BtnSwitchModel    = "switch_model"
	BtnBulkResume     = "bulk_resume"
	BtnBulkNew        = "bulk_new"
	BtnBulkDone       = "bulk_done"
)

// Handler routes inbound chat events of one bot identity to session,
// bulk runner and dispatcher. Sessions are looked up by the sender's user id.
type Handler struct {
	sessions   *session.Store
	runner     *bulk.Runner
	dispatcher dispatch.Dispatcher
	catalog    *config.Catalog
	apiKey     string
}

func New(sessions *session.Store, runner *bulk.Runner, dispatcher dispatch.Dispatcher, catalog *config.Catalog, apiKey string) *Handler {
	return &Handler{
		sessions:   sessions,
		runner:     runner,
		dispatcher: dispatcher,
		catalog:    catalog,
		apiKey:     apiKey,
	}
}

func (h *Handler) session(conv chat.Conversation) *session.Session {
	return h.sessions.Get(conv.UserID())
}

// applyKey puts the identity's API key into sess at dispatch time.
func (h *Handler) applyKey(sess *session.Session) {
	if sess.APIKey() == "" && h.apiKey != "" {
		sess.SetAPIKey(h.apiKey)
	}
}

// HandleCommand handles a slash command, given without the leading slash.
func (h *Handler) HandleCommand(ctx context.Context, conv chat.Conversation, command string) {
	userID := conv.UserID()
	sess := h.session(conv)

	logger.Debug("command received", "user", userID, "command", command)

	switch command {
	case "start":
		found, err := h.runner.Resume(ctx, userID, sess)
		switch {
		case errors.Is(err, bulk.ErrAlreadyDraining):
		case err != nil:
			logger.Error("resume failed", "user", userID, "error", err)
		case found:
			send(conv, fmt.Sprintf(msgResumeStart, sess.Remaining()))
		}
		h.showCategories(conv)

	case "help":
		send(conv, msgHelp)

	case "switch":
		if sess.APIKey() == "" {
			send(conv, msgNoKey)
			return
		}
		h.showCategories(conv)

	case "bulk":
		send(conv, msgBulkMenu,
			chat.Row(chat.Button{Label: "🔄 Resume Previous", Data: BtnBulkResume}),
			chat.Row(chat.Button{Label: "🆕 New List", Data: BtnBulkNew}),
		)

	case "stop":
		sess.RequestStop()
		send(conv, msgStopAck)

	case "remove":
		sess.ResetModelAndKey()
		send(conv, msgKeyCleared)

	case "clear":
		err := h.runner.Clear(ctx, userID, sess)
		switch {
		case errors.Is(err, bulk.ErrAlreadyDraining):
			send(conv, msgBusy)
		case err != nil:
			logger.Error("clear failed", "user", userID, "error", err)
			send(conv, msgStoreError)
		default:
			send(conv, msgBulkCleared)
		}

	case "status":
		send(conv, h.status(sess))

	default:
		send(conv, msgUnknownCommand)
	}
}

// HandleButton handles an inline button press carrying data.
func (h *Handler) HandleButton(ctx context.Context, conv chat.Conversation, data string) {
	userID := conv.UserID()
	sess := h.session(conv)

	logger.Debug("button pressed", "user", userID, "data", data)

	switch {
	case data == BtnBulkDone:
		draft := sess.Draft()
		if len(draft) == 0 {
			send(conv, msgEnterFirst)
			return
		}
		if err := h.runner.Finish(ctx, userID, sess, draft); err != nil {
			if errors.Is(err, bulk.ErrAlreadyDraining) {
				send(conv, msgBusy)
				return
			}
			logger.Error("saving new list failed", "user", userID, "error", err)
		}
		send(conv, fmt.Sprintf(msgQueued, len(draft)))
		h.showCategories(conv)

	case data == BtnSwitchModel:
		h.showCategories(conv)

	case strings.HasPrefix(data, BtnCategoryPrefix):
		h.showModels(conv, config.Category(strings.TrimPrefix(data, BtnCategoryPrefix)))

	case strings.HasPrefix(data, BtnModelPrefix):
		h.selectModel(ctx, conv, sess, strings.TrimPrefix(data, BtnModelPrefix))

	case data == BtnBulkResume:
		h.resume(ctx, conv, sess)

	case data == BtnBulkNew:
		err := h.runner.NewList(ctx, userID, sess)
		switch {
		case errors.Is(err, bulk.ErrAlreadyDraining):
			send(conv, msgBusy)
			return
		case err != nil:
			logger.Error("dropping saved list failed", "user", userID, "error", err)
		}
		send(conv, msgEnterList, doneRow())

	default:
		logger.Warn("unknown button", "user", userID, "data", data)
	}
}

// HandleText handles a plain text message.
func (h *Handler) HandleText(ctx context.Context, conv chat.Conversation, text string) {
	sess := h.session(conv)

	if sess.Collecting() {
		list := SplitList(text)
		sess.SetDraft(list)
		send(conv, fmt.Sprintf(msgCollected, len(list)), doneRow())
		return
	}

	h.applyKey(sess)

	model := sess.SelectedModel()
	if model == "" {
		send(conv, msgSelectFirst)
		return
	}

	res, err := h.dispatcher.Dispatch(ctx, dispatch.Request{
		Model:      model,
		Credential: sess.APIKey(),
		Input:      text,
		Indicator:  conv,
	})
	switch {
	case dispatch.IsConfigError(err):
		logger.Error("single prompt cannot dispatch", "user", conv.UserID(), "model", model, "error", err)
		send(conv, bulk.MsgMisconfigured)
	case err != nil:
		send(conv, bulk.MsgItemFailed)
	default:
		if err := res.Deliver(conv, switchRow()); err != nil {
			logger.Error("deliver failed", "user", conv.UserID(), "error", err)
		}
	}
}

func (h *Handler) selectModel(ctx context.Context, conv chat.Conversation, sess *session.Session, key string) {
	desc, ok := h.catalog.Lookup(key)
	if !ok {
		send(conv, msgUnknownModel)
		return
	}

	sess.SelectModel(key)
	send(conv, fmt.Sprintf(msgSelected, desc.DisplayName))

	if sess.Draining() {
		send(conv, msgModelLater)
		return
	}
	if sess.Remaining() == 0 {
		return
	}

	h.start(ctx, conv, sess, msgStarting)
}

func (h *Handler) resume(ctx context.Context, conv chat.Conversation, sess *session.Session) {
	userID := conv.UserID()

	found, err := h.runner.Resume(ctx, userID, sess)
	switch {
	case errors.Is(err, bulk.ErrAlreadyDraining):
		send(conv, msgBusy)
		return
	case err != nil:
		logger.Error("resume failed", "user", userID, "error", err)
		send(conv, msgStoreError)
		return
	case !found:
		send(conv, msgNoProgress)
		return
	}

	send(conv, fmt.Sprintf(msgResuming, sess.Remaining()))

	if sess.SelectedModel() == "" {
		send(conv, msgPickModel)
		h.showCategories(conv)
		return
	}

	h.start(ctx, conv, sess, msgResumingRun)
}

func (h *Handler) start(ctx context.Context, conv chat.Conversation, sess *session.Session, notice string) {
	if sess.Draining() {
		send(conv, msgBusy)
		return
	}

	send(conv, notice)

	h.applyKey(sess)
	err := h.runner.Start(ctx, conv.UserID(), sess, conv)
	switch {
	case err == nil:
	case errors.Is(err, bulk.ErrAlreadyDraining):
		send(conv, msgBusy)
	case errors.Is(err, bulk.ErrNoModel):
		send(conv, msgPickModel)
	default:
		logger.Debug("drain not started", "user", conv.UserID(), "reason", err)
	}
}

func (h *Handler) status(sess *session.Session) string {
	snap := sess.Snapshot()

	keyStatus := "❌ Not set"
	if snap.HasAPIKey {
		keyStatus = "✅ Set"
	}

	model := "❌ Not selected"
	if snap.SelectedModel != "" {
		model = snap.SelectedModel
		if desc, ok := h.catalog.Lookup(snap.SelectedModel); ok {
			model = desc.DisplayName
		}
	}

	total := snap.Total
	if total == 0 {
		total = len(snap.Questions)
	}
	report := bulk.Progress(total, len(snap.Questions))

	running := "⚪ Not running"
	if snap.Draining {
		running = "🟢 Running"
		if snap.StopRequested {
			running = "🟡 Stopping"
		}
	}

	return fmt.Sprintf(msgStatus, keyStatus, model, report.Answered, report.Total, report.Bar(), report.Percent, running)
}

func (h *Handler) showCategories(conv chat.Conversation) {
	rows := make([][]chat.Button, 0, len(config.Categories))
	for _, c := range config.Categories {
		if len(h.catalog.Models(c)) == 0 {
			continue
		}
		rows = append(rows, chat.Row(chat.Button{Label: categoryLabels[string(c)], Data: BtnCategoryPrefix + string(c)}))
	}
	send(conv, msgChooseCategory, rows...)
}

func (h *Handler) showModels(conv chat.Conversation, category config.Category) {
	models := h.catalog.Models(category)
	if len(models) == 0 {
		send(conv, msgUnknownCat)
		return
	}

	rows := make([][]chat.Button, 0, len(models))
	for _, m := range models {
		rows = append(rows, chat.Row(chat.Button{Label: m.DisplayName, Data: BtnModelPrefix + m.Key}))
	}
	send(conv, fmt.Sprintf(msgChooseModel, category), rows...)
}

// SplitList turns a comma-separated message into prompts, dropping empty entries.
func SplitList(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func doneRow() []chat.Button {
	return chat.Row(chat.Button{Label: "✅ Done", Data: BtnBulkDone})
}

func switchRow() []chat.Button {
	return chat.Row(chat.Button{Label: "🔄 Switch Model", Data: BtnSwitchModel})
}

func send(conv chat.Conversation, text string, rows ...[]chat.Button) {
	if err := conv.Reply(text, rows...); err != nil {
		logger.Error("reply failed", "user", conv.UserID(), "error", err)
	}
}
