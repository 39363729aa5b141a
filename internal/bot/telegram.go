package bot

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/cryptogyan1/tgbot/internal/chat"
	"github.com/cryptogyan1/tgbot/internal/logger"
)

type telegram struct {
	api     *tgbotapi.BotAPI
	handler Handler
}

func newTelegram(token string, handler Handler) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger.Info("telegram authorized", "account", api.Self.UserName)
	return &telegram{api: api, handler: handler}, nil
}

func (t *telegram) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)
	defer t.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			switch {
			case update.CallbackQuery != nil:
				go t.handleCallback(ctx, update.CallbackQuery)
			case update.Message != nil:
				go t.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (t *telegram) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Text == "" {
		return
	}

	conv := t.conversation(msg.Chat.ID, msg.From.ID)

	if msg.IsCommand() {
		logger.Info("command received", "user", conv.UserID(), "from", msg.From.UserName, "command", msg.Command())
		t.handler.HandleCommand(ctx, conv, msg.Command())
		return
	}

	logger.Info("message received", "user", conv.UserID(), "from", msg.From.UserName, "text", truncate(msg.Text, 50))
	t.handler.HandleText(ctx, conv, msg.Text)
}

func (t *telegram) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := t.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		logger.Debug("callback ack failed", "error", err)
	}

	if cq.Message == nil || cq.From == nil {
		return
	}

	conv := t.conversation(cq.Message.Chat.ID, cq.From.ID)
	t.handler.HandleButton(ctx, conv, cq.Data)
}

func (t *telegram) conversation(chatID, userID int64) *telegramConversation {
	return &telegramConversation{api: t.api, chatID: chatID, userID: userID}
}

// telegramConversation sends to one chat on behalf of one user.
type telegramConversation struct {
	api    *tgbotapi.BotAPI
	chatID int64
	userID int64
}

func (c *telegramConversation) UserID() string {
	return strconv.FormatInt(c.userID, 10)
}

func (c *telegramConversation) Reply(text string, rows ...[]chat.Button) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	if len(rows) > 0 {
		msg.ReplyMarkup = inlineKeyboard(rows)
	}

	_, err := c.api.Send(msg)
	if err != nil {
		logger.Error("send failed", "error", err, "chatID", c.chatID)
	}
	return err
}

func (c *telegramConversation) ReplyWithPhoto(data []byte) error {
	photo := tgbotapi.NewPhoto(c.chatID, tgbotapi.FileBytes{Name: "image.png", Bytes: data})

	_, err := c.api.Send(photo)
	if err != nil {
		logger.Error("send photo failed", "error", err, "chatID", c.chatID)
	} else {
		logger.Info("photo sent", "chatID", c.chatID, "size", len(data))
	}
	return err
}

func (c *telegramConversation) ReplyWithAudio(data []byte, filename string) error {
	audio := tgbotapi.NewAudio(c.chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})

	_, err := c.api.Send(audio)
	if err != nil {
		logger.Error("send audio failed", "error", err, "chatID", c.chatID)
	} else {
		logger.Info("audio sent", "chatID", c.chatID, "size", len(data))
	}
	return err
}

func (c *telegramConversation) SendChatAction(action chat.Action) error {
	_, err := c.api.Request(tgbotapi.NewChatAction(c.chatID, string(action)))
	return err
}

func inlineKeyboard(rows [][]chat.Button) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		keyboard = append(keyboard, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}
