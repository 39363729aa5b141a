package bot

import (
	"context"

	"github.com/cryptogyan1/tgbot/internal/chat"
)

type Bot interface {
	Start(ctx context.Context) error
}

// Handler receives inbound chat events. Every call runs on its own goroutine.
type Handler interface {
	HandleCommand(ctx context.Context, conv chat.Conversation, command string)
	HandleButton(ctx context.Context, conv chat.Conversation, data string)
	HandleText(ctx context.Context, conv chat.Conversation, text string)
}
