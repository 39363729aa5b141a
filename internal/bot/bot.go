package bot

import (
	"fmt"

	"github.com/cryptogyan1/tgbot/internal/config"
)

func New(cfg config.BotConfig, handler Handler) (Bot, error) {
	switch cfg.Provider {
	case "telegram":
		return NewTelegram(cfg.Token, handler)
	case "discord":
		return NewDiscord(cfg.Token, handler)
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownProvider, cfg.Provider)
	}
}

func NewTelegram(token string, handler Handler) (Bot, error) {
	return newTelegram(token, handler)
}

func NewDiscord(token string, handler Handler) (Bot, error) {
	return newDiscord(token, handler)
}
