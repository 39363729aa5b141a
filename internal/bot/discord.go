package bot

import (
	"bytes"
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/cryptogyan1/tgbot/internal/chat"
	"github.com/cryptogyan1/tgbot/internal/logger"
)

type discord struct {
	session *discordgo.Session
	handler Handler
	ctx     context.Context
}

func newDiscord(token string, handler Handler) (Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	d := &discord{
		session: session,
		handler: handler,
	}

	session.AddHandler(d.handleMessage)
	session.AddHandler(d.handleInteraction)

	return d, nil
}

func (d *discord) Start(ctx context.Context) error {
	d.ctx = ctx

	if err := d.session.Open(); err != nil {
		return err
	}

	<-ctx.Done()
	return d.session.Close()
}

// discordgo already runs each handler call on its own goroutine.
func (d *discord) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}

	conv := &discordConversation{session: s, channelID: m.ChannelID, userID: m.Author.ID}

	if command, ok := parseCommand(m.Content); ok {
		logger.Info("command received", "user", m.Author.ID, "from", m.Author.Username, "command", command)
		d.handler.HandleCommand(d.ctx, conv, command)
		return
	}

	logger.Info("message received", "user", m.Author.ID, "from", m.Author.Username, "text", truncate(m.Content, 50))
	d.handler.HandleText(d.ctx, conv, m.Content)
}

func (d *discord) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		logger.Debug("interaction ack failed", "error", err)
	}

	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	if user == nil {
		return
	}

	conv := &discordConversation{session: s, channelID: i.ChannelID, userID: user.ID}
	d.handler.HandleButton(d.ctx, conv, i.MessageComponentData().CustomID)
}

// discordConversation sends to one channel on behalf of one user.
type discordConversation struct {
	session   *discordgo.Session
	channelID string
	userID    string
}

func (c *discordConversation) UserID() string {
	return c.userID
}

func (c *discordConversation) Reply(text string, rows ...[]chat.Button) error {
	_, err := c.session.ChannelMessageSendComplex(c.channelID, &discordgo.MessageSend{
		Content:    text,
		Components: components(rows),
	})
	if err != nil {
		logger.Error("discord send failed", "error", err, "channelID", c.channelID)
	}
	return err
}

func (c *discordConversation) ReplyWithPhoto(data []byte) error {
	return c.sendFile("image.png", data)
}

func (c *discordConversation) ReplyWithAudio(data []byte, filename string) error {
	return c.sendFile(filename, data)
}

func (c *discordConversation) SendChatAction(action chat.Action) error {
	// discord has a single typing indicator for every kind of work
	return c.session.ChannelTyping(c.channelID)
}

func (c *discordConversation) sendFile(name string, data []byte) error {
	_, err := c.session.ChannelMessageSendComplex(c.channelID, &discordgo.MessageSend{
		Files: []*discordgo.File{
			{
				Name:   name,
				Reader: bytes.NewReader(data),
			},
		},
	})
	if err != nil {
		logger.Error("discord send file failed", "error", err, "channelID", c.channelID, "file", name)
	} else {
		logger.Info("discord file sent", "channelID", c.channelID, "file", name)
	}
	return err
}

func components(rows [][]chat.Button) []discordgo.MessageComponent {
	if len(rows) == 0 {
		return nil
	}

	var out []discordgo.MessageComponent
	for _, row := range packRows(rows) {
		var buttons []discordgo.MessageComponent
		for _, b := range row {
			buttons = append(buttons, discordgo.Button{
				Label:    b.Label,
				Style:    discordgo.PrimaryButton,
				CustomID: b.Data,
			})
		}
		out = append(out, discordgo.ActionsRow{Components: buttons})
	}
	return out
}
