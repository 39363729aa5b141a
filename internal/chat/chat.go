package chat

// Action is a transient "working" indicator shown while a request is in flight.
type Action string

const (
	ActionTyping      Action = "typing"
	ActionUploadPhoto Action = "upload_photo"
	ActionUploadVoice Action = "upload_voice"
)

// Button is an inline button carrying an opaque payload back to the handler.
type Button struct {
	Label string
	Data  string
}

// Row builds a keyboard row from buttons.
func Row(buttons ...Button) []Button {
	return buttons
}

type ActionSender interface {
	SendChatAction(action Action) error
}

// Conversation is the chat with one user on one bot identity. Each call
// sends one outbound message.
type Conversation interface {
	ActionSender
	UserID() string
	Reply(text string, rows ...[]Button) error
	ReplyWithPhoto(data []byte) error
	ReplyWithAudio(data []byte, filename string) error
}
