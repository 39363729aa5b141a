package chat

import "sync"

// Recorder is an in-memory Conversation for tests.
type Recorder struct {
	ID string

	mu      sync.Mutex
	texts   []string
	buttons [][][]Button
	photos  [][]byte
	audio   []string
	actions []Action
}

func NewRecorder(userID string) *Recorder {
	return &Recorder{ID: userID}
}

func (r *Recorder) UserID() string {
	return r.ID
}

func (r *Recorder) Reply(text string, rows ...[]Button) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	r.buttons = append(r.buttons, rows)
	return nil
}

func (r *Recorder) ReplyWithPhoto(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.photos = append(r.photos, data)
	return nil
}

func (r *Recorder) ReplyWithAudio(data []byte, filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audio = append(r.audio, filename)
	return nil
}

func (r *Recorder) SendChatAction(action Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
	return nil
}

// Texts returns every text reply so far.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

// LastButtons returns the keyboard attached to the latest text reply.
func (r *Recorder) LastButtons() [][]Button {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.buttons) == 0 {
		return nil
	}
	return r.buttons[len(r.buttons)-1]
}

func (r *Recorder) Photos() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.photos)
}

func (r *Recorder) AudioFiles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.audio...)
}

func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Action(nil), r.actions...)
}
