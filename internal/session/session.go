package session

func (s *Session) SelectedModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedModel
}

func (s *Session) SelectModel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedModel = key
}

func (s *Session) APIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiKey
}

func (s *Session) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = key
}

// ResetModelAndKey forgets the selected model and the stored credential.
func (s *Session) ResetModelAndKey() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedModel = ""
	s.apiKey = ""
}

// ResetBulk empties the in-memory queue. The persisted record is the caller's concern.
func (s *Session) ResetBulk() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bulkQuestions = nil
	s.bulkTotal = 0
	s.draft = nil
}

// StartCollecting enters list collection mode with an empty queue and no pending stop.
func (s *Session) StartCollecting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collecting = true
	s.draft = nil
	s.bulkQuestions = nil
	s.bulkTotal = 0
	s.stopBulk = false
}

func (s *Session) Collecting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collecting
}

// SetDraft replaces the list typed so far while collecting.
func (s *Session) SetDraft(list []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = append([]string(nil), list...)
}

func (s *Session) Draft() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.draft...)
}

// FinishCollecting turns list into the bulk queue and leaves collection mode.
func (s *Session) FinishCollecting(list []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bulkQuestions = append([]string(nil), list...)
	s.bulkTotal = len(list)
	s.collecting = false
	s.draft = nil
}

// Restore rehydrates the queue from a persisted record. A total below the
// queue length is raised so total >= len(queue) keeps holding.
func (s *Session) Restore(questions []string, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bulkQuestions = append([]string(nil), questions...)
	if total < len(questions) {
		total = len(questions)
	}
	s.bulkTotal = total
	s.collecting = false
	s.draft = nil
}

// Queue returns a copy of the pending prompts, front first.
func (s *Session) Queue() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.bulkQuestions...)
}

func (s *Session) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bulkTotal
}

func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bulkQuestions)
}

// Peek returns the next prompt without removing it.
func (s *Session) Peek() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.bulkQuestions) == 0 {
		return "", false
	}
	return s.bulkQuestions[0], true
}

// Pop removes the front prompt and returns the remaining queue and the total,
// read under the same lock so they can be persisted as one consistent record.
func (s *Session) Pop() (remaining []string, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.bulkQuestions) > 0 {
		s.bulkQuestions = s.bulkQuestions[1:]
	}
	return append([]string(nil), s.bulkQuestions...), s.bulkTotal
}

func (s *Session) RequestStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopBulk = true
}

func (s *Session) StopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopBulk
}

func (s *Session) ClearStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopBulk = false
}

// TryAcquire attempts to take the drain lock.
// Returns true if acquired, false if a drain is already running.
func (s *Session) TryAcquire() bool {
	if !s.draining.TryLock() {
		return false
	}
	s.active.Store(true)
	return true
}

// Release releases the drain lock.
func (s *Session) Release() {
	s.active.Store(false)
	s.draining.Unlock()
}

// Draining reports whether a drain currently holds the lock.
func (s *Session) Draining() bool {
	return s.active.Load()
}

func (s *Session) Snapshot() Snapshot {
	draining := s.Draining()

	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		SelectedModel: s.selectedModel,
		HasAPIKey:     s.apiKey != "",
		Collecting:    s.collecting,
		Questions:     append([]string(nil), s.bulkQuestions...),
		Total:         s.bulkTotal,
		StopRequested: s.stopBulk,
		Draining:      draining,
	}
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Get returns the session for userID, creating an empty one on first use.
func (s *Store) Get(userID string) *Session {
	s.mu.RLock()

	sess, ok := s.sessions[userID]
	s.mu.RUnlock()

	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok = s.sessions[userID]; ok {
		return sess
	}

	sess = &Session{}
	s.sessions[userID] = sess

	return sess
}

// Lookup returns an existing session without creating one.
func (s *Store) Lookup(userID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[userID]
	return sess, ok
}
