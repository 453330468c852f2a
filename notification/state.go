package notification

import "sync"

// pendingKind is the per-chat input state: after pressing a "set alert"
// button the next free-text message is consumed as the threshold price.
type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingAbove
	pendingBelow
)

// selection is the chat's currently selected coin.
type selection struct {
	coinID string
	name   string
}

type pendingInput struct {
	kind   pendingKind
	coinID string
	name   string
}

// chatState tracks, per chat, the selected coin and the pending-input state
// machine: Idle | AwaitingAbove(coin) | AwaitingBelow(coin). Transitions back
// to Idle happen on success or explicit cancel, never implicitly.
type chatState struct {
	mu       sync.Mutex
	selected map[int64]selection
	pending  map[int64]pendingInput
}

func newChatState() *chatState {
	return &chatState{
		selected: make(map[int64]selection),
		pending:  make(map[int64]pendingInput),
	}
}

func (s *chatState) selectCoin(chatID int64, coinID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected[chatID] = selection{coinID: coinID, name: name}
	delete(s.pending, chatID)
}

func (s *chatState) selection(chatID int64) (selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, ok := s.selected[chatID]
	return sel, ok
}

func (s *chatState) await(chatID int64, kind pendingKind, coinID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[chatID] = pendingInput{kind: kind, coinID: coinID, name: name}
}

// consume returns and clears the pending input for a chat.
func (s *chatState) consume(chatID int64) (pendingInput, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	input, ok := s.pending[chatID]
	if ok {
		delete(s.pending, chatID)
	}
	return input, ok
}

func (s *chatState) cancel(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, chatID)
}
