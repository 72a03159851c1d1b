package auth

import (
	"sync"

	"portraitstudio/internal/domain"
)

// State is the identity snapshot published to subscribers.
type State struct {
	User      *domain.User `json:"user"`
	IsLoading bool         `json:"isLoading"`
}

// Session holds the current identity state and publishes every change.
type Session struct {
	// deliverMu orders fan-out so subscribers see states in change order.
	deliverMu sync.Mutex
	mu        sync.Mutex
	state     State
	subs      map[int]func(State)
	nextID    int
}

// NewSession returns a signed-out session.
func NewSession() *Session {
	return &Session{subs: make(map[int]func(State))}
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Subscribe delivers the current state to fn right away and then after every
// change. The returned function removes the subscription; it is safe to call
// more than once. fn must not change the session.
func (s *Session) Subscribe(fn func(State)) func() {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	current := s.copyLocked()
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// SetLoading flags an identity operation in progress.
func (s *Session) SetLoading(loading bool) {
	s.update(func(st *State) { st.IsLoading = loading })
}

// SignIn records u as the signed-in user and clears the loading flag.
func (s *Session) SignIn(u domain.User) {
	s.update(func(st *State) {
		st.User = &u
		st.IsLoading = false
	})
}

// SignOut clears the user.
func (s *Session) SignOut() {
	s.update(func(st *State) {
		st.User = nil
		st.IsLoading = false
	})
}

func (s *Session) update(mutate func(*State)) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	mutate(&s.state)
	next := s.copyLocked()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}

func (s *Session) copyLocked() State {
	out := State{IsLoading: s.state.IsLoading}
	if s.state.User != nil {
		u := *s.state.User
		out.User = &u
	}
	return out
}
