package adminstore

import (
	"context"
	"log/slog"
	"sync"

	"inquill/internal/policy"
)

// Session identifies the signed-in admin. Role is the claim from the
// session token and is only trusted when the server cannot be reached.
type Session struct {
	UserID string
	Role   policy.Role
}

type Toast struct {
	Title       string
	Message     string
	Destructive bool
}

type Toaster interface {
	Toast(t Toast)
}

type ToasterFunc func(Toast)

func (f ToasterFunc) Toast(t Toast) { f(t) }

type logToaster struct{ logger *slog.Logger }

func (l logToaster) Toast(t Toast) {
	level := slog.LevelInfo
	if t.Destructive {
		level = slog.LevelWarn
	}
	l.logger.Log(context.Background(), level, t.Title, slog.String("message", t.Message))
}

type Store struct {
	backend Backend
	session Session
	toaster Toaster

	mu        sync.Mutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

type Option func(*Store)

func WithToaster(t Toaster) Option {
	return func(s *Store) { s.toaster = t }
}

// WithInitialState seeds the store, e.g. from a previous session.
func WithInitialState(st State) Option {
	return func(s *Store) { s.state = st }
}

func New(backend Backend, session Session, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		session:   session,
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.toaster == nil {
		s.toaster = logToaster{logger: slog.Default()}
	}
	return s
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a and notifies subscribers with the resulting state.
// Listeners run on the dispatching goroutine after the lock is released.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	listeners := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next
}

// Subscribe registers fn for every future state and returns a function
// that removes it.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) actor() policy.Actor {
	role := s.session.Role
	if r := s.State().AdminRole; r.Valid() {
		role = r
	}
	return policy.Actor{ID: s.session.UserID, Role: role}
}
