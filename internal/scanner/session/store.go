package session

import (
	"context"
	"sync"
	"time"
)

// Session is a read-only snapshot of an authenticated identity.
type Session struct {
	Token     string
	UserID    string
	Email     string
	Name      string
	ExpiresAt time.Time
}

// Change is one auth event: the new session, or absence after sign-out.
type Change struct {
	Session Session
	Present bool
}

// Authenticator is the authentication collaborator contract.
type Authenticator interface {
	CurrentSession(ctx context.Context) (Session, bool, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignUp(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	// Subscribe registers a channel that receives every subsequent auth
	// change in order. The returned func cancels the subscription.
	Subscribe(ch chan<- Change) (cancel func())
}

// Store owns the current session. It performs one blocking fetch on Start,
// then applies collaborator-pushed changes in event order from a single
// goroutine. Subscribers see each event exactly once.
type Store struct {
	auth Authenticator

	mu      sync.RWMutex
	current Session
	present bool
	subs    []chan Change

	ready      chan struct{}
	events     chan Change
	cancelAuth func()
	startOnce  sync.Once
}

// NewStore constructs a Store bound to the authenticator.
func NewStore(auth Authenticator) *Store {
	return &Store{
		auth:  auth,
		ready: make(chan struct{}),
	}
}

// Start fetches any persisted session, signals readiness, and begins
// consuming auth changes. A collaborator error on the initial fetch is
// treated as an absent session so the caller can fall through to login.
func (s *Store) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		sess, present, err := s.auth.CurrentSession(ctx)
		if err != nil {
			present = false
		}

		s.mu.Lock()
		s.current = sess
		s.present = present
		s.mu.Unlock()
		close(s.ready)

		s.events = make(chan Change, 16)
		s.cancelAuth = s.auth.Subscribe(s.events)
		go s.loop(ctx)
	})
}

// Ready is closed once the initial session fetch has completed.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Current returns the held session snapshot and whether one is present.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.present
}

// Subscribe returns a channel receiving every auth change applied after the
// call, in order, and a cancel func releasing the subscription.
func (s *Store) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 16)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
	return ch, cancel
}

// Stop cancels the collaborator subscription. Pending events are dropped.
func (s *Store) Stop() {
	if s.cancelAuth != nil {
		s.cancelAuth()
	}
}

func (s *Store) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-s.events:
			if !ok {
				return
			}
			s.apply(change)
		}
	}
}

func (s *Store) apply(change Change) {
	s.mu.Lock()
	s.current = change.Session
	s.present = change.Present
	subs := make([]chan Change, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub <- change
	}
}
