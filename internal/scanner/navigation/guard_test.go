package navigation

import (
	"context"
	"sync"
	"testing"
	"time"

	"docvault/internal/scanner/session"
)

type fakeNavigator struct {
	mu      sync.Mutex
	group   ScreenGroup
	toApp   int
	toLogin int
}

func (n *fakeNavigator) CurrentGroup() ScreenGroup {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.group
}

func (n *fakeNavigator) NavigateToApp() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toApp++
	n.group = GroupApp
}

func (n *fakeNavigator) NavigateToLogin() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toLogin++
	n.group = GroupAuth
}

func (n *fakeNavigator) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.toApp, n.toLogin
}

func TestDecideTable(t *testing.T) {
	cases := []struct {
		name       string
		hasSession bool
		group      ScreenGroup
		want       Action
	}{
		{"signed in on auth screens", true, GroupAuth, ToApp},
		{"signed in on app screens", true, GroupApp, None},
		{"signed out on auth screens", false, GroupAuth, None},
		{"signed out on app screens", false, GroupApp, ToLogin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.hasSession, tc.group); got != tc.want {
				t.Fatalf("Decide(%v, %q) = %v, want %v", tc.hasSession, tc.group, got, tc.want)
			}
		})
	}
}

func TestDecideConverges(t *testing.T) {
	for _, hasSession := range []bool{true, false} {
		for _, group := range []ScreenGroup{GroupAuth, GroupApp} {
			action := Decide(hasSession, group)

			next := group
			switch action {
			case ToApp:
				next = GroupApp
			case ToLogin:
				next = GroupAuth
			}

			if again := Decide(hasSession, next); action != None && again != None {
				t.Fatalf("Decide(%v, %q) = %v did not converge: follow-up = %v",
					hasSession, group, action, again)
			}
		}
	}
}

type stubAuth struct {
	session session.Session
	present bool
	sub     chan<- session.Change
}

func (a *stubAuth) CurrentSession(ctx context.Context) (session.Session, bool, error) {
	return a.session, a.present, nil
}

func (a *stubAuth) SignIn(ctx context.Context, email, password string) (session.Session, error) {
	return session.Session{}, nil
}

func (a *stubAuth) SignUp(ctx context.Context, email, password string) error { return nil }

func (a *stubAuth) SignOut(ctx context.Context) error { return nil }

func (a *stubAuth) Subscribe(ch chan<- session.Change) func() {
	a.sub = ch
	return func() {}
}

func TestGuardInertUntilReady(t *testing.T) {
	auth := &stubAuth{}
	store := session.NewStore(auth)
	nav := &fakeNavigator{group: GroupApp}
	guard := NewGuard(store, nav)

	if action := guard.Evaluate(); action != None {
		t.Fatalf("expected None before ready, got %v", action)
	}
	if toApp, toLogin := nav.counts(); toApp != 0 || toLogin != 0 {
		t.Fatalf("guard navigated before ready")
	}
}

func TestGuardRedirectsSignedOutUser(t *testing.T) {
	auth := &stubAuth{}
	store := session.NewStore(auth)
	store.Start(context.Background())
	defer store.Stop()
	<-store.Ready()

	nav := &fakeNavigator{group: GroupApp}
	guard := NewGuard(store, nav)

	if action := guard.Evaluate(); action != ToLogin {
		t.Fatalf("expected ToLogin, got %v", action)
	}
	if _, toLogin := nav.counts(); toLogin != 1 {
		t.Fatalf("expected one login redirect, got %d", toLogin)
	}

	// The redirect changed the group; a re-evaluation must settle.
	if action := guard.Evaluate(); action != None {
		t.Fatalf("expected convergence after redirect, got %v", action)
	}
}

func TestGuardFollowsSignIn(t *testing.T) {
	auth := &stubAuth{}
	store := session.NewStore(auth)
	store.Start(context.Background())
	defer store.Stop()
	<-store.Ready()

	nav := &fakeNavigator{group: GroupAuth}
	guard := NewGuard(store, nav)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go guard.Run(ctx)

	auth.sub <- session.Change{Session: session.Session{UserID: "u1"}, Present: true}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if toApp, _ := nav.counts(); toApp > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("guard never redirected to the app group after sign-in")
}
