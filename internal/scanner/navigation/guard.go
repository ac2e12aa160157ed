package navigation

import (
	"context"

	"docvault/internal/scanner/session"
)

// ScreenGroup is a navigational partition.
type ScreenGroup string

const (
	GroupAuth ScreenGroup = "auth"
	GroupApp  ScreenGroup = "app"
)

// Action is a redirect decision.
type Action int

const (
	None Action = iota
	ToApp
	ToLogin
)

func (a Action) String() string {
	switch a {
	case ToApp:
		return "to-app"
	case ToLogin:
		return "to-login"
	default:
		return "none"
	}
}

// Decide returns the redirect for a (session presence, screen group) pair.
// The destination of each redirect satisfies the other branch's condition,
// so re-evaluating after the redirect always yields None.
func Decide(hasSession bool, group ScreenGroup) Action {
	if hasSession && group == GroupAuth {
		return ToApp
	}
	if !hasSession && group != GroupAuth {
		return ToLogin
	}
	return None
}

// Navigator is the effect interface through which redirects are performed.
type Navigator interface {
	CurrentGroup() ScreenGroup
	NavigateToApp()
	NavigateToLogin()
}

// Guard re-evaluates the redirect rule against the session store. It stays
// inert until the store's first session fetch completes.
type Guard struct {
	store *session.Store
	nav   Navigator
}

// NewGuard constructs a Guard.
func NewGuard(store *session.Store, nav Navigator) *Guard {
	return &Guard{store: store, nav: nav}
}

// Ready reports whether the store has completed its initial fetch.
func (g *Guard) Ready() bool {
	select {
	case <-g.store.Ready():
		return true
	default:
		return false
	}
}

// Evaluate applies the redirect rule once and returns the action taken.
// While the store is not ready, no redirect is performed.
func (g *Guard) Evaluate() Action {
	if !g.Ready() {
		return None
	}

	_, hasSession := g.store.Current()
	action := Decide(hasSession, g.nav.CurrentGroup())
	switch action {
	case ToApp:
		g.nav.NavigateToApp()
	case ToLogin:
		g.nav.NavigateToLogin()
	}
	return action
}

// Run waits for readiness, evaluates once, then re-evaluates on every
// session change until the context is cancelled.
func (g *Guard) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-g.store.Ready():
	}

	changes, cancel := g.store.Subscribe()
	defer cancel()

	g.Evaluate()
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			g.Evaluate()
		}
	}
}
