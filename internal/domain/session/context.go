package session

import (
	"fmt"
	"log/slog"
	"sync"
)

// Context owns the process-wide session state. It is created empty, filled
// by Hydrate or an explicit SetAuth, and cleared by Logout. All mutations
// run write-then-commit: durable persistence happens before the in-memory
// state becomes observable, and every committed change is delivered to all
// current subscribers before the mutating call returns.
//
// Context is safe for concurrent readers. Mutating operations are
// user-driven (login, logout, startup hydration) and last-write-wins when
// they do overlap.
type Context struct {
	store  CredentialStore
	logger *slog.Logger

	mu       sync.Mutex
	current  Session
	hydrated bool
	subs     map[int]func(Session)
	nextSub  int
}

// NewContext creates a session context backed by the given store. The
// context starts anonymous and unhydrated.
func NewContext(store CredentialStore, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		store:  store,
		logger: logger,
		subs:   make(map[int]func(Session)),
	}
}

// Hydrate reads the durable credentials into memory and marks the context
// hydrated. It is idempotent: each call re-reads storage and overwrites the
// in-memory state. Unreadable or corrupt durable data degrades to the
// anonymous session; hydration never fails the caller.
func (c *Context) Hydrate() {
	creds, err := c.store.Load()
	if err != nil {
		c.logger.Warn("session hydration failed, starting anonymous", "error", err)
		creds = Credentials{}
	}

	sess, ok := fromCredentials(creds)
	if !ok {
		c.logger.Warn("stored session data unusable, starting anonymous")
	}

	c.mu.Lock()
	c.hydrated = true
	c.mu.Unlock()

	c.commit(sess)
}

// SetAuth persists the session durably and then makes it the current
// in-memory state. Passing the anonymous session clears both. If the
// durable write fails the in-memory state is left untouched, so observers
// never see a logged-in state with no durable credential behind it.
func (c *Context) SetAuth(s Session) error {
	var err error
	if s.IsAuthenticated() {
		err = c.store.Save(s.credentials())
	} else {
		err = c.store.Clear()
	}
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	c.commit(s)
	return nil
}

// Logout removes the durable credentials and clears the in-memory session.
// The in-memory state is cleared even when the durable removal fails; the
// removal error is returned for the caller to report.
func (c *Context) Logout() error {
	err := c.store.Clear()
	if err != nil {
		c.logger.Warn("clearing stored credentials failed", "error", err)
	}

	c.commit(Anonymous())

	if err != nil {
		return fmt.Errorf("clear stored credentials: %w", err)
	}
	return nil
}

// Current returns the session as of the last committed mutation.
func (c *Context) Current() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Hydrated reports whether durable storage has been read at least once
// since the context was created.
func (c *Context) Hydrated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hydrated
}

// Subscribe registers fn to be called synchronously with the new session on
// every committed mutation. The returned func removes the subscription.
func (c *Context) Subscribe(fn func(Session)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// commit installs the new session and notifies subscribers. Notification
// runs outside the lock so a subscriber may read the context without
// deadlocking.
func (c *Context) commit(s Session) {
	c.mu.Lock()
	c.current = s
	fns := make([]func(Session), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
