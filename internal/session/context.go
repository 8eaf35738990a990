package session

import (
	"sync"
	"time"

	"trackex/internal/identity"
)

// Entry is a session the identity service has vouched for.
type Entry struct {
	SessionID string
	User      identity.User
	ExpiresAt time.Time
}

// Subscriber is the part of the identity service the context listens to.
type Subscriber interface {
	Subscribe(fn func(identity.Event)) (unsubscribe func())
}

// Context mirrors identity events into a lookup table of live sessions.
// It is created at startup, attached to the identity service, and only
// changed by events.
type Context struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ended   map[string]time.Time // signed-out session id to token expiry
	now     func() time.Time
}

func NewContext(now func() time.Time) *Context {
	if now == nil {
		now = time.Now
	}
	return &Context{
		entries: make(map[string]Entry),
		ended:   make(map[string]time.Time),
		now:     now,
	}
}

// Attach subscribes the context to sub. The returned func detaches it.
func (c *Context) Attach(sub Subscriber) (detach func()) {
	return sub.Subscribe(c.apply)
}

func (c *Context) apply(ev identity.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Type {
	case identity.EventSignedIn, identity.EventRestored:
		// A restore racing a sign-out can be delivered after it.
		if _, gone := c.ended[ev.SessionID]; gone {
			return
		}
		c.entries[ev.SessionID] = Entry{SessionID: ev.SessionID, User: ev.User, ExpiresAt: ev.ExpiresAt}
	case identity.EventSignedOut:
		delete(c.entries, ev.SessionID)
		c.ended[ev.SessionID] = ev.ExpiresAt
	case identity.EventUpdated:
		for id, e := range c.entries {
			if e.User.ID == ev.User.ID {
				e.User = ev.User
				c.entries[id] = e
			}
		}
	}
}

// Lookup returns the live entry for a session id. Expired entries are
// dropped.
func (c *Context) Lookup(sessionID string) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[sessionID]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if !c.now().Before(e.ExpiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[sessionID]; ok && !c.now().Before(cur.ExpiresAt) {
			delete(c.entries, sessionID)
		}
		c.mu.Unlock()
		return Entry{}, false
	}
	return e, true
}

// CleanExpired drops expired sessions and the sign-out records of tokens
// that have expired. It reports how many it dropped.
func (c *Context) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for id, e := range c.entries {
		if !now.Before(e.ExpiresAt) {
			delete(c.entries, id)
			removed++
		}
	}
	for id, exp := range c.ended {
		if !now.Before(exp) {
			delete(c.ended, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked sessions.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
