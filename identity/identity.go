// Package identity assigns the per-browser session id and tracks the
// previous page and sticky campaign source for one browsing context.
package identity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Storage keys.
const (
	KeySessionID    = "sessionId"
	KeyPreviousPage = "previousPage"
	KeySource       = "trafficSource"
)

var ErrStorageUnavailable = errors.New("identity storage unavailable")

// Storage is a key/value scope. Durable scopes survive navigation; ephemeral
// scopes are cleared when the tab or browser context ends.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Context is the session identity of one browsing context.
type Context struct {
	durable   Storage
	ephemeral Storage
	newID     func() string

	sessionID string
	degraded  bool
}

// NewContext binds the two storage scopes. Either may be nil, which behaves
// like storage that is unavailable.
func NewContext(durable, ephemeral Storage) *Context {
	return &Context{
		durable:   durable,
		ephemeral: ephemeral,
		newID:     func() string { return uuid.NewString() },
	}
}

// WithIDGenerator replaces the UUID generator; used by tests.
func (c *Context) WithIDGenerator(gen func() string) *Context {
	c.newID = gen
	return c
}

// SessionID returns the stored session id, creating and storing a new one on
// first need. When storage fails a fresh id is returned for this page load
// only and Degraded reports true.
func (c *Context) SessionID() string {
	if c.sessionID != "" {
		return c.sessionID
	}

	if id, ok, err := get(c.durable, KeySessionID); err == nil && ok && id != "" {
		c.sessionID = id
		return id
	} else if err != nil {
		c.degraded = true
	}

	id := c.newID()
	if err := set(c.durable, KeySessionID, id); err != nil {
		c.degraded = true
	}
	c.sessionID = id
	return id
}

// Adopt uses a client supplied session id and persists it.
func (c *Context) Adopt(id string) {
	if id == "" {
		return
	}
	c.sessionID = id
	if err := set(c.durable, KeySessionID, id); err != nil {
		c.degraded = true
	}
}

// Degraded reports whether any storage access failed.
func (c *Context) Degraded() bool {
	return c.degraded
}

// PreviousPage returns the page recorded by the last navigation in this tab.
func (c *Context) PreviousPage() *string {
	page, ok, err := get(c.ephemeral, KeyPreviousPage)
	if err != nil || !ok || page == "" {
		return nil
	}
	return &page
}

// RecordPage stores path as the previous page for the next navigation.
func (c *Context) RecordPage(path string) {
	if err := set(c.ephemeral, KeyPreviousPage, path); err != nil {
		c.degraded = true
	}
}

// StickySource returns the campaign tag stored earlier in this session.
func (c *Context) StickySource() string {
	src, ok, err := get(c.ephemeral, KeySource)
	if err != nil || !ok {
		return ""
	}
	return src
}

func (c *Context) SetSource(source string) {
	if source == "" {
		return
	}
	if err := set(c.ephemeral, KeySource, source); err != nil {
		c.degraded = true
	}
}

func get(s Storage, key string) (string, bool, error) {
	if s == nil {
		return "", false, ErrStorageUnavailable
	}
	v, ok, err := s.Get(key)
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, ok, nil
}

func set(s Storage, key, value string) error {
	if s == nil {
		return ErrStorageUnavailable
	}
	if err := s.Set(key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
