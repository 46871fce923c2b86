package identity

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// MemoryStorage is an in-process Storage. Safe for concurrent use.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Clear drops every key, like a closed tab dropping its session storage.
func (m *MemoryStorage) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
}

// CookieOptions configures a cookie-backed scope.
type CookieOptions struct {
	// MaxAge in seconds; 0 makes a session cookie cleared with the browser context.
	MaxAge int
	Domain string
	Secure bool
}

// CookieStorage keeps a scope in request/response cookies.
type CookieStorage struct {
	c       *gin.Context
	opts    CookieOptions
	pending map[string]string
}

func NewCookieStorage(c *gin.Context, opts CookieOptions) *CookieStorage {
	return &CookieStorage{c: c, opts: opts, pending: make(map[string]string)}
}

func (s *CookieStorage) Get(key string) (string, bool, error) {
	if v, ok := s.pending[key]; ok {
		return v, true, nil
	}
	v, err := s.c.Cookie(key)
	if err == http.ErrNoCookie {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *CookieStorage) Set(key, value string) error {
	s.pending[key] = value
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(key, value, s.opts.MaxAge, "/", s.opts.Domain, s.opts.Secure, true)
	return nil
}

// FromRequest builds a Context whose durable scope is a persistent cookie and
// whose ephemeral scope is a session cookie.
func FromRequest(c *gin.Context, durable CookieOptions) *Context {
	ephemeral := CookieOptions{Domain: durable.Domain, Secure: durable.Secure}
	return NewContext(NewCookieStorage(c, durable), NewCookieStorage(c, ephemeral))
}
