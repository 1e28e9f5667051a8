package email

import "sync"

// Credentials holds the SMTP relay credentials. They can be replaced at
// runtime through the HTTP API, so reads and writes are guarded.
type Credentials struct {
	mu   sync.RWMutex
	user string
	pass string
}

// NewCredentials creates a Credentials holder with an initial user/password
// pair. Empty values mean the relay is used unauthenticated.
func NewCredentials(user, pass string) *Credentials {
	return &Credentials{user: user, pass: pass}
}

// Get returns the current user/password pair.
func (c *Credentials) Get() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user, c.pass
}

// Set replaces the current user/password pair.
func (c *Credentials) Set(user, pass string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = user
	c.pass = pass
}

// Configured reports whether a relay user is set.
func (c *Credentials) Configured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user != ""
}
