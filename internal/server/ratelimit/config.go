// Defines rate limit tiers and routing rules.

package ratelimit

import (
	"net/http"
	"time"
)

// Scope defines how rate limit keys are determined.
type Scope int

const (
	// ScopeIP uses client IP address as the rate limit key.
	ScopeIP Scope = iota
	// ScopeSubject uses the authenticated token subject as the rate limit key.
	ScopeSubject
)

// Tier defines a rate limit tier with its limiter and scope.
type Tier struct {
	Name    string
	Limiter *Limiter
	Scope   Scope
}

// Config holds rate limiters for different tiers.
type Config struct {
	// Auth limits login attempts per IP.
	Auth Tier
	// PublicWrite limits order and contact submissions per IP.
	PublicWrite Tier
	// Write limits admin mutations per token subject.
	Write Tier
}

// NewConfig creates the tiers from per minute rates. A rate of 0 disables
// the tier.
func NewConfig(authPerMin, publicWritePerMin, writePerMin int) *Config {
	return &Config{
		Auth:        Tier{Name: "auth", Limiter: NewLimiter(authPerMin, time.Minute, authPerMin), Scope: ScopeIP},
		PublicWrite: Tier{Name: "public-write", Limiter: NewLimiter(publicWritePerMin, time.Minute, publicWritePerMin), Scope: ScopeIP},
		Write:       Tier{Name: "write", Limiter: NewLimiter(writePerMin, time.Minute, min(writePerMin, 10)), Scope: ScopeSubject},
	}
}

// MatchPublic returns the tier for unauthenticated requests, nil when the
// request is not limited.
func (c *Config) MatchPublic(method, path string) *Tier {
	if c == nil || method != http.MethodPost {
		return nil
	}
	switch path {
	case "/api/auth/login":
		return c.Auth.enabled()
	case "/api/orders", "/api/contacts":
		return c.PublicWrite.enabled()
	}
	return nil
}

// MatchAdmin returns the tier for authenticated requests, nil when the
// request is not limited.
func (c *Config) MatchAdmin(method, _ string) *Tier {
	if c == nil {
		return nil
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return c.Write.enabled()
	}
	return nil
}

// Close stops all limiter cleanup goroutines.
func (c *Config) Close() {
	c.Auth.Limiter.Close()
	c.PublicWrite.Limiter.Close()
	c.Write.Limiter.Close()
}

func (t *Tier) enabled() *Tier {
	if t.Limiter == nil {
		return nil
	}
	return t
}
