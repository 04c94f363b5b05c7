package ratelimit

import (
	"testing"
	"time"
)

func TestNewLimiter(t *testing.T) {
	if l := NewLimiter(0, time.Minute, 5); l != nil {
		t.Error("NewLimiter(0) should disable limiting")
	}
	l := NewLimiter(60, time.Minute, 0)
	defer l.Close()
	if l.burst != 60 {
		t.Errorf("burst = %d, want 60", l.burst)
	}
}

func TestLimiter_Allow(t *testing.T) {
	l := NewLimiter(5, time.Minute, 5)
	defer l.Close()

	for i := range 5 {
		res := l.Allow("ip:1.2.3.4:auth")
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if res.Limit != 5 {
			t.Errorf("Limit = %d, want 5", res.Limit)
		}
		if res.Remaining != 4-i {
			t.Errorf("request %d: Remaining = %d, want %d", i+1, res.Remaining, 4-i)
		}
	}
	res := l.Allow("ip:1.2.3.4:auth")
	if res.Allowed {
		t.Error("6th request should be rate limited")
	}
	if res.RetryAfter < time.Second {
		t.Errorf("RetryAfter = %v, want >= 1s", res.RetryAfter)
	}
	if !res.ResetAt.After(time.Now()) {
		t.Errorf("ResetAt = %v", res.ResetAt)
	}
	if !l.Allow("ip:5.6.7.8:auth").Allowed {
		t.Error("other keys must have their own bucket")
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	l := NewLimiter(60, time.Minute, 10)
	defer l.Close()
	l.Allow("a")
	l.cleanup(time.Now())
	if len(l.buckets) != 1 {
		t.Fatal("fresh bucket removed")
	}
	l.cleanup(time.Now().Add(time.Hour))
	if len(l.buckets) != 0 {
		t.Error("stale bucket kept")
	}
}

func TestLimiter_Close(t *testing.T) {
	l := NewLimiter(1, time.Minute, 1)
	l.Close()
	l.Close()
	var nilLimiter *Limiter
	nilLimiter.Close()
}
