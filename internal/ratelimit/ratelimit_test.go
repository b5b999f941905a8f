package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinBurst(t *testing.T) {
	limiter := NewLimiter(10, 5)

	for i := 0; i < 5; i++ {
		if !limiter.Allow() {
			t.Fatalf("Request %d within burst should be allowed", i)
		}
	}

	if limiter.Allow() {
		t.Error("Request beyond burst should be denied")
	}
}

func TestTokensRefill(t *testing.T) {
	limiter := NewLimiter(1000, 1)

	if !limiter.Allow() {
		t.Fatal("First request should be allowed")
	}
	if limiter.Allow() {
		t.Fatal("Bucket should be empty")
	}

	time.Sleep(5 * time.Millisecond)

	if !limiter.Allow() {
		t.Error("Tokens should refill over time")
	}
}

func TestAllowN(t *testing.T) {
	limiter := NewLimiter(10, 10)

	if !limiter.AllowN(10) {
		t.Error("Full burst should be allowed at once")
	}
	if limiter.AllowN(1) {
		t.Error("Bucket should be drained")
	}
}

func TestAllowNAllOrNothing(t *testing.T) {
	limiter := NewLimiter(10, 5)

	if limiter.AllowN(6) {
		t.Fatal("Request larger than burst should be denied")
	}
	if !limiter.AllowN(5) {
		t.Error("Denied AllowN must not consume tokens")
	}
}
