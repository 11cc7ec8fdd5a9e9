package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/fd1az/sam-client/internal/ratelimit"
)

func TestPerMinute_BurstThenThrottle(t *testing.T) {
	l := ratelimit.PerMinute(20) // burst of 2

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	for i := 0; i < 2; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("burst call %d: %v", i, err)
		}
	}
	if err := l.Wait(ctx); err == nil {
		t.Error("expected third call to be throttled")
	}
}

func TestPerSecond_Unlimited(t *testing.T) {
	l := ratelimit.PerSecond(0, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	for i := 0; i < 100; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
}

func TestWait_RespectsContext(t *testing.T) {
	l := ratelimit.PerMinute(1)
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("expected error on cancelled context")
	}
}
