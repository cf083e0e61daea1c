package cron

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestScheduleInvokesHealthCheckFunc(t *testing.T) {
	var mu sync.Mutex
	var calls []string

	s := New(func(ctx context.Context, clientID string) {
		mu.Lock()
		calls = append(calls, clientID)
		mu.Unlock()
	})
	s.Start()
	defer s.Stop(context.Background())

	if err := s.Schedule("client-1", "* * * * * *"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(calls)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("expected at least one health check invocation")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestUnscheduleStopsFurtherInvocations(t *testing.T) {
	s := New(func(ctx context.Context, clientID string) {})
	s.Start()
	defer s.Stop(context.Background())

	if err := s.Schedule("client-1", "* * * * * *"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Unschedule("client-1")

	s.mu.Lock()
	_, ok := s.entries["client-1"]
	s.mu.Unlock()
	if ok {
		t.Fatalf("expected entry removed after Unschedule")
	}
}

func TestScheduleRejectsInvalidExpression(t *testing.T) {
	s := New(func(ctx context.Context, clientID string) {})
	if err := s.Schedule("client-1", "not a cron expr"); err == nil {
		t.Fatalf("expected error for invalid cron expression")
	}
}
