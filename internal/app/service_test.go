package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeService struct {
	name     string
	startErr error
	block    bool
	stopped  atomic.Bool
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Start(ctx context.Context) error {
	if f.block {
		<-ctx.Done()
		return nil
	}
	return f.startErr
}

func (f *fakeService) Stop(ctx context.Context) error {
	f.stopped.Store(true)
	return nil
}

func TestRunnerStopsAllWhenOneFails(t *testing.T) {
	failing := &fakeService{name: "failing", startErr: errors.New("boom")}
	blocking := &fakeService{name: "blocking", block: true}
	runner := NewRunner(blocking, failing)
	closed := false
	runner.OnShutdown(func() { closed = true })

	err := runner.Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom error, got %v", err)
	}
	if !blocking.stopped.Load() || !failing.stopped.Load() {
		t.Fatalf("expected every service stopped")
	}
	if !closed {
		t.Fatalf("expected shutdown hook called")
	}
}

func TestRunnerReturnsNilOnContextCancel(t *testing.T) {
	blocking := &fakeService{name: "blocking", block: true}
	runner := NewRunner(blocking)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if err := runner.Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("expected nil on cancel, got %v", err)
	}
	if !blocking.stopped.Load() {
		t.Fatalf("expected service stopped")
	}
}

func TestRunnerRequiresServices(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("expected error for empty runner")
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]string{"": ModeAll, "API": ModeAPI, " worker ": ModeWorker, "all": ModeAll}
	for raw, want := range cases {
		got, err := ParseMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q)=%q,%v want %q", raw, got, err, want)
		}
	}
	if _, err := ParseMode("cron"); err == nil {
		t.Fatalf("expected unknown mode error")
	}
}
