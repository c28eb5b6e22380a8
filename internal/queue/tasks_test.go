package queue

import (
	"testing"

	"github.com/scentshop/internal/config"
)

func TestNotificationDispatchTaskPayload(t *testing.T) {
	task, err := NewNotificationDispatchTask(NotificationDispatchPayload{EventID: 12, Event: "ORDER_PLACED", OrderID: 3})
	if err != nil {
		t.Fatalf("create task failed: %v", err)
	}
	if task.Type() != TaskNotificationDispatch {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	payload, err := ParseNotificationDispatchPayload(task)
	if err != nil {
		t.Fatalf("parse payload failed: %v", err)
	}
	if payload.EventID != 12 || payload.OrderID != 3 || payload.Event != "ORDER_PLACED" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false}, 3)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("expected disabled client")
	}
	if err := client.EnqueueNotificationDispatch(NotificationDispatchPayload{EventID: 1}); err != nil {
		t.Fatalf("disabled enqueue should be a no-op, got %v", err)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: " redis ", Port: 6380, DB: 2})
	if opt.Addr != "redis:6380" || opt.DB != 2 {
		t.Fatalf("unexpected redis opt: %+v", opt)
	}
	if cfg.Concurrency != 10 || cfg.Queues[CriticalQueue] != 2 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}
