package sqlite

import (
	"context"
	"testing"
	"time"
)

func TestUsageLogIsAppendOnlyPerActor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	now := time.Now()
	for i, action := range []string{"wakeup", "mp", "wakeup"} {
		if err := client.LogUsage(ctx, "owner", action, now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("log usage: %v", err)
		}
	}
	if err := client.LogUsage(ctx, "someone", "mp", now); err != nil {
		t.Fatalf("log usage: %v", err)
	}

	entries, err := client.ListUsage(ctx, "owner", 0)
	if err != nil {
		t.Fatalf("list usage: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Action != "wakeup" || entries[1].Action != "mp" {
		t.Fatalf("unexpected order: %s, %s", entries[0].Action, entries[1].Action)
	}

	limited, err := client.ListUsage(ctx, "owner", 1)
	if err != nil {
		t.Fatalf("list usage limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestGetKVMissingKey(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	value, err := client.GetKV(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get kv: %v", err)
	}
	if value != "" {
		t.Fatalf("expected empty value, got %q", value)
	}
}
