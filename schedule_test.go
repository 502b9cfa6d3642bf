package main

import (
	"context"
	"testing"
	"time"
)

func TestNextRun(t *testing.T) {
	from := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		expr string
		want time.Time
	}{
		{"0 9 * * *", time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)},
		{"30 10 * * *", time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"0 */6 * * *", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		{"@daily", time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := nextRun(tt.expr, from)
		if err != nil {
			t.Errorf("nextRun(%q) error = %v", tt.expr, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("nextRun(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestNextRunInvalid(t *testing.T) {
	for _, expr := range []string{"", "every day", "0 9 * *", "61 * * * *"} {
		if _, err := nextRun(expr, time.Now()); err == nil {
			t.Errorf("nextRun(%q) should fail", expr)
		}
	}
}

func TestRunScheduledRejectsBadExpression(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runScheduled(ctx, "not cron", func(context.Context) {}); err == nil {
		t.Error("runScheduled() should reject an invalid expression")
	}
}

func TestRunScheduledStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runScheduled(ctx, "0 9 * * *", func(context.Context) {}); err != nil {
		t.Errorf("runScheduled() error = %v", err)
	}
}
