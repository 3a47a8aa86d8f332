package eventloop_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/samirrijal/flyover/internal/pkg/eventloop"
)

var epoch = time.Date(2026, 3, 14, 7, 58, 0, 0, time.UTC)

func TestManualFiresInDueOrder(t *testing.T) {
	m := eventloop.NewManual(epoch)
	var got []string
	m.After(300*time.Millisecond, func() { got = append(got, "c") })
	m.After(100*time.Millisecond, func() { got = append(got, "a") })
	m.After(100*time.Millisecond, func() { got = append(got, "b") })

	m.Advance(99 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("fired early: %v", got)
	}
	m.Advance(time.Second)
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if m.Timers() != 0 {
		t.Errorf("expected no live timers, got %d", m.Timers())
	}
}

func TestManualStopPreventsCallback(t *testing.T) {
	m := eventloop.NewManual(epoch)
	fired := false
	tm := m.After(time.Second, func() { fired = true })
	tm.Stop()
	tm.Stop()
	m.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestManualEveryReschedulesUntilStopped(t *testing.T) {
	m := eventloop.NewManual(epoch)
	n := 0
	var tk interface{ Stop() }
	tk = m.Every(100*time.Millisecond, func() {
		n++
		if n == 5 {
			tk.Stop()
		}
	})
	m.Advance(10 * time.Second)
	if n != 5 {
		t.Errorf("fired %d times, want 5", n)
	}
}

func TestManualCallbackSchedulesNested(t *testing.T) {
	m := eventloop.NewManual(epoch)
	var at []time.Duration
	m.After(time.Second, func() {
		at = append(at, m.Now().Sub(epoch))
		m.After(2*time.Second, func() { at = append(at, m.Now().Sub(epoch)) })
	})
	m.Advance(5 * time.Second)
	if want := []time.Duration{time.Second, 3 * time.Second}; !reflect.DeepEqual(at, want) {
		t.Errorf("got %v, want %v", at, want)
	}
	if m.Now() != epoch.Add(5*time.Second) {
		t.Errorf("Now = %v", m.Now())
	}
}

func TestManualCronFiresOnTheMinute(t *testing.T) {
	m := eventloop.NewManual(epoch.Add(30 * time.Second))
	var fired []time.Time
	if _, err := m.Cron("* * * * *", func() { fired = append(fired, m.Now()) }); err != nil {
		t.Fatalf("Cron: %v", err)
	}
	m.Advance(3 * time.Minute)
	want := []time.Time{
		time.Date(2026, 3, 14, 7, 59, 0, 0, time.UTC),
		time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 14, 8, 1, 0, 0, time.UTC),
	}
	if !reflect.DeepEqual(fired, want) {
		t.Errorf("got %v, want %v", fired, want)
	}
}

func TestManualCronRejectsBadSpec(t *testing.T) {
	m := eventloop.NewManual(epoch)
	if _, err := m.Cron("not a schedule", func() {}); err == nil {
		t.Error("expected parse error")
	}
}

func TestManualRunPendingRunsContinuations(t *testing.T) {
	m := eventloop.NewManual(epoch)
	var got []string
	m.Go(context.Background(), func(ctx context.Context) func() {
		got = append(got, "work")
		return func() { got = append(got, "continuation") }
	})
	if len(got) != 0 {
		t.Fatal("work ran before RunPending")
	}
	if m.PendingJobs() != 1 {
		t.Fatalf("PendingJobs = %d", m.PendingJobs())
	}
	if n := m.RunPending(); n != 1 {
		t.Errorf("RunPending = %d", n)
	}
	if want := []string{"work", "continuation"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
