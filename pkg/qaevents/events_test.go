package qaevents

import (
	"testing"
	"time"
)

func TestMemoryBusPublishSubscribe(t *testing.T) {
	bus := NewMemoryBus(0)
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	bus.Publish(NewEvent(EventFormLoaded, "onboarding", "test", 0))

	select {
	case event := <-ch:
		if event.Type != EventFormLoaded {
			t.Errorf("expected EventFormLoaded, got %s", event.Type)
		}
		if event.FormID != "onboarding" {
			t.Errorf("expected form_id onboarding, got %v", event.FormID)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}
}

func TestMemoryBusFilter(t *testing.T) {
	bus := NewMemoryBus(0)
	ch := bus.Subscribe(EventPlanNext)
	defer bus.Unsubscribe(ch)

	bus.Publish(NewEvent(EventFormLoaded, "f", "should-be-filtered", 0))
	bus.Publish(NewEvent(EventPlanNext, "f", "should-arrive", 0))

	select {
	case event := <-ch:
		if event.Type != EventPlanNext {
			t.Errorf("expected EventPlanNext, got %s", event.Type)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}

	select {
	case event := <-ch:
		t.Errorf("unexpected event: %v", event)
	case <-time.After(50 * time.Millisecond):
		// Good — no event arrived.
	}
}

func TestMemoryBusHistory(t *testing.T) {
	bus := NewMemoryBus(0)

	t1 := time.Now()
	bus.Publish(NewEvent(EventFormLoaded, "f", "first", 0))
	time.Sleep(10 * time.Millisecond)
	t2 := time.Now()
	bus.Publish(NewEvent(EventPlanNext, "f", "second", 0))

	all := bus.History(t1)
	if len(all) != 2 {
		t.Fatalf("expected 2 events, got %d", len(all))
	}

	since := bus.History(t2)
	if len(since) != 1 || since[0].Data != "second" {
		t.Fatalf("expected 1 event ('second') since t2, got %v", since)
	}
}

func TestMemoryBusHistoryBounded(t *testing.T) {
	bus := NewMemoryBus(2)
	bus.Publish(NewEvent(EventFormLoaded, "f", 1, 0))
	bus.Publish(NewEvent(EventFormLoaded, "f", 2, 0))
	bus.Publish(NewEvent(EventFormLoaded, "f", 3, 0))

	all := bus.History(time.Time{})
	if len(all) != 2 {
		t.Fatalf("expected history capped at 2, got %d", len(all))
	}
	if all[0].Data != 2 || all[1].Data != 3 {
		t.Errorf("expected the oldest event evicted, got %v", all)
	}
}

func TestMemoryBusUnsubscribe(t *testing.T) {
	bus := NewMemoryBus(0)
	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	_, ok := <-ch
	if ok {
		t.Error("expected channel to be closed")
	}
}
