package events

import "testing"

func TestPublishFansOut(t *testing.T) {
	hub := NewHub()
	a, cancelA := hub.Subscribe()
	defer cancelA()
	b, cancelB := hub.Subscribe()
	defer cancelB()

	hub.Publish(Event{Type: TypeRunUpdated, RunID: "run-1", State: "captured"})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			if ev.Type != TypeRunUpdated || ev.RunID != "run-1" {
				t.Fatalf("event = %+v", ev)
			}
		default:
			t.Fatal("subscriber missed event")
		}
	}
}

func TestCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	cancel()
	cancel() // idempotent

	if _, open := <-ch; open {
		t.Fatal("channel still open after cancel")
	}

	// publishing after cancel must not panic on the closed channel
	hub.Publish(Event{Type: TypeRunDeleted, RunID: "run-1"})
}

func TestSlowSubscriberIsSkipped(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i < 32; i++ {
		hub.Publish(Event{Type: TypeAnnotationChanged})
	}
	if got := len(ch); got != cap(ch) {
		t.Fatalf("buffered = %d, want full buffer %d", got, cap(ch))
	}
}

func TestNilHubPublishIsSafe(t *testing.T) {
	var hub *Hub
	hub.Publish(Event{Type: TypeFixChanged})
}
