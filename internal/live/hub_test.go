package live

import (
	"sync"
	"testing"
	"time"
)

func recv(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case m, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return m
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestHub_FanOut(t *testing.T) {
	h := NewHub(4)
	a, cancelA := h.Subscribe()
	defer cancelA()
	b, cancelB := h.Subscribe()
	defer cancelB()

	if h.Subscribers() != 2 {
		t.Fatalf("subscribers: got %d, want 2", h.Subscribers())
	}

	h.Publish(Message{Kind: KindTemperature, Data: 27.2})

	for _, ch := range []<-chan Message{a, b} {
		m := recv(t, ch)
		if m.Kind != KindTemperature || m.Data.(float64) != 27.2 {
			t.Fatalf("unexpected message: %+v", m)
		}
	}
}

func TestHub_SlowSubscriberDrops(t *testing.T) {
	h := NewHub(1)
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(Message{Kind: KindVibration, Data: 1})
	h.Publish(Message{Kind: KindVibration, Data: 2})
	h.Publish(Message{Kind: KindVibration, Data: 3})

	if got := h.Dropped(); got != 2 {
		t.Fatalf("dropped: got %d, want 2", got)
	}
	if m := recv(t, ch); m.Data.(int) != 1 {
		t.Fatalf("expected the first message to be kept, got %+v", m)
	}
}

func TestHub_CancelClosesAndUnregisters(t *testing.T) {
	h := NewHub(0)
	ch, cancel := h.Subscribe()
	cancel()
	cancel()

	if h.Subscribers() != 0 {
		t.Fatalf("subscribers: got %d, want 0", h.Subscribers())
	}
	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}

	// publishing after cancel must not panic
	h.Publish(Message{Kind: KindDevice})
}

func TestHub_ConcurrentPublishAndCancel(t *testing.T) {
	h := NewHub(8)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		_, cancel := h.Subscribe()
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.Publish(Message{Kind: KindTemperature, Data: j})
			}
		}()
		go func() {
			defer wg.Done()
			cancel()
		}()
	}
	wg.Wait()
	if h.Subscribers() != 0 {
		t.Fatalf("subscribers: got %d, want 0", h.Subscribers())
	}
}
