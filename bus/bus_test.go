// bus/bus_test.go
package bus

import (
	"testing"
	"time"
)

func expectPayload(t *testing.T, sub *Subscription, want any) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		if got.Payload != want {
			t.Errorf("payload = %v, want %v", got.Payload, want)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for %v", want)
	}
}

func expectNoMessage(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		t.Fatalf("unexpected message: %v", got.Payload)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(Topic{"sensor", "prox0", "snapshot"})
	conn.Publish(conn.NewMessage(Topic{"sensor", "prox0", "snapshot"}, "hello", false))

	expectPayload(t, sub, "hello")
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(Topic{"sensor", "prox0", "state"}, "ready", true))
	sub := conn.Subscribe(Topic{"sensor", "prox0", "state"})

	expectPayload(t, sub, "ready")

	// nil payload clears the retained copy.
	conn.Publish(conn.NewMessage(Topic{"sensor", "prox0", "state"}, nil, true))
	late := conn.Subscribe(Topic{"sensor", "prox0", "state"})
	expectNoMessage(t, late)
}

func TestWildcard_SingleLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	s1 := c.Subscribe(Topic{"sensor", "+", "snapshot"})
	s2 := c.Subscribe(Topic{"sensor", "+", "+"})
	sNo := c.Subscribe(Topic{"sensor", "+", "state"})

	c.Publish(b.NewMessage(Topic{"sensor", "prox0", "snapshot"}, "m1", false))

	expectPayload(t, s1, "m1")
	expectPayload(t, s2, "m1")
	expectNoMessage(t, sNo)

	c.Publish(b.NewMessage(Topic{"sensor", "prox1"}, "m2", false))
	expectNoMessage(t, s1)
	expectNoMessage(t, s2)
	expectNoMessage(t, sNo)
}

func TestWildcard_MultiLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	sAll := c.Subscribe(Topic{"#"})
	sSensor := c.Subscribe(Topic{"sensor", "#"})
	sExact := c.Subscribe(Topic{"sensor"})

	c.Publish(b.NewMessage(Topic{"sensor"}, "p1", false))
	expectPayload(t, sAll, "p1")
	expectPayload(t, sSensor, "p1")
	expectPayload(t, sExact, "p1")

	c.Publish(b.NewMessage(Topic{"sensor", "prox0", "snapshot"}, "p2", false))
	expectPayload(t, sAll, "p2")
	expectPayload(t, sSensor, "p2")
	expectNoMessage(t, sExact)
}

func TestWildcard_RetainedDelivery(t *testing.T) {
	b := NewBus(32)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(Topic{"sensor", "prox0", "state"}, "r0", true))
	c.Publish(b.NewMessage(Topic{"sensor", "prox1", "state"}, "r1", true))

	sub := c.Subscribe(Topic{"sensor", "+", "state"})
	got := map[any]bool{}
	for i := 0; i < 2; i++ {
		select {
		case m := <-sub.Channel():
			got[m.Payload] = true
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout collecting retained messages")
		}
	}
	if !got["r0"] || !got["r1"] {
		t.Fatalf("retained replay incomplete: %v", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")

	sub := c.Subscribe(Topic{"sensor", "prox0", "snapshot"})
	sub.Unsubscribe()

	b.Publish(b.NewMessage(Topic{"sensor", "prox0", "snapshot"}, "gone", false))

	if _, ok := <-sub.ch; ok {
		t.Fatal("expected closed channel after unsubscribe")
	}
}

func TestPublishNeverBlocksWhileSubscriberDrains(t *testing.T) {
	b := NewBus(1)
	c := b.NewConnection("test")
	sub := c.Subscribe(Topic{"sensor", "prox0", "snapshot"})

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-sub.Channel():
			case <-stop:
				return
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			b.Publish(b.NewMessage(Topic{"sensor", "prox0", "snapshot"}, i, false))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked against a draining subscriber")
	}
	close(stop)
}

func TestQueueOverflowDropsOldest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	sub := c.Subscribe(Topic{"sensor", "prox0", "snapshot"})

	for i := 0; i < 4; i++ {
		b.Publish(b.NewMessage(Topic{"sensor", "prox0", "snapshot"}, i, false))
	}
	expectPayload(t, sub, 2)
	expectPayload(t, sub, 3)
}
