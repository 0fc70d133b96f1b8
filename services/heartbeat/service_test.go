package heartbeat

import (
	"context"
	"testing"
	"time"

	"ecprobe-go/bus"
)

func nextBeat(t *testing.T, sub *bus.Subscription, d time.Duration) Beat {
	t.Helper()
	select {
	case m := <-sub.Channel():
		b, ok := m.Payload.(Beat)
		if !ok {
			t.Fatalf("payload %T", m.Payload)
		}
		return b
	case <-time.After(d):
		t.Fatal("no heartbeat")
		return Beat{}
	}
}

func TestBeatsFollowConfiguredInterval(t *testing.T) {
	b := bus.NewBus(8)
	ui := b.NewConnection("ui")
	sub := ui.Subscribe(Topic())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	New().Start(ctx, b.NewConnection("heartbeat"))

	if first := nextBeat(t, sub, time.Second); first.Seq != 1 || first.TS == 0 {
		t.Fatalf("first beat %+v", first)
	}

	ui.Publish(ui.NewMessage(bus.T("config", "heartbeat"), map[string]any{"interval_ms": 20}, true))
	prev := uint32(1)
	for i := 0; i < 3; i++ {
		got := nextBeat(t, sub, time.Second)
		if got.Seq <= prev {
			t.Fatalf("seq %d after %d", got.Seq, prev)
		}
		prev = got.Seq
	}
}
