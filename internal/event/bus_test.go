package event

import (
	"sync/atomic"
	"testing"
)

func TestBus_FanoutAndDrain(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var first, second atomic.Int64

	bus.Subscribe("wager.settled", func(payload any) {
		first.Add(payload.(int64))
	})
	bus.Subscribe("wager.settled", func(payload any) {
		second.Add(payload.(int64))
	})
	bus.Subscribe("round.crashed", func(any) {
		t.Error("handler for a different event fired")
	})

	for i := 0; i < 10; i++ {
		bus.Publish("wager.settled", int64(i))
	}
	bus.Publish("deposit.confirmed", int64(99)) // nobody listening, no-op
	bus.Drain()

	if first.Load() != 45 || second.Load() != 45 {
		t.Fatalf("handlers saw %d and %d, want 45 each", first.Load(), second.Load())
	}
}
