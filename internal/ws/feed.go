package ws

import "stakehouse/internal/event"

// Subscribe wires the public feed onto the bus. Withdrawals stay off the
// feed; they are per-user, not lobby material.
func Subscribe(bus *event.Bus, h *Hub) {
	bus.Subscribe(event.EventWagerSettled, func(payload any) {
		h.BroadcastJSON("wager_settled", payload)
	})
	bus.Subscribe(event.EventRoundCrashed, func(payload any) {
		h.BroadcastJSON("round_crashed", payload)
	})
	bus.Subscribe(event.EventDepositConfirmed, func(payload any) {
		h.BroadcastJSON("deposit_confirmed", payload)
	})
}
