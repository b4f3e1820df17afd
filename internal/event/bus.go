package event

import "sync"

type Handler func(payload any)

// Bus is an in-process pub/sub fanout. Handlers run on their own goroutines;
// Drain blocks until every published event has been handled, which keeps
// shutdown (and tests) deterministic.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
	}
}

func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[name] = append(b.handlers[name], h)
}

func (b *Bus) Publish(name string, payload any) {
	b.mu.RLock()
	hs := b.handlers[name]
	b.mu.RUnlock()

	for _, h := range hs {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			h(payload)
		}(h)
	}
}

func (b *Bus) Drain() {
	b.wg.Wait()
}
