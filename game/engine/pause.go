package engine

// PauseBus broadcasts the global paused flag. Subscribers are notified in
// subscription order on the goroutine that calls Publish.
type PauseBus struct {
	subs   []pauseSub
	nextID int
	paused bool
}

type pauseSub struct {
	id int
	fn func(paused bool)
}

// NewPauseBus creates an unpaused bus
func NewPauseBus() *PauseBus {
	return &PauseBus{}
}

// Subscribe registers fn and returns a function that removes it
func (b *PauseBus) Subscribe(fn func(paused bool)) func() {
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, pauseSub{id: id, fn: fn})
	return func() {
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish records the flag and notifies every subscriber, even when the flag
// did not change.
func (b *PauseBus) Publish(paused bool) {
	b.paused = paused
	subs := make([]pauseSub, len(b.subs))
	copy(subs, b.subs)
	for _, s := range subs {
		s.fn(paused)
	}
}

// Paused returns the last published flag
func (b *PauseBus) Paused() bool {
	return b.paused
}

// Subscribers returns the number of registered subscribers
func (b *PauseBus) Subscribers() int {
	return len(b.subs)
}
