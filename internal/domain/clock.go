package domain

import "github.com/jonboulle/clockwork"

// clock is the package-level time source so tests can freeze time via
// SetClock. Export timestamps and detector retry backoff read from it.
var clock = clockwork.NewRealClock()

// Clock returns the active time source.
func Clock() clockwork.Clock { return clock }

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
