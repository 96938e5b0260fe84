package sync

import "time"

// minimum spacing between rounds regardless of configuration
const minAdaptiveFloor = time.Millisecond

// adaptiveFloorDivisor sets the fastest spacing relative to the configured interval
const adaptiveFloorDivisor = 16

// AdaptiveInterval spaces polling rounds. A round that moved data drops the wait to
// the floor, so follow-up changes from other clients arrive quickly. Every quiet round
// doubles the wait until it reaches the ceiling.
type AdaptiveInterval struct {
	floor   time.Duration
	ceiling time.Duration
	current time.Duration
}

// NewAdaptiveInterval backs off up to ceiling. It starts at the floor.
func NewAdaptiveInterval(ceiling time.Duration) *AdaptiveInterval {
	floor := max(ceiling/adaptiveFloorDivisor, minAdaptiveFloor)
	return &AdaptiveInterval{
		floor:   floor,
		ceiling: max(ceiling, floor),
		current: floor,
	}
}

// Next returns how long to wait after a round. active reports whether the round moved data.
func (a *AdaptiveInterval) Next(active bool) time.Duration {
	if active {
		a.current = a.floor
		return a.current
	}

	wait := a.current
	a.current = min(a.current*2, a.ceiling)
	return wait
}

func (a *AdaptiveInterval) Current() time.Duration {
	return a.current
}
