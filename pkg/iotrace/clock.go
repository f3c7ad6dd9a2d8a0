package iotrace

import "time"

// Clock returns the current time in microseconds since the Unix epoch. It
// is read twice per wrapped call, before and after forwarding; two
// consecutive reads may be equal for fast operations.
type Clock func() uint64

// WallClock is the default clock. It reads the system wall clock, matching
// the timestamps other components stamp on engine events. Known risk: under
// clock adjustments latency could be distorted; elapsed() clamps it at zero
// rather than reporting a negative value.
func WallClock() uint64 {
	return uint64(time.Now().UnixMicro())
}

func elapsed(start, end uint64) uint64 {
	if end < start {
		return 0
	}
	return end - start
}
