package portal

import "time"

// Fixed delays
const (
	// GateDelay is the wait between a successful activation and the gate re-evaluation
	GateDelay = 1 * time.Second
	// StatusClearDelay is the wait before a submission success status is cleared
	StatusClearDelay = 3 * time.Second
)

// Timer is a scheduled callback that can be cancelled
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules on the runtime timer
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type timerKind int

const (
	timerGate timerKind = iota
	timerStatusClear
)
