package domain

import "time"

// CommState is the externally visible contact state. Entering and exiting
// are tracked by debounce counters, never as states of their own.
type CommState int

const (
	NotInComm CommState = iota
	InComm
)

func (s CommState) String() string {
	switch s {
	case InComm:
		return "IN_COMM"
	default:
		return "NOT_IN_COMM"
	}
}

// Heartbeat is the outcome of one poll of the heartbeat channel.
type Heartbeat struct {
	Present    bool
	ObservedAt time.Time
}

// CommSession exists from a confirmed entry until the matching confirmed exit.
type CommSession struct {
	ID                   string
	StartTime            time.Time
	PollIterationAtStart uint64
}
