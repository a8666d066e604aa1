package syncer

import "time"

// Event represents a scheduler lifecycle event
// ------------------------------------------
type Event any

type PollingStarted struct {
	Key      Key
	Wallet   string
	Interval time.Duration
}

type PollingSyncCompleted struct {
	Key       Key
	Wallet    string
	Iteration uint64
	Duration  time.Duration
}

type PollingError struct {
	Key       Key
	Wallet    string
	Iteration uint64
	Err       error
}

type PollingStopped struct {
	Key    Key
	Wallet string
	Reason error // nil for an explicit stop, ctx.Err() on shutdown
}
