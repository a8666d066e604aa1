package syncer

// Subscriber handles event subscriptions.
type Subscriber struct {
	done             chan struct{}
	startedHandler   func(PollingStarted)
	completedHandler func(PollingSyncCompleted)
	errorHandler     func(PollingError)
	stoppedHandler   func(PollingStopped)
}

// OnPollingStarted sets the handler for PollingStarted events
func OnPollingStarted(fn func(PollingStarted)) func(*Subscriber) {
	return func(s *Subscriber) { s.startedHandler = fn }
}

// OnPollingSyncCompleted sets the handler for PollingSyncCompleted events
func OnPollingSyncCompleted(fn func(PollingSyncCompleted)) func(*Subscriber) {
	return func(s *Subscriber) { s.completedHandler = fn }
}

// OnPollingError sets the handler for PollingError events
func OnPollingError(fn func(PollingError)) func(*Subscriber) {
	return func(s *Subscriber) { s.errorHandler = fn }
}

// OnPollingStopped sets the handler for PollingStopped events
func OnPollingStopped(fn func(PollingStopped)) func(*Subscriber) {
	return func(s *Subscriber) { s.stoppedHandler = fn }
}

// NewSubscriber creates a Subscriber with the given options and starts the dispatch loop.
// Returns a closer function that waits for all events to be processed.
//
// Example:
//
//	closer := syncer.NewSubscriber(events,
//	  syncer.OnPollingError(func(e syncer.PollingError) { ... }),
//	)
//	defer closer()  // Ensures all events processed before exit
//
// The subscriber processes events until the events channel closes.
func NewSubscriber(events <-chan Event, opts ...func(*Subscriber)) func() {
	s := &Subscriber{
		done:             make(chan struct{}),
		startedHandler:   func(PollingStarted) {},       // nop by default
		completedHandler: func(PollingSyncCompleted) {}, // nop by default
		errorHandler:     func(PollingError) {},         // nop by default
		stoppedHandler:   func(PollingStopped) {},       // nop by default
	}

	for _, opt := range opts {
		opt(s)
	}

	go func() {
		defer close(s.done)
		for ev := range events {
			switch e := ev.(type) {
			case PollingStarted:
				s.startedHandler(e)
			case PollingSyncCompleted:
				s.completedHandler(e)
			case PollingError:
				s.errorHandler(e)
			case PollingStopped:
				s.stoppedHandler(e)
			}
		}
	}()

	return func() {
		<-s.done
	}
}
