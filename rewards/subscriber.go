package rewards

// Subscriber handles event subscriptions.
type Subscriber struct {
	done                   chan struct{}
	drainStartedHandler    func(DrainStarted)
	drainBatchHandler      func(DrainBatchCompleted)
	drainDoneHandler       func(DrainDone)
	drainErrorHandler      func(DrainError)
	pollStartedHandler     func(PollingStarted)
	pollBatchHandler       func(PollingBatchCompleted)
	pollShutdownHandler    func(PollingShutdown)
	pollErrorHandler       func(PollingError)
	requestFailedHandler   func(RequestFailed)
	requestCompleteHandler func(RequestCompleted)
}

// OnDrainStarted sets the handler for DrainStarted events
func OnDrainStarted(fn func(DrainStarted)) func(*Subscriber) {
	return func(s *Subscriber) { s.drainStartedHandler = fn }
}

// OnDrainBatchCompleted sets the handler for DrainBatchCompleted events
func OnDrainBatchCompleted(fn func(DrainBatchCompleted)) func(*Subscriber) {
	return func(s *Subscriber) { s.drainBatchHandler = fn }
}

// OnDrainDone sets the handler for DrainDone events
func OnDrainDone(fn func(DrainDone)) func(*Subscriber) {
	return func(s *Subscriber) { s.drainDoneHandler = fn }
}

// OnDrainError sets the handler for DrainError events
func OnDrainError(fn func(DrainError)) func(*Subscriber) {
	return func(s *Subscriber) { s.drainErrorHandler = fn }
}

// OnPollingStarted sets the handler for PollingStarted events
func OnPollingStarted(fn func(PollingStarted)) func(*Subscriber) {
	return func(s *Subscriber) { s.pollStartedHandler = fn }
}

// OnPollingBatchCompleted sets the handler for PollingBatchCompleted events
func OnPollingBatchCompleted(fn func(PollingBatchCompleted)) func(*Subscriber) {
	return func(s *Subscriber) { s.pollBatchHandler = fn }
}

// OnPollingShutdown sets the handler for PollingShutdown events
func OnPollingShutdown(fn func(PollingShutdown)) func(*Subscriber) {
	return func(s *Subscriber) { s.pollShutdownHandler = fn }
}

// OnPollingError sets the handler for PollingError events
func OnPollingError(fn func(PollingError)) func(*Subscriber) {
	return func(s *Subscriber) { s.pollErrorHandler = fn }
}

// OnRequestFailed sets the handler for RequestFailed events
func OnRequestFailed(fn func(RequestFailed)) func(*Subscriber) {
	return func(s *Subscriber) { s.requestFailedHandler = fn }
}

// OnRequestCompleted sets the handler for RequestCompleted events
func OnRequestCompleted(fn func(RequestCompleted)) func(*Subscriber) {
	return func(s *Subscriber) { s.requestCompleteHandler = fn }
}

// NewSubscriber creates a Subscriber with the given options and starts the dispatch loop.
// The returned closer blocks until the events channel is closed and every
// event has been handled, so defer it right away:
//
//	closer := rewards.NewSubscriber(events,
//	  rewards.OnDrainDone(func(e rewards.DrainDone) { ... }),
//	)
//	defer closer()
func NewSubscriber(events <-chan Event, opts ...func(*Subscriber)) func() {
	s := &Subscriber{
		done:                   make(chan struct{}),
		drainStartedHandler:    func(DrainStarted) {},
		drainBatchHandler:      func(DrainBatchCompleted) {},
		drainDoneHandler:       func(DrainDone) {},
		drainErrorHandler:      func(DrainError) {},
		pollStartedHandler:     func(PollingStarted) {},
		pollBatchHandler:       func(PollingBatchCompleted) {},
		pollShutdownHandler:    func(PollingShutdown) {},
		pollErrorHandler:       func(PollingError) {},
		requestFailedHandler:   func(RequestFailed) {},
		requestCompleteHandler: func(RequestCompleted) {},
	}

	for _, opt := range opts {
		opt(s)
	}

	go func() {
		defer close(s.done)
		for ev := range events {
			switch e := ev.(type) {
			case DrainStarted:
				s.drainStartedHandler(e)
			case DrainBatchCompleted:
				s.drainBatchHandler(e)
			case DrainDone:
				s.drainDoneHandler(e)
			case DrainError:
				s.drainErrorHandler(e)
			case PollingStarted:
				s.pollStartedHandler(e)
			case PollingBatchCompleted:
				s.pollBatchHandler(e)
			case PollingShutdown:
				s.pollShutdownHandler(e)
			case PollingError:
				s.pollErrorHandler(e)
			case RequestFailed:
				s.requestFailedHandler(e)
			case RequestCompleted:
				s.requestCompleteHandler(e)
			}
		}
	}()

	return func() {
		<-s.done
	}
}
