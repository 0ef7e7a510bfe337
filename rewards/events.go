package rewards

import "time"

// Clock abstracts time for production and testing
// ------------------------------------------------
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// BatchResult counts the outcomes of one batch of requests
type BatchResult struct {
	Fetched   int
	Processed int
	Empty     int
	Failed    int
	LastID    int64
}

// Event represents a service lifecycle event
// ------------------------------------------
type Event any

type DrainStarted struct {
	StartedAt time.Time
}

type DrainBatchCompleted struct {
	BatchResult
	ChunkSize uint64
}

type DrainDone struct {
	TotalProcessed int64
	Duration       time.Duration
}

type DrainError struct {
	Err error
}

type PollingStarted struct {
	Interval time.Duration
}

type PollingBatchCompleted struct {
	BatchResult
	ChunkSize uint64
}

type PollingShutdown struct {
	Reason error // Why shutdown occurred (ctx.Err())
}

type PollingError struct {
	Err error
}

// RequestFailed reports a request that was marked as failed
type RequestFailed struct {
	RequestID int64
	Wallet    string
	Stage     Stage
	Err       error
}

// RequestCompleted reports a request that was processed or found empty
type RequestCompleted struct {
	RequestID int64
	Wallet    string
	Year      int
	Status    Status
	Records   int
	Income    string
}
