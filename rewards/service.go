package rewards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/screwyprof/hnttax/pkg/clock"
)

// Option configures the Service
// ------------------------------------------------
type Option func(*Service)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithPollInterval sets the polling interval
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) { s.pollInterval = d }
}

// WithChunkSize sets the number of requests per batch
func WithChunkSize(n uint64) Option {
	return func(s *Service) { s.chunkSize = n }
}

// Service works through stored reward requests: first it drains the
// backlog, then it polls for new requests
// -----------------------------------------------------------------
type Service struct {
	collector    RewardCollector
	store        Store
	clock        Clock
	pollInterval time.Duration
	chunkSize    uint64
	events       chan Event
}

// NewService constructs a Service with required dependencies and options
// ---------------------------------------------------------------------
// By default, it uses a real clock, 30s poll interval, and 50 chunk size.
func NewService(collector RewardCollector, store Store, opts ...Option) *Service {
	s := &Service{
		collector:    collector,
		store:        store,
		clock:        clock.SystemClock{},
		pollInterval: DefaultPollInterval,
		chunkSize:    DefaultChunkSize,
		events:       make(chan Event, 10),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the processor and returns the events channel and done channel.
//
// Cancel the context to request shutdown, then wait on done:
//
//	events, done := service.Start(ctx)
//	defer func() {
//	  cancel()
//	  <-done
//	}()
func (s *Service) Start(ctx context.Context) (<-chan Event, <-chan struct{}) {
	done := make(chan struct{})
	go func() {
		defer close(s.events)
		defer close(done)
		s.run(ctx)
	}()
	return s.events, done
}

// run drains the backlog, then polls until the context is cancelled
func (s *Service) run(ctx context.Context) {
	start := s.clock.Now()
	s.events <- DrainStarted{StartedAt: start}

	var (
		lastID int64
		total  int64
	)
	for {
		result, err := s.processBatch(ctx, lastID)
		if err != nil {
			s.events <- DrainError{Err: err}
			return
		}
		if result.Fetched == 0 {
			break
		}
		lastID = result.LastID
		total += int64(result.Fetched)

		s.events <- DrainBatchCompleted{BatchResult: result, ChunkSize: s.chunkSize}
	}

	s.events <- DrainDone{
		TotalProcessed: total,
		Duration:       s.clock.Now().Sub(start),
	}

	s.events <- PollingStarted{Interval: s.pollInterval}
	for {
		select {
		case <-ctx.Done():
			s.events <- PollingShutdown{Reason: ctx.Err()}
			return
		case <-s.clock.After(s.pollInterval):
			result, err := s.processBatch(ctx, lastID)
			if err != nil {
				s.events <- PollingError{Err: err}
				continue
			}
			if result.Fetched > 0 {
				lastID = result.LastID
			}

			s.events <- PollingBatchCompleted{BatchResult: result, ChunkSize: s.chunkSize}
		}
	}
}

// processBatch handles the next batch of pending requests after afterID
func (s *Service) processBatch(ctx context.Context, afterID int64) (BatchResult, error) {
	select {
	case <-ctx.Done():
		return BatchResult{}, ctx.Err()
	default:
	}

	requests, err := s.store.PendingRequests(ctx, afterID, s.chunkSize)
	if err != nil {
		return BatchResult{}, fmt.Errorf("%w: %w", ErrPendingRequests, err)
	}

	result := BatchResult{Fetched: len(requests), LastID: afterID}
	for _, req := range requests {
		status, err := s.process(ctx, req)
		if err != nil {
			return BatchResult{}, err
		}
		switch status {
		case StatusProcessed:
			result.Processed++
		case StatusEmpty:
			result.Empty++
		case StatusError:
			result.Failed++
		}
		result.LastID = req.ID
	}
	return result, nil
}

// process collects the rewards of one request and stores the outcome.
// Collection failures are recorded on the request; only store failures are returned.
func (s *Service) process(ctx context.Context, req Request) (Status, error) {
	set, err := s.collector.CollectRewards(ctx, req.Wallet, req.Year)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		stage := StageCollect
		if errors.Is(err, ErrInvalidWallet) {
			stage = StageValidate
		}
		if err := s.store.MarkFailed(ctx, req.ID, stage, err.Error()); err != nil {
			return "", fmt.Errorf("%w: request %d: %w", ErrSaveResultFailed, req.ID, err)
		}
		s.events <- RequestFailed{RequestID: req.ID, Wallet: req.Wallet, Stage: stage, Err: err}
		return StatusError, nil
	}

	if set.Wallet != req.Wallet {
		if err := s.store.UpdateWallet(ctx, req.ID, set.Wallet); err != nil {
			return "", fmt.Errorf("%w: request %d: %w", ErrSaveResultFailed, req.ID, err)
		}
	}

	status := StatusProcessed
	if set.Empty() {
		status = StatusEmpty
		err = s.store.MarkEmpty(ctx, req.ID)
	} else {
		err = s.store.SaveResult(ctx, req.ID, NewResult(req, set))
	}
	if err != nil {
		return "", fmt.Errorf("%w: request %d: %w", ErrSaveResultFailed, req.ID, err)
	}

	s.events <- RequestCompleted{
		RequestID: req.ID,
		Wallet:    set.Wallet,
		Year:      req.Year,
		Status:    status,
		Records:   len(set.Records),
		Income:    set.Income.StringFixed(IncomePrecision),
	}
	return status, nil
}
