package refresh

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Domenick1991/flighttrack/internal/domain"
	"github.com/Domenick1991/flighttrack/internal/kafka"
	"github.com/Domenick1991/flighttrack/internal/keylock"
	"github.com/Domenick1991/flighttrack/internal/merge"
	"github.com/Domenick1991/flighttrack/internal/provider"
	"github.com/Domenick1991/flighttrack/internal/repository"
	"github.com/google/uuid"
)

// Outcome classifies one refresh pass. Retry means the failure was at
// the network layer and the caller should re-run after a backoff;
// Failure is not retried.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRetry
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetry:
		return "retry"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Report summarizes one pass over the tracked flights.
type Report struct {
	RunID     string
	Outcome   Outcome
	Total     int
	Refreshed int
	Skipped   int
	Fallback  int
	Failed    int
}

// ErrPassInProgress is returned when a trigger arrives while a pass is
// already running. Passes never overlap; the extra trigger is dropped.
var ErrPassInProgress = errors.New("refresh pass already in progress")

type Producer interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

type Cache interface {
	InvalidateFlights(ctx context.Context) error
}

// ConnectivityChecker is the network precondition probed before a pass
// starts. Offline means the pass is not attempted and the run yields
// Retry.
type ConnectivityChecker interface {
	Online(ctx context.Context) bool
}

// Refresher drives both the periodic pass over all tracked flights and
// the degenerate one-flight run behind an on-demand search.
type Refresher struct {
	repo         repository.TrackingRepository
	schedules    provider.ScheduleClient
	positions    provider.PositionClient
	aircraft     map[string]string
	producer     Producer
	topic        string
	cache        Cache
	locks        *keylock.KeyedMutex
	connectivity ConnectivityChecker
	concurrency  int
	seedDemo     bool
	now          func() time.Time

	passMu sync.Mutex
}

type Option func(*Refresher)

func WithConnectivityChecker(c ConnectivityChecker) Option {
	return func(r *Refresher) { r.connectivity = c }
}

func WithSeedDemo(seed bool) Option {
	return func(r *Refresher) { r.seedDemo = seed }
}

func WithClock(now func() time.Time) Option {
	return func(r *Refresher) { r.now = now }
}

func NewRefresher(
	repo repository.TrackingRepository,
	schedules provider.ScheduleClient,
	positions provider.PositionClient,
	aircraft map[string]string,
	producer Producer,
	topic string,
	cache Cache,
	locks *keylock.KeyedMutex,
	concurrency int,
	opts ...Option,
) *Refresher {
	r := &Refresher{
		repo:        repo,
		schedules:   schedules,
		positions:   positions,
		aircraft:    aircraft,
		producer:    producer,
		topic:       topic,
		cache:       cache,
		locks:       locks,
		concurrency: concurrency,
		now:         time.Now,
	}
	if r.concurrency <= 0 {
		r.concurrency = 4
	}
	if r.aircraft == nil {
		r.aircraft = map[string]string{}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type flightResult int

const (
	resultRefreshed flightResult = iota
	resultSkipped
	resultFallback
	resultNetworkFail
	resultFailed
)

// Run executes one refresh pass. At most one pass runs at a time; a
// trigger arriving mid-pass gets ErrPassInProgress.
func (r *Refresher) Run(ctx context.Context) (Report, error) {
	if !r.passMu.TryLock() {
		return Report{}, ErrPassInProgress
	}
	defer r.passMu.Unlock()

	report := Report{RunID: uuid.NewString()}

	if r.connectivity != nil && !r.connectivity.Online(ctx) {
		log.Printf("refresh %s: no connectivity, will retry", report.RunID)
		report.Outcome = OutcomeRetry
		return report, nil
	}

	tracked, err := r.repo.ListTracked(ctx)
	if err != nil {
		report.Outcome = OutcomeFailure
		return report, fmt.Errorf("listing tracked flights: %w", err)
	}

	if len(tracked) == 0 && r.seedDemo {
		if err := r.seed(ctx); err != nil {
			report.Outcome = OutcomeFailure
			return report, fmt.Errorf("seeding demo flights: %w", err)
		}
		report.Outcome = OutcomeSuccess
		return report, nil
	}

	report.Total = len(tracked)

	var (
		mu      sync.Mutex
		netFail int
		wg      sync.WaitGroup
		sem     = make(chan struct{}, r.concurrency)
	)

	var dispatchErr error
dispatch:
	for _, rec := range tracked {
		select {
		case <-ctx.Done():
			dispatchErr = ctx.Err()
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(rec domain.FlightRecord) {
			defer wg.Done()
			defer func() { <-sem }()

			res := r.refreshTracked(ctx, rec, report.RunID)

			mu.Lock()
			defer mu.Unlock()
			switch res {
			case resultRefreshed:
				report.Refreshed++
			case resultSkipped:
				report.Skipped++
			case resultFallback:
				report.Fallback++
				netFail++
			case resultNetworkFail:
				report.Failed++
				netFail++
			case resultFailed:
				report.Failed++
			}
		}(rec)
	}
	wg.Wait()

	// Cancellation stops dispatching but the pass still drains the
	// in-flight flights above before the report is read or the pass
	// lock is released.
	if dispatchErr != nil {
		report.Outcome = OutcomeRetry
		return report, dispatchErr
	}

	// The pass completed, individual fallbacks included. Only a run
	// where every single flight died at the network layer is treated
	// as systemic and retried.
	if report.Total > 0 && netFail == report.Total {
		report.Outcome = OutcomeRetry
	} else {
		report.Outcome = OutcomeSuccess
	}
	return report, nil
}

// refreshTracked is the per-flight step of a pass. Errors are contained
// here: they classify the flight's result but never abort the batch.
func (r *Refresher) refreshTracked(ctx context.Context, rec domain.FlightRecord, runID string) (res flightResult) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("refresh %s: panic processing %s: %v", runID, rec.FlightNumber, p)
			res = resultFailed
		}
	}()

	_, err := r.RefreshOne(ctx, rec.FlightNumber, rec.Tracked)
	switch {
	case err == nil:
		return resultRefreshed
	case errors.Is(err, provider.ErrNotFound):
		// Valid empty result from both sources: store untouched.
		return resultSkipped
	case provider.IsNetwork(err) || errors.Is(err, provider.ErrRateLimited):
		log.Printf("refresh %s: %s: %v", runID, rec.FlightNumber, err)
		if r.writeFallback(ctx, rec, runID) {
			return resultFallback
		}
		return resultNetworkFail
	default:
		log.Printf("refresh %s: %s: %v", runID, rec.FlightNumber, err)
		return resultFailed
	}
}

// writeFallback carries the previous record forward with status error
// so a tracked flight survives a transient outage of both sources.
func (r *Refresher) writeFallback(ctx context.Context, rec domain.FlightRecord, runID string) bool {
	r.locks.Lock(rec.FlightNumber)
	defer r.locks.Unlock(rec.FlightNumber)

	fallback := merge.Fallback(&rec, r.now())
	event, err := r.repo.Upsert(ctx, fallback)
	if err != nil {
		log.Printf("refresh %s: storing fallback for %s: %v", runID, rec.FlightNumber, err)
		return false
	}
	r.afterWrite(ctx, event, runID)
	return true
}

// RefreshOne fetches both sources for one flight, merges and stores the
// result. The position source is only consulted for flights with an
// aircraft mapping. Taxonomy errors (ErrNotFound, ErrRateLimited,
// NetError) pass through to the caller untranslated.
func (r *Refresher) RefreshOne(ctx context.Context, flightNumber string, markTracked bool) (*domain.FlightRecord, error) {
	r.locks.Lock(flightNumber)
	defer r.locks.Unlock(flightNumber)

	existing, err := r.repo.Get(ctx, flightNumber)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", flightNumber, err)
	}

	sched, schedErr := r.schedules.FetchFlight(ctx, flightNumber)
	if errors.Is(schedErr, provider.ErrNotFound) {
		sched, schedErr = nil, nil
	}

	var pos *provider.PositionUpdate
	var posErr error
	if icao24, ok := r.aircraft[flightNumber]; ok {
		pos, posErr = r.positions.FetchPosition(ctx, icao24, r.now())
		if errors.Is(posErr, provider.ErrNoData) {
			pos, posErr = nil, nil
		}
	}

	if schedErr != nil && pos == nil {
		// Schedule source down and no position to fall back on.
		return nil, schedErr
	}
	if schedErr == nil && sched == nil && posErr != nil {
		// Position was the only remaining source and it failed.
		return nil, posErr
	}
	if schedErr != nil {
		// Position data still lets the merge proceed without schedule.
		log.Printf("refresh: %s: schedule source failed, using position only: %v", flightNumber, schedErr)
		sched = nil
	}
	if posErr != nil {
		log.Printf("refresh: %s: position source failed, keeping schedule data: %v", flightNumber, posErr)
		pos = nil
	}

	rec, err := merge.Merge(flightNumber, existing, sched, pos, r.now())
	if errors.Is(err, merge.ErrNothingToMerge) {
		return nil, provider.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if markTracked {
		rec.Tracked = true
	}

	event, err := r.repo.Upsert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("storing %s: %w", flightNumber, err)
	}
	r.afterWrite(ctx, event, "")
	return rec, nil
}

// RefreshRoute fetches every flight the schedule source knows for the
// route and stores each one. Stored rows feed the route duration
// averages; they are not marked tracked.
func (r *Refresher) RefreshRoute(ctx context.Context, depAirport, arrAirport string) ([]domain.FlightRecord, error) {
	schedules, err := r.schedules.FetchRoute(ctx, depAirport, arrAirport)
	if err != nil {
		return nil, err
	}

	records := make([]domain.FlightRecord, 0, len(schedules))
	for i := range schedules {
		sched := &schedules[i]
		if sched.FlightNumber == "" {
			continue
		}

		r.locks.Lock(sched.FlightNumber)
		existing, err := r.repo.Get(ctx, sched.FlightNumber)
		if err != nil {
			r.locks.Unlock(sched.FlightNumber)
			return records, err
		}
		rec, err := merge.Merge(sched.FlightNumber, existing, sched, nil, r.now())
		if err != nil {
			r.locks.Unlock(sched.FlightNumber)
			continue
		}
		event, err := r.repo.Upsert(ctx, rec)
		r.locks.Unlock(sched.FlightNumber)
		if err != nil {
			return records, err
		}
		r.afterWrite(ctx, event, "")
		records = append(records, *rec)
	}
	return records, nil
}

// afterWrite invalidates the list cache and pushes the status-change
// event, when one was emitted, to subscribers.
func (r *Refresher) afterWrite(ctx context.Context, event *domain.StatusChangeEvent, runID string) {
	if r.cache != nil {
		if err := r.cache.InvalidateFlights(ctx); err != nil {
			log.Printf("refresh: invalidating cache: %v", err)
		}
	}
	if event == nil || r.producer == nil || r.topic == "" {
		return
	}

	msg := kafka.StatusChangeMessage{
		RunID:          runID,
		FlightNumber:   event.FlightNumber,
		Airline:        event.Airline,
		PreviousStatus: string(event.PreviousStatus),
		NewStatus:      string(event.NewStatus),
		OccurredAt:     event.OccurredAt,
	}
	if err := r.producer.Publish(ctx, r.topic, event.FlightNumber, msg); err != nil {
		log.Printf("refresh: publishing status change for %s: %v", event.FlightNumber, err)
	}
}
