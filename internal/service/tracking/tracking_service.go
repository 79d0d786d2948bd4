package tracking

import (
	"context"
	"errors"

	"github.com/Domenick1991/flighttrack/internal/domain"
	"github.com/Domenick1991/flighttrack/internal/repository"
)

// ErrFlightNotTracked is returned when an operation references a
// flight number the store does not hold.
var ErrFlightNotTracked = errors.New("flight is not tracked")

type TrackingUseCase interface {
	// Search runs a one-flight refresh through both sources, stores
	// the merged record marked as tracked and returns it. Provider
	// taxonomy errors surface unchanged.
	Search(ctx context.Context, flightNumber string) (*domain.FlightRecord, error)
	// SearchRoute fetches and stores every flight the schedule source
	// knows for a route.
	SearchRoute(ctx context.Context, depAirport, arrAirport string) ([]domain.FlightRecord, error)
	List(ctx context.Context) ([]domain.FlightRecord, error)
	Get(ctx context.Context, flightNumber string) (*domain.FlightRecord, error)
	Remove(ctx context.Context, flightNumber string) error
	ListByRoute(ctx context.Context, depAirport, arrAirport string) ([]domain.FlightRecord, error)
	AverageDuration(ctx context.Context, depAirport, arrAirport string) (*float64, error)
	Airports(ctx context.Context) (departures, arrivals []string, err error)
	RecentStatusChanges(ctx context.Context, limit int) ([]domain.StatusChangeEvent, error)
	StatusChangesForFlight(ctx context.Context, flightNumber string) ([]domain.StatusChangeEvent, error)
	ClearHistory(ctx context.Context) error
}

// Refresher is the slice of the refresh scheduler the search path
// needs: the degenerate one-flight and one-route runs.
type Refresher interface {
	RefreshOne(ctx context.Context, flightNumber string, markTracked bool) (*domain.FlightRecord, error)
	RefreshRoute(ctx context.Context, depAirport, arrAirport string) ([]domain.FlightRecord, error)
}

type Cache interface {
	GetFlights(ctx context.Context) ([]domain.FlightRecord, error)
	SetFlights(ctx context.Context, flights []domain.FlightRecord) error
	InvalidateFlights(ctx context.Context) error
}

type TrackingService struct {
	repo      repository.TrackingRepository
	refresher Refresher
	cache     Cache
}

func NewTrackingService(repo repository.TrackingRepository, refresher Refresher, cache Cache) *TrackingService {
	return &TrackingService{repo: repo, refresher: refresher, cache: cache}
}

func (s *TrackingService) Search(ctx context.Context, flightNumber string) (*domain.FlightRecord, error) {
	return s.refresher.RefreshOne(ctx, flightNumber, true)
}

func (s *TrackingService) SearchRoute(ctx context.Context, depAirport, arrAirport string) ([]domain.FlightRecord, error) {
	return s.refresher.RefreshRoute(ctx, depAirport, arrAirport)
}

func (s *TrackingService) List(ctx context.Context) ([]domain.FlightRecord, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

func (s *TrackingService) Get(ctx context.Context, flightNumber string) (*domain.FlightRecord, error) {
	rec, err := s.repo.Get(ctx, flightNumber)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrFlightNotTracked
	}
	return rec, nil
}

func (s *TrackingService) Remove(ctx context.Context, flightNumber string) error {
	if err := s.repo.Delete(ctx, flightNumber); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateFlights(ctx)
	}
	return nil
}

func (s *TrackingService) ListByRoute(ctx context.Context, depAirport, arrAirport string) ([]domain.FlightRecord, error) {
	return s.repo.ListByRoute(ctx, depAirport, arrAirport)
}

func (s *TrackingService) AverageDuration(ctx context.Context, depAirport, arrAirport string) (*float64, error) {
	return s.repo.AverageDuration(ctx, depAirport, arrAirport)
}

func (s *TrackingService) Airports(ctx context.Context) ([]string, []string, error) {
	departures, err := s.repo.DepartureAirports(ctx)
	if err != nil {
		return nil, nil, err
	}
	arrivals, err := s.repo.ArrivalAirports(ctx)
	if err != nil {
		return nil, nil, err
	}
	return departures, arrivals, nil
}

func (s *TrackingService) RecentStatusChanges(ctx context.Context, limit int) ([]domain.StatusChangeEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.RecentStatusChanges(ctx, limit)
}

func (s *TrackingService) StatusChangesForFlight(ctx context.Context, flightNumber string) ([]domain.StatusChangeEvent, error) {
	return s.repo.StatusChangesForFlight(ctx, flightNumber)
}

func (s *TrackingService) ClearHistory(ctx context.Context) error {
	return s.repo.ClearStatusChanges(ctx)
}

var _ TrackingUseCase = (*TrackingService)(nil)
