package tracking

import (
	"context"
	"errors"
	"testing"

	"github.com/Domenick1991/flighttrack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTrackingRepository struct {
	mock.Mock
}

func (m *MockTrackingRepository) Upsert(ctx context.Context, rec *domain.FlightRecord) (*domain.StatusChangeEvent, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatusChangeEvent), args.Error(1)
}

func (m *MockTrackingRepository) Get(ctx context.Context, flightNumber string) (*domain.FlightRecord, error) {
	args := m.Called(ctx, flightNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlightRecord), args.Error(1)
}

func (m *MockTrackingRepository) Delete(ctx context.Context, flightNumber string) error {
	args := m.Called(ctx, flightNumber)
	return args.Error(0)
}

func (m *MockTrackingRepository) ListAll(ctx context.Context) ([]domain.FlightRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.FlightRecord), args.Error(1)
}

func (m *MockTrackingRepository) ListTracked(ctx context.Context) ([]domain.FlightRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.FlightRecord), args.Error(1)
}

func (m *MockTrackingRepository) ListByRoute(ctx context.Context, dep, arr string) ([]domain.FlightRecord, error) {
	args := m.Called(ctx, dep, arr)
	return args.Get(0).([]domain.FlightRecord), args.Error(1)
}

func (m *MockTrackingRepository) AverageDuration(ctx context.Context, dep, arr string) (*float64, error) {
	args := m.Called(ctx, dep, arr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*float64), args.Error(1)
}

func (m *MockTrackingRepository) DepartureAirports(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTrackingRepository) ArrivalAirports(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTrackingRepository) RecentStatusChanges(ctx context.Context, limit int) ([]domain.StatusChangeEvent, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.StatusChangeEvent), args.Error(1)
}

func (m *MockTrackingRepository) StatusChangesForFlight(ctx context.Context, flightNumber string) ([]domain.StatusChangeEvent, error) {
	args := m.Called(ctx, flightNumber)
	return args.Get(0).([]domain.StatusChangeEvent), args.Error(1)
}

func (m *MockTrackingRepository) ClearStatusChanges(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) RefreshOne(ctx context.Context, flightNumber string, markTracked bool) (*domain.FlightRecord, error) {
	args := m.Called(ctx, flightNumber, markTracked)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlightRecord), args.Error(1)
}

func (m *MockRefresher) RefreshRoute(ctx context.Context, dep, arr string) ([]domain.FlightRecord, error) {
	args := m.Called(ctx, dep, arr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlightRecord), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context) ([]domain.FlightRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlightRecord), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, flights []domain.FlightRecord) error {
	args := m.Called(ctx, flights)
	return args.Error(0)
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestTrackingService_List_CacheHit(t *testing.T) {
	repo := &MockTrackingRepository{}
	cache := &MockCache{}

	cached := []domain.FlightRecord{{FlightNumber: "AA100"}}
	cache.On("GetFlights", mock.Anything).Return(cached, nil)

	svc := NewTrackingService(repo, nil, cache)

	flights, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, cached, flights)
	repo.AssertNotCalled(t, "ListAll", mock.Anything)
}

func TestTrackingService_List_CacheMiss(t *testing.T) {
	repo := &MockTrackingRepository{}
	cache := &MockCache{}

	stored := []domain.FlightRecord{{FlightNumber: "AA100"}, {FlightNumber: "BA112"}}
	cache.On("GetFlights", mock.Anything).Return(nil, nil)
	repo.On("ListAll", mock.Anything).Return(stored, nil)
	cache.On("SetFlights", mock.Anything, stored).Return(nil)

	svc := NewTrackingService(repo, nil, cache)

	flights, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, stored, flights)
	cache.AssertExpectations(t)
}

func TestTrackingService_List_CacheErrorFallsThrough(t *testing.T) {
	repo := &MockTrackingRepository{}
	cache := &MockCache{}

	stored := []domain.FlightRecord{{FlightNumber: "AA100"}}
	cache.On("GetFlights", mock.Anything).Return(nil, errors.New("redis down"))
	repo.On("ListAll", mock.Anything).Return(stored, nil)
	cache.On("SetFlights", mock.Anything, stored).Return(nil)

	svc := NewTrackingService(repo, nil, cache)

	flights, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, stored, flights)
}

func TestTrackingService_Get(t *testing.T) {
	repo := &MockTrackingRepository{}

	rec := &domain.FlightRecord{FlightNumber: "AA100", Tracked: true}
	repo.On("Get", mock.Anything, "AA100").Return(rec, nil)

	svc := NewTrackingService(repo, nil, nil)

	got, err := svc.Get(context.Background(), "AA100")

	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestTrackingService_Get_NotTracked(t *testing.T) {
	repo := &MockTrackingRepository{}
	repo.On("Get", mock.Anything, "ZZ999").Return(nil, nil)

	svc := NewTrackingService(repo, nil, nil)

	_, err := svc.Get(context.Background(), "ZZ999")

	assert.ErrorIs(t, err, ErrFlightNotTracked)
}

func TestTrackingService_Remove_InvalidatesCache(t *testing.T) {
	repo := &MockTrackingRepository{}
	cache := &MockCache{}

	repo.On("Delete", mock.Anything, "AA100").Return(nil)
	cache.On("InvalidateFlights", mock.Anything).Return(nil)

	svc := NewTrackingService(repo, nil, cache)

	err := svc.Remove(context.Background(), "AA100")

	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestTrackingService_Remove_DeleteError(t *testing.T) {
	repo := &MockTrackingRepository{}
	cache := &MockCache{}

	repo.On("Delete", mock.Anything, "AA100").Return(errors.New("db down"))

	svc := NewTrackingService(repo, nil, cache)

	err := svc.Remove(context.Background(), "AA100")

	require.Error(t, err)
	cache.AssertNotCalled(t, "InvalidateFlights", mock.Anything)
}

func TestTrackingService_Search_MarksTracked(t *testing.T) {
	refresher := &MockRefresher{}

	rec := &domain.FlightRecord{FlightNumber: "AA100", Tracked: true}
	refresher.On("RefreshOne", mock.Anything, "AA100", true).Return(rec, nil)

	svc := NewTrackingService(nil, refresher, nil)

	got, err := svc.Search(context.Background(), "AA100")

	require.NoError(t, err)
	assert.True(t, got.Tracked)
	refresher.AssertExpectations(t)
}

func TestTrackingService_SearchRoute(t *testing.T) {
	refresher := &MockRefresher{}

	records := []domain.FlightRecord{{FlightNumber: "AA100"}, {FlightNumber: "DL1234"}}
	refresher.On("RefreshRoute", mock.Anything, "JFK", "LAX").Return(records, nil)

	svc := NewTrackingService(nil, refresher, nil)

	got, err := svc.SearchRoute(context.Background(), "JFK", "LAX")

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestTrackingService_RecentStatusChanges_DefaultLimit(t *testing.T) {
	repo := &MockTrackingRepository{}
	repo.On("RecentStatusChanges", mock.Anything, 20).Return([]domain.StatusChangeEvent{}, nil)

	svc := NewTrackingService(repo, nil, nil)

	_, err := svc.RecentStatusChanges(context.Background(), 0)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestTrackingService_Airports(t *testing.T) {
	repo := &MockTrackingRepository{}
	repo.On("DepartureAirports", mock.Anything).Return([]string{"JFK", "LHR"}, nil)
	repo.On("ArrivalAirports", mock.Anything).Return([]string{"LAX"}, nil)

	svc := NewTrackingService(repo, nil, nil)

	departures, arrivals, err := svc.Airports(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"JFK", "LHR"}, departures)
	assert.Equal(t, []string{"LAX"}, arrivals)
}
