package merge

import (
	"testing"
	"time"

	"github.com/Domenick1991/flighttrack/internal/domain"
	"github.com/Domenick1991/flighttrack/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mergeTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fp(v float64) *float64 { return &v }
func np(v int) *int         { return &v }
func tsp(t time.Time) *time.Time {
	return &t
}

func TestMerge_NothingToMerge(t *testing.T) {
	rec, err := Merge("AA100", nil, nil, nil, mergeTime)

	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrNothingToMerge)
}

func TestMerge_ScheduleOnly(t *testing.T) {
	dep := mergeTime.Add(time.Hour)
	arr := mergeTime.Add(7 * time.Hour)
	sched := &provider.Schedule{
		FlightNumber:       "AA100",
		Airline:            "American Airlines",
		DepartureAirport:   "JFK",
		ArrivalAirport:     "LAX",
		ScheduledDeparture: &dep,
		ScheduledArrival:   &arr,
		Status:             "scheduled",
		DelayMinutes:       np(15),
	}

	rec, err := Merge("AA100", nil, sched, nil, mergeTime)

	require.NoError(t, err)
	assert.Equal(t, "AA100", rec.FlightNumber)
	assert.Equal(t, "American Airlines", rec.Airline)
	assert.Equal(t, "JFK", rec.DepartureAirport)
	assert.Equal(t, "LAX", rec.ArrivalAirport)
	assert.Equal(t, domain.StatusScheduled, rec.Status)
	assert.Equal(t, 15, *rec.DelayMinutes)
	assert.Nil(t, rec.Position)
	assert.Equal(t, mergeTime, rec.LastUpdated)
}

func TestMerge_ScheduleFlightNumberWins(t *testing.T) {
	sched := &provider.Schedule{FlightNumber: "AA100", Status: "active"}

	rec, err := Merge("aa100", nil, sched, nil, mergeTime)

	require.NoError(t, err)
	assert.Equal(t, "AA100", rec.FlightNumber)
}

func TestMerge_UnknownStatusNormalized(t *testing.T) {
	sched := &provider.Schedule{FlightNumber: "AA100", Status: "diverted"}

	rec, err := Merge("AA100", nil, sched, nil, mergeTime)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnknown, rec.Status)
}

func TestMerge_ScheduleWithLiveHint(t *testing.T) {
	updated := mergeTime.Add(-2 * time.Minute)
	sched := &provider.Schedule{
		FlightNumber: "DL303",
		Status:       "active",
		Live: &provider.PositionUpdate{
			Latitude:   fp(36.9),
			Longitude:  fp(-89.4),
			AltitudeM:  np(10668),
			HeadingDeg: np(315),
			SpeedKmh:   np(850),
			UpdatedAt:  &updated,
		},
	}

	rec, err := Merge("DL303", nil, sched, nil, mergeTime)

	require.NoError(t, err)
	require.NotNil(t, rec.Position)
	assert.Equal(t, 36.9, rec.Position.Latitude)
	assert.Equal(t, -89.4, rec.Position.Longitude)
	assert.Equal(t, 10668, rec.Position.AltitudeM)
	assert.Equal(t, updated, rec.Position.CapturedAt)
	// No dedicated position refresh: lastUpdated comes from the hint.
	assert.Equal(t, updated, rec.LastUpdated)
}

func TestMerge_PositionPrecedenceChain(t *testing.T) {
	// P0: previously stored snapshot.
	existing := &domain.FlightRecord{
		FlightNumber: "BA112",
		Status:       domain.StatusActive,
		Position: &domain.PositionSnapshot{
			Latitude:   50.0,
			Longitude:  -1.0,
			AltitudeM:  9000,
			HeadingDeg: 180,
			SpeedKmh:   700,
			CapturedAt: mergeTime.Add(-time.Hour),
		},
	}
	// P1: schedule-source hint supplies coordinates and altitude.
	sched := &provider.Schedule{
		FlightNumber: "BA112",
		Status:       "active",
		Live: &provider.PositionUpdate{
			Latitude:  fp(51.0),
			Longitude: fp(-2.0),
			AltitudeM: np(10000),
		},
	}
	// P2: dedicated source supplies latitude and speed only.
	fresh := &provider.PositionUpdate{
		Latitude: fp(52.0),
		SpeedKmh: np(800),
	}

	rec, err := Merge("BA112", existing, sched, fresh, mergeTime)

	require.NoError(t, err)
	require.NotNil(t, rec.Position)
	assert.Equal(t, 52.0, rec.Position.Latitude, "dedicated source wins")
	assert.Equal(t, -2.0, rec.Position.Longitude, "falls back to hint")
	assert.Equal(t, 10000, rec.Position.AltitudeM, "falls back to hint")
	assert.Equal(t, 180, rec.Position.HeadingDeg, "falls back to stored snapshot")
	assert.Equal(t, 800, rec.Position.SpeedKmh, "dedicated source wins")
	assert.Equal(t, mergeTime, rec.LastUpdated, "position refresh stamps the merge time")
}

func TestMerge_PositionOnly_CarriesForwardExisting(t *testing.T) {
	dep := mergeTime.Add(-2 * time.Hour)
	existing := &domain.FlightRecord{
		FlightNumber:       "UA201",
		Airline:            "United Airlines",
		DepartureAirport:   "SFO",
		ArrivalAirport:     "ORD",
		ScheduledDeparture: tsp(dep),
		Status:             domain.StatusScheduled,
		Tracked:            true,
	}
	fresh := &provider.PositionUpdate{
		Latitude:  fp(41.0),
		Longitude: fp(-95.0),
		SpeedKmh:  np(820),
	}

	rec, err := Merge("UA201", existing, nil, fresh, mergeTime)

	require.NoError(t, err)
	assert.Equal(t, "United Airlines", rec.Airline)
	assert.Equal(t, "SFO", rec.DepartureAirport)
	assert.Equal(t, domain.StatusActive, rec.Status, "position-only data means the flight is airborne")
	assert.True(t, rec.Tracked)
	require.NotNil(t, rec.Position)
	assert.Equal(t, 41.0, rec.Position.Latitude)
}

func TestMerge_PositionOnly_SynthesizesMinimalRecord(t *testing.T) {
	fresh := &provider.PositionUpdate{
		Latitude:  fp(41.0),
		Longitude: fp(-95.0),
	}

	rec, err := Merge("UA201", nil, nil, fresh, mergeTime)

	require.NoError(t, err)
	assert.Equal(t, "UA201", rec.FlightNumber)
	assert.Empty(t, rec.Airline)
	assert.Empty(t, rec.DepartureAirport)
	assert.Equal(t, domain.StatusActive, rec.Status)
	assert.Nil(t, rec.ScheduledDeparture, "no fabricated schedule times")
	assert.Nil(t, rec.ScheduledArrival)
	require.NotNil(t, rec.Position)
}

func TestMerge_PartialCoordinatesDropped(t *testing.T) {
	// Latitude without longitude from the only source: no snapshot.
	fresh := &provider.PositionUpdate{Latitude: fp(41.0)}

	rec, err := Merge("UA201", nil, nil, fresh, mergeTime)

	require.NoError(t, err)
	assert.Nil(t, rec.Position)
}

func TestMerge_PartialFreshCompletedByStored(t *testing.T) {
	existing := &domain.FlightRecord{
		FlightNumber: "UA201",
		Status:       domain.StatusActive,
		Position: &domain.PositionSnapshot{
			Latitude:  40.0,
			Longitude: -94.0,
		},
	}
	fresh := &provider.PositionUpdate{Latitude: fp(41.0)}

	rec, err := Merge("UA201", existing, nil, fresh, mergeTime)

	require.NoError(t, err)
	require.NotNil(t, rec.Position)
	assert.Equal(t, 41.0, rec.Position.Latitude)
	assert.Equal(t, -94.0, rec.Position.Longitude)
}

func TestMerge_TrackedFlagPreserved(t *testing.T) {
	existing := &domain.FlightRecord{
		FlightNumber: "AA100",
		Status:       domain.StatusScheduled,
		Tracked:      true,
	}
	sched := &provider.Schedule{FlightNumber: "AA100", Status: "active"}

	rec, err := Merge("AA100", existing, sched, nil, mergeTime)

	require.NoError(t, err)
	assert.True(t, rec.Tracked)
}

func TestFallback(t *testing.T) {
	existing := &domain.FlightRecord{
		FlightNumber: "EK203",
		Airline:      "Emirates",
		Status:       domain.StatusActive,
		LastUpdated:  mergeTime.Add(-time.Hour),
	}

	rec := Fallback(existing, mergeTime)

	assert.Equal(t, domain.StatusError, rec.Status)
	assert.Equal(t, mergeTime, rec.LastUpdated)
	assert.Equal(t, "Emirates", rec.Airline)
	// The input record is not mutated.
	assert.Equal(t, domain.StatusActive, existing.Status)
}
