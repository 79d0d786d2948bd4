package refresh

import (
	"context"
	"time"

	"github.com/Domenick1991/flighttrack/internal/domain"
)

// seed loads a small demonstration dataset when the tracked set is
// empty: a few tracked flights in different states plus landed
// historical rows so the route averages have something to chew on.
// Bootstrap/demo behavior only, gated behind refresh.seed_demo.
func (r *Refresher) seed(ctx context.Context) error {
	now := r.now()
	records := append(demoTracked(now), demoHistorical(now)...)
	for i := range records {
		rec := &records[i]
		r.locks.Lock(rec.FlightNumber)
		_, err := r.repo.Upsert(ctx, rec)
		r.locks.Unlock(rec.FlightNumber)
		if err != nil {
			return err
		}
	}
	if r.cache != nil {
		_ = r.cache.InvalidateFlights(ctx)
	}
	return nil
}

func demoTracked(now time.Time) []domain.FlightRecord {
	return []domain.FlightRecord{
		{
			FlightNumber:       "AA100",
			Airline:            "American Airlines",
			DepartureAirport:   "JFK",
			ArrivalAirport:     "LAX",
			ScheduledDeparture: tp(now.Add(time.Hour)),
			ScheduledArrival:   tp(now.Add(7 * time.Hour)),
			Status:             domain.StatusScheduled,
			Position: &domain.PositionSnapshot{
				Latitude: 40.6413, Longitude: -73.7781, HeadingDeg: 270, CapturedAt: now,
			},
			Tracked:     true,
			LastUpdated: now,
		},
		{
			FlightNumber:       "DL303",
			Airline:            "Delta Air Lines",
			DepartureAirport:   "ATL",
			ArrivalAirport:     "SEA",
			ScheduledDeparture: tp(now.Add(-30 * time.Minute)),
			ScheduledArrival:   tp(now.Add(4*time.Hour + 30*time.Minute)),
			ActualDeparture:    tp(now.Add(-30 * time.Minute)),
			Status:             domain.StatusActive,
			DelayMinutes:       ip(0),
			Position: &domain.PositionSnapshot{
				Latitude: 36.9265, Longitude: -89.4966, AltitudeM: 10668,
				HeadingDeg: 315, SpeedKmh: 850, CapturedAt: now,
			},
			Tracked:     true,
			LastUpdated: now,
		},
		{
			FlightNumber:       "BA112",
			Airline:            "British Airways",
			DepartureAirport:   "LHR",
			ArrivalAirport:     "JFK",
			ScheduledDeparture: tp(now.Add(-7 * time.Hour)),
			ScheduledArrival:   tp(now.Add(-time.Hour)),
			ActualDeparture:    tp(now.Add(-7 * time.Hour)),
			ActualArrival:      tp(now.Add(-35 * time.Minute)),
			Status:             domain.StatusLanded,
			DelayMinutes:       ip(25),
			Tracked:            true,
			LastUpdated:        now,
		},
		{
			FlightNumber:       "EK203",
			Airline:            "Emirates",
			DepartureAirport:   "DXB",
			ArrivalAirport:     "JFK",
			ScheduledDeparture: tp(now.Add(2 * time.Hour)),
			ScheduledArrival:   tp(now.Add(16 * time.Hour)),
			Status:             domain.StatusCancelled,
			Tracked:            true,
			LastUpdated:        now,
		},
	}
}

func demoHistorical(now time.Time) []domain.FlightRecord {
	day := 24 * time.Hour
	return []domain.FlightRecord{
		landed("AA102", "American Airlines", "JFK", "LAX", now.Add(-10*day), 6*time.Hour, 10),
		landed("AA104", "American Airlines", "JFK", "LAX", now.Add(-8*day), 6*time.Hour+20*time.Minute, 0),
		landed("BA178", "British Airways", "LHR", "JFK", now.Add(-12*day), 8*time.Hour, 30),
		landed("BA114", "British Airways", "LHR", "JFK", now.Add(-5*day), 7*time.Hour+30*time.Minute, 15),
		landed("UA456", "United Airlines", "SFO", "ORD", now.Add(-7*day), 4*time.Hour, 0),
		landed("UA789", "United Airlines", "SFO", "ORD", now.Add(-3*day), 4*time.Hour+15*time.Minute, 20),
	}
}

func landed(number, airline, dep, arr string, departed time.Time, duration time.Duration, delayMin int) domain.FlightRecord {
	arrived := departed.Add(duration)
	return domain.FlightRecord{
		FlightNumber:       number,
		Airline:            airline,
		DepartureAirport:   dep,
		ArrivalAirport:     arr,
		ScheduledDeparture: tp(departed),
		ScheduledArrival:   tp(arrived),
		ActualDeparture:    tp(departed),
		ActualArrival:      tp(arrived),
		Status:             domain.StatusLanded,
		DelayMinutes:       ip(delayMin),
		LastUpdated:        departed,
	}
}

func tp(t time.Time) *time.Time { return &t }
func ip(v int) *int             { return &v }
