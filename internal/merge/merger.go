// Package merge combines schedule data and live position data from two
// independent, partially-overlapping sources into one flight record.
// Everything here is pure: no clocks, no I/O, no stored state.
package merge

import (
	"errors"
	"time"

	"github.com/Domenick1991/flighttrack/internal/domain"
	"github.com/Domenick1991/flighttrack/internal/provider"
)

// ErrNothingToMerge means neither source produced data and no record
// should be written. A valid empty outcome, not a failure.
var ErrNothingToMerge = errors.New("no data from either source")

// Merge builds the replacement record for flightNumber out of the
// previously stored record (existing, may be nil), fresh schedule data
// (sched, nil when the schedule source had nothing) and a fresh report
// from the dedicated position source (pos, nil when not fetched or
// empty).
//
// Precedence for position fields is fixed: the dedicated position
// source wins over the schedule source's live hint, which wins over
// the previously stored snapshot. The override is field-by-field,
// so a field the fresh report does not supply falls back to the
// earlier layer instead of going empty.
//
// When only position data is available, the non-position fields are
// carried forward from the existing record with status forced to
// active. With no existing record either, a minimal record is
// synthesized with airline and airports left unknown and no scheduled
// times; inventing placeholder times here would poison the route
// duration averages.
func Merge(flightNumber string, existing *domain.FlightRecord, sched *provider.Schedule, pos *provider.PositionUpdate, now time.Time) (*domain.FlightRecord, error) {
	if sched == nil && pos == nil {
		return nil, ErrNothingToMerge
	}

	var rec domain.FlightRecord
	var hint *provider.PositionUpdate

	switch {
	case sched != nil:
		rec = fromSchedule(flightNumber, sched)
		hint = sched.Live
	case existing != nil:
		rec = *existing
		rec.Status = domain.StatusActive
	default:
		rec = domain.FlightRecord{
			FlightNumber: flightNumber,
			Status:       domain.StatusActive,
		}
	}

	if existing != nil {
		rec.Tracked = existing.Tracked
	}

	var prev *domain.PositionSnapshot
	if existing != nil {
		prev = existing.Position
	}
	rec.Position = overlayPosition(prev, hint, pos, now)

	rec.LastUpdated = lastUpdated(sched, pos, now)

	return &rec, nil
}

// Fallback carries an existing record forward with status error and a
// bumped update time. Written when every source failed for a tracked
// flight so it is not silently dropped from the refresh cycle.
func Fallback(existing *domain.FlightRecord, now time.Time) *domain.FlightRecord {
	rec := *existing
	rec.Status = domain.StatusError
	rec.LastUpdated = now
	return &rec
}

func fromSchedule(flightNumber string, s *provider.Schedule) domain.FlightRecord {
	if s.FlightNumber != "" {
		flightNumber = s.FlightNumber
	}
	return domain.FlightRecord{
		FlightNumber:       flightNumber,
		Airline:            s.Airline,
		DepartureAirport:   s.DepartureAirport,
		ArrivalAirport:     s.ArrivalAirport,
		ScheduledDeparture: s.ScheduledDeparture,
		ScheduledArrival:   s.ScheduledArrival,
		ActualDeparture:    s.ActualDeparture,
		ActualArrival:      s.ActualArrival,
		Status:             domain.ParseStatus(s.Status),
		DelayMinutes:       s.DelayMinutes,
	}
}

// overlayPosition resolves each telemetry field through the precedence
// chain fresh > hint > prev. The result is attached only when both
// coordinates resolved; a snapshot is never stored with partial
// coordinates.
func overlayPosition(prev *domain.PositionSnapshot, hint, fresh *provider.PositionUpdate, now time.Time) *domain.PositionSnapshot {
	if prev == nil && hint == nil && fresh == nil {
		return nil
	}

	lat, latOK := resolveFloat(fresh, hint, prev, pickLat)
	lon, lonOK := resolveFloat(fresh, hint, prev, pickLon)
	if !latOK || !lonOK {
		return nil
	}

	snap := &domain.PositionSnapshot{
		Latitude:  lat,
		Longitude: lon,
	}
	snap.AltitudeM, _ = resolveInt(fresh, hint, prev, pickAlt)
	snap.HeadingDeg, _ = resolveInt(fresh, hint, prev, pickHeading)
	snap.SpeedKmh, _ = resolveInt(fresh, hint, prev, pickSpeed)
	snap.CapturedAt = capturedAt(prev, hint, fresh, now)

	return snap
}

type fieldPick struct {
	fromUpdate func(*provider.PositionUpdate) *float64
	fromSnap   func(*domain.PositionSnapshot) float64
}

var (
	pickLat = fieldPick{
		fromUpdate: func(u *provider.PositionUpdate) *float64 { return u.Latitude },
		fromSnap:   func(s *domain.PositionSnapshot) float64 { return s.Latitude },
	}
	pickLon = fieldPick{
		fromUpdate: func(u *provider.PositionUpdate) *float64 { return u.Longitude },
		fromSnap:   func(s *domain.PositionSnapshot) float64 { return s.Longitude },
	}
	pickAlt = fieldPick{
		fromUpdate: func(u *provider.PositionUpdate) *float64 { return intPtrToFloat(u.AltitudeM) },
		fromSnap:   func(s *domain.PositionSnapshot) float64 { return float64(s.AltitudeM) },
	}
	pickHeading = fieldPick{
		fromUpdate: func(u *provider.PositionUpdate) *float64 { return intPtrToFloat(u.HeadingDeg) },
		fromSnap:   func(s *domain.PositionSnapshot) float64 { return float64(s.HeadingDeg) },
	}
	pickSpeed = fieldPick{
		fromUpdate: func(u *provider.PositionUpdate) *float64 { return intPtrToFloat(u.SpeedKmh) },
		fromSnap:   func(s *domain.PositionSnapshot) float64 { return float64(s.SpeedKmh) },
	}
)

func intPtrToFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func resolveFloat(fresh, hint *provider.PositionUpdate, prev *domain.PositionSnapshot, pick fieldPick) (float64, bool) {
	if fresh != nil {
		if v := pick.fromUpdate(fresh); v != nil {
			return *v, true
		}
	}
	if hint != nil {
		if v := pick.fromUpdate(hint); v != nil {
			return *v, true
		}
	}
	if prev != nil {
		return pick.fromSnap(prev), true
	}
	return 0, false
}

func resolveInt(fresh, hint *provider.PositionUpdate, prev *domain.PositionSnapshot, pick fieldPick) (int, bool) {
	v, ok := resolveFloat(fresh, hint, prev, pick)
	return int(v), ok
}

func capturedAt(prev *domain.PositionSnapshot, hint, fresh *provider.PositionUpdate, now time.Time) time.Time {
	if fresh != nil {
		if fresh.UpdatedAt != nil {
			return *fresh.UpdatedAt
		}
		return now
	}
	if hint != nil && hint.UpdatedAt != nil {
		return *hint.UpdatedAt
	}
	if prev != nil {
		return prev.CapturedAt
	}
	return now
}

// lastUpdated is the merge time whenever a dedicated position refresh
// happened; otherwise the schedule's own live-updated time when it has
// one.
func lastUpdated(sched *provider.Schedule, pos *provider.PositionUpdate, now time.Time) time.Time {
	if pos != nil {
		return now
	}
	if sched != nil && sched.Live != nil && sched.Live.UpdatedAt != nil {
		return *sched.Live.UpdatedAt
	}
	return now
}
