package domain

import (
	"strings"
	"time"
)

type FlightStatus string

const (
	StatusScheduled FlightStatus = "scheduled"
	StatusActive    FlightStatus = "active"
	StatusLanded    FlightStatus = "landed"
	StatusCancelled FlightStatus = "cancelled"
	StatusError     FlightStatus = "error"
	StatusUnknown   FlightStatus = "unknown"
)

// ParseStatus normalizes a provider status string. Anything outside the
// known set maps to StatusUnknown rather than leaking raw strings into
// stored records.
func ParseStatus(s string) FlightStatus {
	switch FlightStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusScheduled:
		return StatusScheduled
	case StatusActive:
		return StatusActive
	case StatusLanded:
		return StatusLanded
	case StatusCancelled:
		return StatusCancelled
	case StatusError:
		return StatusError
	default:
		return StatusUnknown
	}
}

// PositionSnapshot is the live telemetry attached to a flight record.
// It is either fully present or absent: a record never carries a
// latitude without a longitude.
type PositionSnapshot struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	AltitudeM  int       `json:"altitude_m"`
	HeadingDeg int       `json:"heading_deg"`
	SpeedKmh   int       `json:"speed_kmh"`
	CapturedAt time.Time `json:"captured_at"`
}

// FlightRecord is the current state of one tracked flight, keyed by
// flight number. Each refresh replaces the whole record; it is never
// patched field-by-field in storage.
type FlightRecord struct {
	FlightNumber       string            `json:"flight_number"`
	Airline            string            `json:"airline"`
	DepartureAirport   string            `json:"departure_airport"`
	ArrivalAirport     string            `json:"arrival_airport"`
	ScheduledDeparture *time.Time        `json:"scheduled_departure,omitempty"`
	ScheduledArrival   *time.Time        `json:"scheduled_arrival,omitempty"`
	ActualDeparture    *time.Time        `json:"actual_departure,omitempty"`
	ActualArrival      *time.Time        `json:"actual_arrival,omitempty"`
	Status             FlightStatus      `json:"status"`
	DelayMinutes       *int              `json:"delay_minutes,omitempty"`
	Position           *PositionSnapshot `json:"position,omitempty"`
	Tracked            bool              `json:"tracked"`
	LastUpdated        time.Time         `json:"last_updated"`
}

// DepartureInstant returns the best known departure time, preferring
// the actual one over the scheduled one.
func (f *FlightRecord) DepartureInstant() *time.Time {
	if f.ActualDeparture != nil {
		return f.ActualDeparture
	}
	return f.ScheduledDeparture
}

// ArrivalInstant returns the best known arrival time, preferring the
// actual one over the scheduled one.
func (f *FlightRecord) ArrivalInstant() *time.Time {
	if f.ActualArrival != nil {
		return f.ActualArrival
	}
	return f.ScheduledArrival
}

// Duration returns the flight duration when both endpoints are known.
func (f *FlightRecord) Duration() (time.Duration, bool) {
	dep, arr := f.DepartureInstant(), f.ArrivalInstant()
	if dep == nil || arr == nil {
		return 0, false
	}
	return arr.Sub(*dep), true
}

// StatusChangeEvent is an append-only log entry recorded whenever a
// refresh stores a status different from the previous one.
type StatusChangeEvent struct {
	ID             int64        `json:"id"`
	FlightNumber   string       `json:"flight_number"`
	Airline        string       `json:"airline"`
	PreviousStatus FlightStatus `json:"previous_status"`
	NewStatus      FlightStatus `json:"new_status"`
	OccurredAt     time.Time    `json:"occurred_at"`
}
