package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/flighttrack/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TrackingRepository interface {
	// Upsert replaces the record for its flight number. When the stored
	// status differs from the incoming one it records a status-change
	// event in the same transaction and returns it; otherwise it
	// returns nil. Compare-and-replace is atomic per flight number.
	Upsert(ctx context.Context, rec *domain.FlightRecord) (*domain.StatusChangeEvent, error)
	Get(ctx context.Context, flightNumber string) (*domain.FlightRecord, error)
	Delete(ctx context.Context, flightNumber string) error
	ListAll(ctx context.Context) ([]domain.FlightRecord, error)
	ListTracked(ctx context.Context) ([]domain.FlightRecord, error)
	ListByRoute(ctx context.Context, depAirport, arrAirport string) ([]domain.FlightRecord, error)
	// AverageDuration returns the mean flight duration in minutes over
	// all records for the route where a duration is derivable, or nil
	// when no record qualifies.
	AverageDuration(ctx context.Context, depAirport, arrAirport string) (*float64, error)
	DepartureAirports(ctx context.Context) ([]string, error)
	ArrivalAirports(ctx context.Context) ([]string, error)
	RecentStatusChanges(ctx context.Context, limit int) ([]domain.StatusChangeEvent, error)
	StatusChangesForFlight(ctx context.Context, flightNumber string) ([]domain.StatusChangeEvent, error)
	ClearStatusChanges(ctx context.Context) error
}

type PGTrackingRepository struct {
	db *pgxpool.Pool
}

func NewTrackingRepository(db *pgxpool.Pool) TrackingRepository {
	return &PGTrackingRepository{db: db}
}

const flightColumns = `flight_number, airline, departure_airport, arrival_airport,
	scheduled_departure, scheduled_arrival, actual_departure, actual_arrival,
	status, delay_minutes, latitude, longitude, altitude_m, heading_deg, speed_kmh,
	position_at, tracked, last_updated`

func (r *PGTrackingRepository) Upsert(ctx context.Context, rec *domain.FlightRecord) (*domain.StatusChangeEvent, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var prevStatus *string
	err = tx.QueryRow(ctx, `SELECT status FROM flights WHERE flight_number=$1 FOR UPDATE`, rec.FlightNumber).Scan(&prevStatus)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var lat, lon *float64
	var alt, hdg, spd *int
	var posAt *time.Time
	if p := rec.Position; p != nil {
		lat, lon = &p.Latitude, &p.Longitude
		alt, hdg, spd = &p.AltitudeM, &p.HeadingDeg, &p.SpeedKmh
		posAt = &p.CapturedAt
	}

	_, err = tx.Exec(ctx, `INSERT INTO flights (`+flightColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (flight_number) DO UPDATE SET
			airline=EXCLUDED.airline,
			departure_airport=EXCLUDED.departure_airport,
			arrival_airport=EXCLUDED.arrival_airport,
			scheduled_departure=EXCLUDED.scheduled_departure,
			scheduled_arrival=EXCLUDED.scheduled_arrival,
			actual_departure=EXCLUDED.actual_departure,
			actual_arrival=EXCLUDED.actual_arrival,
			status=EXCLUDED.status,
			delay_minutes=EXCLUDED.delay_minutes,
			latitude=EXCLUDED.latitude,
			longitude=EXCLUDED.longitude,
			altitude_m=EXCLUDED.altitude_m,
			heading_deg=EXCLUDED.heading_deg,
			speed_kmh=EXCLUDED.speed_kmh,
			position_at=EXCLUDED.position_at,
			tracked=EXCLUDED.tracked,
			last_updated=EXCLUDED.last_updated`,
		rec.FlightNumber, rec.Airline, rec.DepartureAirport, rec.ArrivalAirport,
		rec.ScheduledDeparture, rec.ScheduledArrival, rec.ActualDeparture, rec.ActualArrival,
		string(rec.Status), rec.DelayMinutes, lat, lon, alt, hdg, spd,
		posAt, rec.Tracked, rec.LastUpdated)
	if err != nil {
		return nil, err
	}

	var event *domain.StatusChangeEvent
	if prevStatus != nil && *prevStatus != string(rec.Status) {
		event = &domain.StatusChangeEvent{
			FlightNumber:   rec.FlightNumber,
			Airline:        rec.Airline,
			PreviousStatus: domain.FlightStatus(*prevStatus),
			NewStatus:      rec.Status,
		}
		err = tx.QueryRow(ctx, `INSERT INTO status_changes (flight_number, airline, previous_status, new_status)
			VALUES ($1, $2, $3, $4) RETURNING id, occurred_at`,
			event.FlightNumber, event.Airline, string(event.PreviousStatus), string(event.NewStatus)).
			Scan(&event.ID, &event.OccurredAt)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return event, nil
}

// Get returns nil without an error when no record exists for the
// flight number.
func (r *PGTrackingRepository) Get(ctx context.Context, flightNumber string) (*domain.FlightRecord, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE flight_number=$1`, flightNumber)
	rec, err := scanFlight(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *PGTrackingRepository) Delete(ctx context.Context, flightNumber string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM status_changes WHERE flight_number=$1`, flightNumber); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM flights WHERE flight_number=$1`, flightNumber); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGTrackingRepository) ListAll(ctx context.Context) ([]domain.FlightRecord, error) {
	return r.list(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY last_updated DESC`)
}

func (r *PGTrackingRepository) ListTracked(ctx context.Context) ([]domain.FlightRecord, error) {
	return r.list(ctx, `SELECT `+flightColumns+` FROM flights WHERE tracked ORDER BY last_updated DESC`)
}

func (r *PGTrackingRepository) ListByRoute(ctx context.Context, depAirport, arrAirport string) ([]domain.FlightRecord, error) {
	return r.list(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE departure_airport=$1 AND arrival_airport=$2 ORDER BY last_updated DESC`, depAirport, arrAirport)
}

func (r *PGTrackingRepository) list(ctx context.Context, query string, args ...any) ([]domain.FlightRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.FlightRecord, 0)
	for rows.Next() {
		rec, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *rec)
	}
	return flights, rows.Err()
}

func (r *PGTrackingRepository) AverageDuration(ctx context.Context, depAirport, arrAirport string) (*float64, error) {
	var minutes *float64
	err := r.db.QueryRow(ctx, `SELECT
			AVG(EXTRACT(EPOCH FROM (COALESCE(actual_arrival, scheduled_arrival) - COALESCE(actual_departure, scheduled_departure))) / 60)
		FROM flights
		WHERE departure_airport=$1 AND arrival_airport=$2
			AND COALESCE(actual_arrival, scheduled_arrival) IS NOT NULL
			AND COALESCE(actual_departure, scheduled_departure) IS NOT NULL`,
		depAirport, arrAirport).Scan(&minutes)
	if err != nil {
		return nil, err
	}
	return minutes, nil
}

func (r *PGTrackingRepository) DepartureAirports(ctx context.Context) ([]string, error) {
	return r.airports(ctx, `SELECT DISTINCT departure_airport FROM flights WHERE departure_airport <> '' ORDER BY departure_airport`)
}

func (r *PGTrackingRepository) ArrivalAirports(ctx context.Context) ([]string, error) {
	return r.airports(ctx, `SELECT DISTINCT arrival_airport FROM flights WHERE arrival_airport <> '' ORDER BY arrival_airport`)
}

func (r *PGTrackingRepository) airports(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	airports := make([]string, 0)
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		airports = append(airports, a)
	}
	return airports, rows.Err()
}

func (r *PGTrackingRepository) RecentStatusChanges(ctx context.Context, limit int) ([]domain.StatusChangeEvent, error) {
	return r.statusChanges(ctx, `SELECT id, flight_number, airline, previous_status, new_status, occurred_at
		FROM status_changes ORDER BY occurred_at DESC, id DESC LIMIT $1`, limit)
}

func (r *PGTrackingRepository) StatusChangesForFlight(ctx context.Context, flightNumber string) ([]domain.StatusChangeEvent, error) {
	return r.statusChanges(ctx, `SELECT id, flight_number, airline, previous_status, new_status, occurred_at
		FROM status_changes WHERE flight_number=$1 ORDER BY occurred_at DESC, id DESC`, flightNumber)
}

func (r *PGTrackingRepository) statusChanges(ctx context.Context, query string, args ...any) ([]domain.StatusChangeEvent, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.StatusChangeEvent, 0)
	for rows.Next() {
		var e domain.StatusChangeEvent
		var prev, next string
		if err := rows.Scan(&e.ID, &e.FlightNumber, &e.Airline, &prev, &next, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.PreviousStatus = domain.FlightStatus(prev)
		e.NewStatus = domain.FlightStatus(next)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *PGTrackingRepository) ClearStatusChanges(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM status_changes`)
	return err
}

func scanFlight(row pgx.Row) (*domain.FlightRecord, error) {
	var rec domain.FlightRecord
	var status string
	var lat, lon *float64
	var alt, hdg, spd *int
	var posAt *time.Time

	if err := row.Scan(&rec.FlightNumber, &rec.Airline, &rec.DepartureAirport, &rec.ArrivalAirport,
		&rec.ScheduledDeparture, &rec.ScheduledArrival, &rec.ActualDeparture, &rec.ActualArrival,
		&status, &rec.DelayMinutes, &lat, &lon, &alt, &hdg, &spd,
		&posAt, &rec.Tracked, &rec.LastUpdated); err != nil {
		return nil, err
	}

	rec.Status = domain.FlightStatus(status)
	if lat != nil && lon != nil {
		snap := &domain.PositionSnapshot{Latitude: *lat, Longitude: *lon}
		if alt != nil {
			snap.AltitudeM = *alt
		}
		if hdg != nil {
			snap.HeadingDeg = *hdg
		}
		if spd != nil {
			snap.SpeedKmh = *spd
		}
		if posAt != nil {
			snap.CapturedAt = *posAt
		}
		rec.Position = snap
	}
	return &rec, nil
}

var _ TrackingRepository = (*PGTrackingRepository)(nil)
