package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Domenick1991/flighttrack/config"
)

// Schedule is the normalized schedule/status data for one flight as
// reported by AviationStack.
type Schedule struct {
	FlightNumber       string
	Airline            string
	DepartureAirport   string
	ArrivalAirport     string
	ScheduledDeparture *time.Time
	ScheduledArrival   *time.Time
	ActualDeparture    *time.Time
	ActualArrival      *time.Time
	Status             string
	DelayMinutes       *int

	// Live is the provider's own position hint, set only when the
	// response carried fresh telemetry. Partial by nature.
	Live *PositionUpdate
}

// PositionUpdate is a partial position report. Nil fields were not
// supplied by the source; speeds are always km/h by the time they
// leave this package.
type PositionUpdate struct {
	Latitude   *float64
	Longitude  *float64
	AltitudeM  *int
	HeadingDeg *int
	SpeedKmh   *int
	UpdatedAt  *time.Time
}

type ScheduleClient interface {
	FetchFlight(ctx context.Context, flightNumber string) (*Schedule, error)
	FetchRoute(ctx context.Context, depAirport, arrAirport string) ([]Schedule, error)
}

// AviationStackClient talks to the AviationStack flights endpoint.
// It never retries; retry policy belongs to the refresh scheduler.
type AviationStackClient struct {
	baseURL   string
	accessKey string
	client    *http.Client
}

func NewAviationStackClient(cfg config.AviationStackConfig) *AviationStackClient {
	return &AviationStackClient{
		baseURL:   cfg.BaseURL,
		accessKey: cfg.AccessKey,
		client:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// flightsResponse mirrors the JSON envelope of /flights.
type flightsResponse struct {
	Data []flightJSON `json:"data"`
}

type flightJSON struct {
	FlightStatus string `json:"flight_status"`
	Departure    struct {
		IATA      string `json:"iata"`
		Scheduled string `json:"scheduled"`
		Actual    string `json:"actual"`
		Delay     *int   `json:"delay"`
	} `json:"departure"`
	Arrival struct {
		IATA      string `json:"iata"`
		Scheduled string `json:"scheduled"`
		Actual    string `json:"actual"`
	} `json:"arrival"`
	Airline struct {
		Name string `json:"name"`
		IATA string `json:"iata"`
	} `json:"airline"`
	Flight struct {
		Number string `json:"number"`
	} `json:"flight"`
	Live *struct {
		Updated         string   `json:"updated"`
		Latitude        *float64 `json:"latitude"`
		Longitude       *float64 `json:"longitude"`
		Altitude        *float64 `json:"altitude"`
		Direction       *float64 `json:"direction"`
		SpeedHorizontal *float64 `json:"speed_horizontal"`
	} `json:"live"`
}

func (c *AviationStackClient) FetchFlight(ctx context.Context, flightNumber string) (*Schedule, error) {
	q := url.Values{}
	q.Set("flight_iata", flightNumber)

	schedules, err := c.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, ErrNotFound
	}
	return &schedules[0], nil
}

func (c *AviationStackClient) FetchRoute(ctx context.Context, depAirport, arrAirport string) ([]Schedule, error) {
	q := url.Values{}
	q.Set("dep_iata", depAirport)
	q.Set("arr_iata", arrAirport)

	schedules, err := c.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, ErrNotFound
	}
	return schedules, nil
}

func (c *AviationStackClient) fetch(ctx context.Context, q url.Values) ([]Schedule, error) {
	q.Set("access_key", c.accessKey)
	reqURL := fmt.Sprintf("%s/flights?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetError{Op: "aviationstack", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("aviationstack: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetError{Op: "aviationstack", Err: err}
	}

	var envelope flightsResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("aviationstack: parsing response: %w", err)
	}

	schedules := make([]Schedule, 0, len(envelope.Data))
	for _, f := range envelope.Data {
		schedules = append(schedules, toSchedule(f))
	}
	return schedules, nil
}

func toSchedule(f flightJSON) Schedule {
	s := Schedule{
		FlightNumber:       f.Airline.IATA + f.Flight.Number,
		Airline:            f.Airline.Name,
		DepartureAirport:   f.Departure.IATA,
		ArrivalAirport:     f.Arrival.IATA,
		ScheduledDeparture: parseTime(f.Departure.Scheduled),
		ScheduledArrival:   parseTime(f.Arrival.Scheduled),
		ActualDeparture:    parseTime(f.Departure.Actual),
		ActualArrival:      parseTime(f.Arrival.Actual),
		Status:             f.FlightStatus,
		DelayMinutes:       f.Departure.Delay,
	}

	if f.Live != nil {
		live := &PositionUpdate{
			Latitude:  f.Live.Latitude,
			Longitude: f.Live.Longitude,
			UpdatedAt: parseTime(f.Live.Updated),
		}
		if f.Live.Altitude != nil {
			alt := int(*f.Live.Altitude)
			live.AltitudeM = &alt
		}
		if f.Live.Direction != nil {
			hdg := int(*f.Live.Direction)
			live.HeadingDeg = &hdg
		}
		if f.Live.SpeedHorizontal != nil {
			spd := int(*f.Live.SpeedHorizontal)
			live.SpeedKmh = &spd
		}
		s.Live = live
	}

	return s
}

// parseTime handles both timestamp layouts AviationStack emits: full
// RFC3339 and the same shape without a zone offset.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

var _ ScheduleClient = (*AviationStackClient)(nil)
