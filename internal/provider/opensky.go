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

// minStateFields is the minimum state vector length needed to extract
// the fields this system uses. Shorter vectors are reported as NoData
// instead of producing a partial snapshot.
const minStateFields = 8

// State vector indices per the OpenSky /states/all response.
const (
	idxCallsign  = 1
	idxLongitude = 5
	idxLatitude  = 6
	idxAltitude  = 7
	idxVelocity  = 9
	idxHeading   = 10
)

// mpsToKmh converts the provider's m/s velocities to km/h. Speeds are
// normalized here so nothing downstream sees source units.
const mpsToKmh = 3.6

type PositionClient interface {
	FetchPosition(ctx context.Context, icao24 string, at time.Time) (*PositionUpdate, error)
}

// OpenSkyClient fetches live state vectors for a single aircraft.
type OpenSkyClient struct {
	baseURL string
	client  *http.Client
}

func NewOpenSkyClient(cfg config.OpenSkyConfig) *OpenSkyClient {
	return &OpenSkyClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// openSkyResponse mirrors the JSON shape of /states/all. States are
// heterogeneous-typed arrays; they are decoded into PositionUpdate
// before leaving this package.
type openSkyResponse struct {
	Time   int64   `json:"time"`
	States [][]any `json:"states"`
}

// FetchPosition returns the most recent state vector for the aircraft,
// or ErrNoData when the provider has nothing usable.
func (c *OpenSkyClient) FetchPosition(ctx context.Context, icao24 string, at time.Time) (*PositionUpdate, error) {
	q := url.Values{}
	q.Set("icao24", icao24)
	q.Set("time", fmt.Sprintf("%d", at.Unix()))
	reqURL := fmt.Sprintf("%s/states/all?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetError{Op: "opensky", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("opensky: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetError{Op: "opensky", Err: err}
	}

	var raw openSkyResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("opensky: parsing response: %w", err)
	}

	if len(raw.States) == 0 || len(raw.States[0]) < minStateFields {
		return nil, ErrNoData
	}

	return parseState(raw.States[0], time.Now()), nil
}

// parseState decodes one state vector. A length-8 vector legally lacks
// velocity and heading, so every read past the minimum is guarded.
func parseState(state []any, now time.Time) *PositionUpdate {
	upd := &PositionUpdate{UpdatedAt: &now}

	if v, ok := floatAt(state, idxLatitude); ok {
		upd.Latitude = &v
	}
	if v, ok := floatAt(state, idxLongitude); ok {
		upd.Longitude = &v
	}
	if v, ok := floatAt(state, idxAltitude); ok {
		alt := int(v)
		upd.AltitudeM = &alt
	}
	if v, ok := floatAt(state, idxVelocity); ok {
		spd := int(v * mpsToKmh)
		upd.SpeedKmh = &spd
	}
	if v, ok := floatAt(state, idxHeading); ok {
		hdg := int(v)
		upd.HeadingDeg = &hdg
	}

	return upd
}

func floatAt(state []any, idx int) (float64, bool) {
	if idx >= len(state) {
		return 0, false
	}
	v, ok := state[idx].(float64)
	return v, ok
}

var _ PositionClient = (*OpenSkyClient)(nil)
