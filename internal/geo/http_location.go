package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPLocation queries the platform location service on loopback for
// the current GNSS fix. Any transport or decode failure maps to
// ErrLocationUnavailable; the caller treats that as "try again", not as
// a failed geofence.
type HTTPLocation struct {
	FixURL string
	Client *http.Client
}

func NewHTTPLocation(fixURL string) *HTTPLocation {
	return &HTTPLocation{
		FixURL: fixURL,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPLocation) CurrentFix(ctx context.Context) (Fix, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.FixURL, nil)
	if err != nil {
		return Fix{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return Fix{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Fix{}, fmt.Errorf("%w: location service returned %d", ErrLocationUnavailable, resp.StatusCode)
	}

	var body struct {
		Lat       float64 `json:"lat"`
		Lng       float64 `json:"lng"`
		AccuracyM float64 `json:"accuracy_m"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Fix{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}

	return Fix{
		Point:     Point{Lat: body.Lat, Lng: body.Lng},
		AccuracyM: body.AccuracyM,
		At:        time.Now(),
	}, nil
}
