package geo

import (
	"context"
	"errors"
	"time"
)

// ErrLocationUnavailable means no fix could be acquired: permission was
// denied or acquisition timed out. It is a distinct state, not a failed
// geofence; callers must branch on it explicitly (retry, never confirm).
var ErrLocationUnavailable = errors.New("geo: location unavailable")

// Fix is a single location reading from the device.
type Fix struct {
	Point
	AccuracyM float64   `json:"accuracy_m"`
	At        time.Time `json:"at"`
}

// LocationProvider is the injected capability for acquiring the current
// position. Implementations wrap the platform location service; tests
// use fakes.
type LocationProvider interface {
	CurrentFix(ctx context.Context) (Fix, error)
}
