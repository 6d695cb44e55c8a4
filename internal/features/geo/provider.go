package geo

import (
	"context"
	"errors"
	"strconv"

	"go-stationwatch/internal/config"
)

// Coordinates is a device position in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// ErrUnavailable means no position source exists on this installation.
var ErrUnavailable = errors.New("geolocation unavailable")

// Provider yields the device position. Implementations must respect ctx;
// the submission builder bounds the wait and treats any error as a silent
// degrade, never a user-visible failure.
type Provider interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// Func adapts a plain function to Provider.
type Func func(ctx context.Context) (Coordinates, error)

func (f Func) Locate(ctx context.Context) (Coordinates, error) {
	return f(ctx)
}

// Static always returns a fixed position, e.g. a kiosk that knows where it
// is installed.
type Static struct {
	Coords Coordinates
}

func (s Static) Locate(ctx context.Context) (Coordinates, error) {
	return s.Coords, nil
}

// Unavailable always degrades.
type Unavailable struct{}

func (Unavailable) Locate(ctx context.Context) (Coordinates, error) {
	return Coordinates{}, ErrUnavailable
}

// FromConfig picks the provider for this installation: fixed coordinates
// when both are configured, otherwise an unavailable source.
func FromConfig(cfg *config.Config) Provider {
	lat, latErr := strconv.ParseFloat(cfg.GeoLatitude, 64)
	lng, lngErr := strconv.ParseFloat(cfg.GeoLongitude, 64)
	if latErr != nil || lngErr != nil {
		return Unavailable{}
	}
	return Static{Coords: Coordinates{Latitude: lat, Longitude: lng}}
}
