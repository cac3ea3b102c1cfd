// Package geo holds the shared geolocation and derives the map embed snippet.
//
// A Position is written by the map collaborator (click to place, search
// result selection) or by manual coordinate fields, and read by the renderer
// and the exporter. It is owned by the event-dispatch goroutine and is not
// safe for concurrent writers.
package geo

import (
	"fmt"
	"math"

	"github.com/atotto/clipboard"

	"github.com/menta2k/image-annotator/pkg/types"
)

// Position is the shared, mutable geolocation
type Position struct {
	current types.GeoPosition
	version uint64
}

// NewPosition creates a Position at lat/lng
func NewPosition(lat, lng float64) *Position {
	return &Position{current: types.GeoPosition{Lat: lat, Lng: lng}}
}

// Get returns the current value
func (p *Position) Get() types.GeoPosition {
	return p.current
}

// Set replaces the current value; out-of-range coordinates are rejected
func (p *Position) Set(lat, lng float64) error {
	if err := Validate(lat, lng); err != nil {
		return err
	}
	next := types.GeoPosition{Lat: lat, Lng: lng}
	if next == p.current {
		return nil
	}
	p.current = next
	p.version++
	return nil
}

// SetLat replaces only the latitude, as a manual edit field does
func (p *Position) SetLat(lat float64) error {
	return p.Set(lat, p.current.Lng)
}

// SetLng replaces only the longitude, as a manual edit field does
func (p *Position) SetLng(lng float64) error {
	return p.Set(p.current.Lat, lng)
}

// Version increases on every change of value
func (p *Position) Version() uint64 {
	return p.version
}

// Validate checks latitude and longitude ranges
func Validate(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", lng)
	}
	return nil
}

// EmbedOptions sizes the embedded map viewer
type EmbedOptions struct {
	Zoom   int
	Width  int
	Height int
}

// DefaultEmbedOptions returns a 600x450 viewer at street zoom
func DefaultEmbedOptions() EmbedOptions {
	return EmbedOptions{Zoom: 15, Width: 600, Height: 450}
}

// EmbedSnippet returns an embeddable map-viewer fragment centered on pos
func EmbedSnippet(pos types.GeoPosition, opts EmbedOptions) string {
	return fmt.Sprintf(
		`<iframe src="https://maps.google.com/maps?q=%.6f,%.6f&z=%d&output=embed" width="%d" height="%d" style="border:0;" allowfullscreen="" loading="lazy" referrerpolicy="no-referrer-when-downgrade"></iframe>`,
		pos.Lat, pos.Lng, opts.Zoom, opts.Width, opts.Height,
	)
}

// Clipboard is the system clipboard sink
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes through the platform clipboard
type SystemClipboard struct{}

// WriteAll copies text to the system clipboard
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard not supported on this platform")
	}
	return clipboard.WriteAll(text)
}
