package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the wire and overlay format of an annotation date
const DateLayout = "2006-01-02"

// Point is a position in either display or image pixel space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DisplayRect describes where the image element is laid out on screen
type DisplayRect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ElementMetrics combines the on-screen layout with the bitmap's intrinsic size
type ElementMetrics struct {
	Display         DisplayRect
	IntrinsicWidth  int
	IntrinsicHeight int
}

// Rect is a rectangle in image space given by two unordered corners
type Rect struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Normalized returns the corners ordered as min/max
func (r Rect) Normalized() (minX, minY, maxX, maxY float64) {
	return math.Min(r.X1, r.X2), math.Min(r.Y1, r.Y2), math.Max(r.X1, r.X2), math.Max(r.Y1, r.Y2)
}

// GeoPosition is a latitude/longitude pair
type GeoPosition struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Box is a committed annotation
type Box struct {
	Rect
	Name string `json:"name"`
	Date Date   `json:"date"`
	// Geo is only set when geolocation is snapshotted at commit time.
	Geo *GeoPosition `json:"geo,omitempty"`
}

// Validate checks the invariants every stored box satisfies
func (b Box) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("box name must not be empty")
	}
	if b.Date.IsZero() {
		return fmt.Errorf("box %q has no date", b.Name)
	}
	return nil
}

// Date is a calendar date without time of day or zone
type Date struct {
	t time.Time
}

// NewDate builds a Date from its components
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date in the timestamp's zone
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current local calendar date
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// IsZero reports whether the date is unset
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string; an empty string leaves the date unset
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// LabelResponse is the answer of the label-entry collaborator
type LabelResponse struct {
	Text      string `json:"text"`
	Cancelled bool   `json:"cancelled"`
}

// Payload is the request body of the persistence and annotate endpoints.
// The editor always sets both coordinates; other clients may omit them.
type Payload struct {
	Image     string   `json:"image"`
	Boxes     []Box    `json:"boxes"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// NewPayload builds a payload carrying geo as latitude/longitude
func NewPayload(image string, boxes []Box, geo GeoPosition) Payload {
	lat, lng := geo.Lat, geo.Lng
	return Payload{Image: image, Boxes: boxes, Latitude: &lat, Longitude: &lng}
}

// Geo returns the payload's position when both coordinates are present
func (p Payload) Geo() (GeoPosition, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return GeoPosition{}, false
	}
	return GeoPosition{Lat: *p.Latitude, Lng: *p.Longitude}, true
}
