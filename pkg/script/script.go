// Package script replays a recorded sequence of editor events from JSON, so
// an annotation session can be driven without a user interface.
//
//	{
//	  "display": {"left": 0, "top": 0, "width": 400, "height": 300},
//	  "events": [
//	    {"type": "load", "path": "fox.jpg"},
//	    {"type": "date", "date": "2024-05-01"},
//	    {"type": "down", "x": 100, "y": 100},
//	    {"type": "move", "x": 150, "y": 130},
//	    {"type": "up"},
//	    {"type": "label", "text": "Fox"}
//	  ]
//	}
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/menta2k/image-annotator/internal/logging"
	"github.com/menta2k/image-annotator/internal/utils"
	"github.com/menta2k/image-annotator/pkg/geo"
	"github.com/menta2k/image-annotator/pkg/session"
	"github.com/menta2k/image-annotator/pkg/types"
)

// Event types
const (
	Load    = "load"
	Down    = "down"
	Move    = "move"
	Up      = "up"
	Label   = "label"
	Cancel  = "cancel"
	Suggest = "suggest"
	Geo     = "geo"
	Date    = "date"
)

// Event is one recorded input
type Event struct {
	Type string   `json:"type"`
	Path string   `json:"path,omitempty"`
	X    float64  `json:"x,omitempty"`
	Y    float64  `json:"y,omitempty"`
	Text string   `json:"text,omitempty"`
	Date string   `json:"date,omitempty"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
	// Display overrides the script's display rectangle for this event.
	Display *types.DisplayRect `json:"display,omitempty"`
	// Accept commits the suggested label of a suggest event.
	Accept bool `json:"accept,omitempty"`
}

// Script is a sequence of events against one displayed image
type Script struct {
	Display types.DisplayRect `json:"display"`
	Events  []Event           `json:"events"`
}

// Editor is the part of the annotation editor a script drives
type Editor interface {
	LoadFile(source string) error
	PointerDown(pos types.Point, display types.DisplayRect) bool
	PointerMove(pos types.Point, display types.DisplayRect) bool
	PointerUp() bool
	ResolveLabel(resp types.LabelResponse) (types.Box, session.Outcome)
	SuggestLabel(ctx context.Context) (string, error)
	SetDate(d types.Date)
	Geo() *geo.Position
}

// Result summarizes a replay
type Result struct {
	Committed   int
	Discarded   int
	Ignored     int
	Suggestions []string
}

// Parse decodes a script
func Parse(r io.Reader) (*Script, error) {
	var s Script
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	for i, ev := range s.Events {
		if err := ev.validate(); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}
	return &s, nil
}

// LoadFile reads and parses a script file
func LoadFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func (ev Event) validate() error {
	switch ev.Type {
	case Load:
		if ev.Path == "" {
			return fmt.Errorf("load needs a path")
		}
		if !utils.IsURL(ev.Path) && !utils.IsImageFile(ev.Path) {
			return fmt.Errorf("load path %q is not a supported image", ev.Path)
		}
	case Date:
		if _, err := types.ParseDate(ev.Date); err != nil {
			return err
		}
	case Geo:
		if ev.Lat == nil && ev.Lng == nil {
			return fmt.Errorf("geo needs lat or lng")
		}
	case Down, Move, Up, Label, Cancel, Suggest:
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}

// Runner replays scripts against an editor
type Runner struct {
	editor Editor
	// baseDir resolves relative load paths.
	baseDir string
	logger  *logging.Logger
}

// NewRunner creates a runner. Relative image paths are resolved against the
// directory of scriptPath.
func NewRunner(editor Editor, scriptPath string) *Runner {
	return &Runner{
		editor:  editor,
		baseDir: scriptPath,
		logger:  logging.New("script"),
	}
}

// Run replays every event in order. Events the editor ignores are counted,
// not treated as errors.
func (r *Runner) Run(ctx context.Context, s *Script) (*Result, error) {
	res := &Result{}
	for i, ev := range s.Events {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.apply(ctx, s, ev, res); err != nil {
			return res, fmt.Errorf("event %d (%s): %w", i, ev.Type, err)
		}
	}
	r.logger.LogInfof("run", "events=%d committed=%d discarded=%d ignored=%d",
		len(s.Events), res.Committed, res.Discarded, res.Ignored)
	return res, nil
}

func (r *Runner) apply(ctx context.Context, s *Script, ev Event, res *Result) error {
	display := s.Display
	if ev.Display != nil {
		display = *ev.Display
	}
	pos := types.Point{X: ev.X, Y: ev.Y}

	switch ev.Type {
	case Load:
		return r.editor.LoadFile(utils.ResolvePath(r.baseDir, ev.Path))
	case Down:
		r.count(r.editor.PointerDown(pos, display), res)
	case Move:
		r.count(r.editor.PointerMove(pos, display), res)
	case Up:
		r.count(r.editor.PointerUp(), res)
	case Label:
		r.resolve(types.LabelResponse{Text: ev.Text}, res)
	case Cancel:
		r.resolve(types.LabelResponse{Cancelled: true}, res)
	case Suggest:
		label, err := r.editor.SuggestLabel(ctx)
		if err != nil {
			r.logger.LogWarnf("suggest", "skipped: %v", err)
			return nil
		}
		res.Suggestions = append(res.Suggestions, label)
		if ev.Accept {
			r.resolve(types.LabelResponse{Text: label}, res)
		}
	case Date:
		d, err := types.ParseDate(ev.Date)
		if err != nil {
			return err
		}
		r.editor.SetDate(d)
	case Geo:
		return r.setGeo(ev)
	}
	return nil
}

func (r *Runner) setGeo(ev Event) error {
	pos := r.editor.Geo()
	switch {
	case ev.Lat != nil && ev.Lng != nil:
		return pos.Set(*ev.Lat, *ev.Lng)
	case ev.Lat != nil:
		return pos.SetLat(*ev.Lat)
	default:
		return pos.SetLng(*ev.Lng)
	}
}

func (r *Runner) count(accepted bool, res *Result) {
	if !accepted {
		res.Ignored++
	}
}

func (r *Runner) resolve(resp types.LabelResponse, res *Result) {
	_, outcome := r.editor.ResolveLabel(resp)
	switch outcome {
	case session.Committed:
		res.Committed++
	case session.Discarded:
		res.Discarded++
	default:
		res.Ignored++
	}
}
