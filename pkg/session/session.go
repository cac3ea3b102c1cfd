// Package session implements the drag-to-label gesture state machine.
//
// A drag starts with PointerDown, follows the pointer with PointerMove and
// freezes on PointerUp. The session then waits in PendingLabel until the
// label-entry collaborator answers through Resolve. A non-empty label commits
// the box to the store; an empty or cancelled answer discards it.
package session

import (
	"strings"

	"github.com/menta2k/image-annotator/pkg/coords"
	"github.com/menta2k/image-annotator/pkg/store"
	"github.com/menta2k/image-annotator/pkg/types"
)

// State is the gesture state
type State int

const (
	Idle State = iota
	Dragging
	PendingLabel
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case PendingLabel:
		return "pending_label"
	default:
		return "unknown"
	}
}

// Outcome reports what Resolve did with the pending box
type Outcome int

const (
	Ignored Outcome = iota
	Committed
	Discarded
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case Discarded:
		return "discarded"
	default:
		return "ignored"
	}
}

// Session tracks one in-progress gesture and commits into a store
type Session struct {
	store *store.Store
	state State
	start types.Point
	box   types.Rect
}

// New creates an idle session committing into st
func New(st *store.Store) *Session {
	return &Session{store: st}
}

// State returns the current gesture state
func (s *Session) State() State {
	return s.state
}

// InProgress returns the box being drawn or awaiting a label
func (s *Session) InProgress() (types.Rect, bool) {
	if s.state == Idle {
		return types.Rect{}, false
	}
	return s.box, true
}

// Start returns the image-space point where the current drag began
func (s *Session) Start() types.Point {
	return s.start
}

// PointerDown begins a drag. It returns false when the event was ignored.
func (s *Session) PointerDown(pos types.Point, m types.ElementMetrics) bool {
	if s.state != Idle {
		return false
	}
	s.start = coords.Map(pos, m)
	s.box = types.Rect{X1: s.start.X, Y1: s.start.Y, X2: s.start.X, Y2: s.start.Y}
	s.state = Dragging
	return true
}

// PointerMove moves the second corner of the box being dragged
func (s *Session) PointerMove(pos types.Point, m types.ElementMetrics) bool {
	if s.state != Dragging {
		return false
	}
	p := coords.Map(pos, m)
	s.box.X2, s.box.Y2 = p.X, p.Y
	return true
}

// PointerUp ends the drag and waits for a label
func (s *Session) PointerUp() bool {
	if s.state != Dragging {
		return false
	}
	s.state = PendingLabel
	return true
}

// Resolve applies the label collaborator's answer. A non-empty label commits
// the box with the given date; geo is attached only when non-nil.
func (s *Session) Resolve(resp types.LabelResponse, date types.Date, geo *types.GeoPosition) (types.Box, Outcome) {
	if s.state != PendingLabel {
		return types.Box{}, Ignored
	}
	defer s.Reset()

	if resp.Cancelled || strings.TrimSpace(resp.Text) == "" {
		return types.Box{}, Discarded
	}

	committed := types.Box{Rect: s.box, Name: resp.Text, Date: date}
	if geo != nil {
		g := *geo
		committed.Geo = &g
	}
	s.store.Append(committed)
	return committed, Committed
}

// Reset drops any in-progress box and returns to Idle
func (s *Session) Reset() {
	s.state = Idle
	s.start = types.Point{}
	s.box = types.Rect{}
}
