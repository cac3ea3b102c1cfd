// Package annotator provides an image annotation editor.
//
// An Editor holds one loaded bitmap, the boxes committed over it and the
// drag gesture in progress. Pointer events arrive in display coordinates and
// are mapped into image pixels. Finished drags wait for a label; labelled
// boxes are committed with the selected date and drawn with the shared
// geolocation. The annotated surface can be saved locally or submitted to a
// persistence endpoint.
//
// Basic usage:
//
//	ed := annotator.New(annotator.DefaultOptions())
//	if err := ed.LoadFile("fox.jpg"); err != nil {
//		log.Fatal(err)
//	}
//
//	display := types.DisplayRect{Width: 400, Height: 300}
//	ed.PointerDown(types.Point{X: 100, Y: 100}, display)
//	ed.PointerMove(types.Point{X: 150, Y: 130}, display)
//	ed.PointerUp()
//	ed.ResolveLabel(types.LabelResponse{Text: "Fox"})
//
//	path, err := ed.SaveLocal()
//
// An Editor is owned by a single event-dispatch goroutine and is not safe for
// concurrent use. PersistAsync is the only operation that does work on
// another goroutine, against a payload captured before it returns.
package annotator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	"github.com/menta2k/image-annotator/internal/logging"
	"github.com/menta2k/image-annotator/pkg/export"
	"github.com/menta2k/image-annotator/pkg/geo"
	"github.com/menta2k/image-annotator/pkg/processing"
	"github.com/menta2k/image-annotator/pkg/render"
	"github.com/menta2k/image-annotator/pkg/session"
	"github.com/menta2k/image-annotator/pkg/store"
	"github.com/menta2k/image-annotator/pkg/types"
)

// Version of the image annotator library
const Version = "1.0.0"

var (
	// ErrNoBitmap is returned by operations that need a loaded image
	ErrNoBitmap = errors.New("no image loaded")
	// ErrNotPending is returned when no finished box is waiting for a label
	ErrNotPending = errors.New("no box is waiting for a label")
	// ErrImageLoad wraps decode and read failures of LoadImage and LoadFile
	ErrImageLoad = errors.New("failed to load image")
	// ErrNoEndpoint is returned by Persist when no persister is configured
	ErrNoEndpoint = errors.New("no persistence endpoint configured")
	// ErrNoSuggester is returned by SuggestLabel when no backend is configured
	ErrNoSuggester = errors.New("no label suggestion backend configured")
)

// Persister submits an annotation payload
type Persister interface {
	Save(ctx context.Context, payload types.Payload) error
}

// LabelSuggester proposes a label for a region of an image
type LabelSuggester interface {
	Suggest(ctx context.Context, img image.Image, rect types.Rect) (string, error)
}

// Editor is the annotation editor
type Editor struct {
	opts Options

	bitmap  image.Image
	store   *store.Store
	session *session.Session
	geo     *geo.Position
	date    types.Date

	renderer  *render.Renderer
	processor *processing.Processor

	surface        *image.NRGBA
	dirty          bool
	lastGeoVersion uint64
	renderCount    int

	persister Persister
	notifier  export.Notifier
	suggester LabelSuggester
	clipboard geo.Clipboard
	logger    *logging.Logger
}

// New creates an editor with no image loaded
func New(opts Options) *Editor {
	st := store.New()
	pos := opts.InitialGeo
	return &Editor{
		opts:      opts,
		store:     st,
		session:   session.New(st),
		geo:       geo.NewPosition(pos.Lat, pos.Lng),
		date:      types.Today(),
		renderer:  render.NewWithStyle(opts.Style),
		processor: processing.NewProcessor(),
		dirty:     true,
		notifier:  export.NotifierFunc(func(export.Notification) {}),
		clipboard: geo.SystemClipboard{},
		logger:    logging.New("editor"),
	}
}

// SetPersister configures the persistence endpoint
func (e *Editor) SetPersister(p Persister) {
	e.persister = p
}

// SetNotifier configures where persistence outcomes are reported
func (e *Editor) SetNotifier(n export.Notifier) {
	if n == nil {
		n = export.NotifierFunc(func(export.Notification) {})
	}
	e.notifier = n
}

// SetSuggester configures the label suggestion backend
func (e *Editor) SetSuggester(s LabelSuggester) {
	e.suggester = s
}

// SetClipboard replaces the system clipboard
func (e *Editor) SetClipboard(c geo.Clipboard) {
	e.clipboard = c
}

// LoadImage decodes r and replaces the current image. On failure the
// previous image, boxes and gesture are kept.
func (e *Editor) LoadImage(r io.Reader) error {
	img, err := e.processor.Decode(r)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrImageLoad, err)
		e.logger.LogError("load_image", err)
		return err
	}
	e.LoadBitmap(img)
	return nil
}

// LoadFile loads an image from a path or an http(s) URL
func (e *Editor) LoadFile(source string) error {
	img, err := e.processor.LoadImageSmart(source)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrImageLoad, err)
		e.logger.LogError("load_image", err)
		return err
	}
	e.LoadBitmap(img)
	return nil
}

// LoadBitmap replaces the current image, clearing all boxes and any
// gesture in progress
func (e *Editor) LoadBitmap(img image.Image) {
	e.bitmap = img
	e.store.Clear()
	e.session.Reset()
	e.dirty = true

	b := img.Bounds()
	e.logger.LogInfof("load_image", "width=%d height=%d", b.Dx(), b.Dy())
}

// Bitmap returns the loaded image, or nil
func (e *Editor) Bitmap() image.Image {
	return e.bitmap
}

func (e *Editor) metrics(display types.DisplayRect) types.ElementMetrics {
	b := e.bitmap.Bounds()
	return types.ElementMetrics{
		Display:         display,
		IntrinsicWidth:  b.Dx(),
		IntrinsicHeight: b.Dy(),
	}
}

// PointerDown starts a drag at pos, given where the image is displayed.
// It is ignored when no image is loaded or a gesture is already underway.
func (e *Editor) PointerDown(pos types.Point, display types.DisplayRect) bool {
	if e.bitmap == nil {
		return false
	}
	if !e.session.PointerDown(pos, e.metrics(display)) {
		return false
	}
	e.dirty = true
	return true
}

// PointerMove drags the second corner of the box
func (e *Editor) PointerMove(pos types.Point, display types.DisplayRect) bool {
	if e.bitmap == nil {
		return false
	}
	if !e.session.PointerMove(pos, e.metrics(display)) {
		return false
	}
	e.dirty = true
	return true
}

// PointerUp finishes the drag; the box then waits for ResolveLabel
func (e *Editor) PointerUp() bool {
	if e.bitmap == nil {
		return false
	}
	return e.session.PointerUp()
}

// ResolveLabel answers the pending label prompt. A non-empty label commits
// the box with the selected date.
func (e *Editor) ResolveLabel(resp types.LabelResponse) (types.Box, session.Outcome) {
	var snapshot *types.GeoPosition
	if e.opts.SnapshotGeo {
		g := e.geo.Get()
		snapshot = &g
	}

	box, outcome := e.session.Resolve(resp, e.date, snapshot)
	switch outcome {
	case session.Committed:
		e.dirty = true
		e.logger.LogInfof("resolve_label", "name=%q boxes=%d", box.Name, e.store.Len())
	case session.Discarded:
		e.dirty = true
	}
	return box, outcome
}

// State returns the gesture state
func (e *Editor) State() session.State {
	return e.session.State()
}

// InProgress returns the box being drawn or waiting for a label
func (e *Editor) InProgress() (types.Rect, bool) {
	return e.session.InProgress()
}

// Boxes returns the committed boxes in insertion order
func (e *Editor) Boxes() []types.Box {
	return e.store.Boxes()
}

// SetDate selects the date given to boxes committed from now on
func (e *Editor) SetDate(d types.Date) {
	e.date = d
}

// Date returns the selected date
func (e *Editor) Date() types.Date {
	return e.date
}

// Geo returns the shared geolocation
func (e *Editor) Geo() *geo.Position {
	return e.geo
}

// Surface returns a copy of the annotated image, re-rendering only when
// boxes, the gesture, the image or the geolocation changed since the last call
func (e *Editor) Surface() *image.NRGBA {
	return imaging.Clone(e.frame())
}

// frame returns the cached surface; callers must not draw on it
func (e *Editor) frame() *image.NRGBA {
	version := e.geo.Version()
	if e.surface != nil && !e.dirty && version == e.lastGeoVersion {
		return e.surface
	}

	in := render.Input{
		Bitmap: e.bitmap,
		Boxes:  e.store.Boxes(),
	}
	if rect, ok := e.session.InProgress(); ok {
		in.Pending = &rect
	}
	if !e.opts.SnapshotGeo {
		g := e.geo.Get()
		in.Geo = &g
	}

	e.surface = e.renderer.Render(in)
	e.dirty = false
	e.lastGeoVersion = version
	e.renderCount++
	return e.surface
}

// RenderCount reports how many times the surface has been rendered
func (e *Editor) RenderCount() int {
	return e.renderCount
}

// SaveLocal writes the annotated image under the fixed file name
func (e *Editor) SaveLocal() (string, error) {
	if e.bitmap == nil {
		return "", ErrNoBitmap
	}
	path, err := export.SaveLocal(e.processor, e.frame(), e.opts.Local)
	if err != nil {
		e.logger.LogError("save_local", err)
		return "", err
	}
	e.logger.LogInfof("save_local", "path=%s", path)
	return path, nil
}

// Payload captures the annotated image, boxes and geolocation for persistence
func (e *Editor) Payload() (types.Payload, error) {
	if e.bitmap == nil {
		return types.Payload{}, ErrNoBitmap
	}
	dataURL, err := e.processor.EncodeDataURL(e.frame(), "png", 0)
	if err != nil {
		return types.Payload{}, err
	}
	return types.NewPayload(dataURL, e.store.Boxes(), e.geo.Get()), nil
}

// Persist submits the current annotations once and reports exactly one
// notification. The boxes are kept whatever the outcome.
func (e *Editor) Persist(ctx context.Context) error {
	if e.persister == nil {
		return ErrNoEndpoint
	}
	payload, err := e.Payload()
	if err != nil {
		return err
	}
	return e.send(ctx, e.persister, e.notifier, payload)
}

// PersistAsync captures the payload now and submits it on a new goroutine.
// The channel receives the result and is then closed. The notifier is called
// from that goroutine.
func (e *Editor) PersistAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	if e.persister == nil {
		done <- ErrNoEndpoint
		close(done)
		return done
	}
	payload, err := e.Payload()
	if err != nil {
		done <- err
		close(done)
		return done
	}

	persister, notifier := e.persister, e.notifier
	go func() {
		defer close(done)
		done <- e.send(ctx, persister, notifier, payload)
	}()
	return done
}

func (e *Editor) send(ctx context.Context, p Persister, n export.Notifier, payload types.Payload) error {
	if timeout := e.opts.PersistTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := p.Save(ctx, payload); err != nil {
		e.logger.LogError("persist", err)
		n.Notify(export.Notification{Kind: export.Failure, Message: fmt.Sprintf("Failed to save annotation: %v", err)})
		return err
	}

	e.logger.LogInfof("persist", "boxes=%d", len(payload.Boxes))
	n.Notify(export.Notification{Kind: export.Success, Message: "Annotation saved successfully"})
	return nil
}

// EmbedSnippet returns the map embed fragment for the current geolocation
func (e *Editor) EmbedSnippet() string {
	return geo.EmbedSnippet(e.geo.Get(), e.opts.Embed)
}

// CopyEmbed copies the embed snippet to the clipboard. A clipboard failure
// is logged and reported through the second result only.
func (e *Editor) CopyEmbed() (string, bool) {
	snippet := e.EmbedSnippet()
	if err := e.clipboard.WriteAll(snippet); err != nil {
		e.logger.LogWarnf("copy_embed", "clipboard unavailable: %v", err)
		return snippet, false
	}
	return snippet, true
}

// SuggestLabel asks the suggestion backend to name the box waiting for a
// label. It never resolves the prompt itself.
func (e *Editor) SuggestLabel(ctx context.Context) (string, error) {
	if e.session.State() != session.PendingLabel {
		return "", ErrNotPending
	}
	if e.suggester == nil {
		return "", ErrNoSuggester
	}
	rect, _ := e.session.InProgress()
	label, err := e.suggester.Suggest(ctx, e.bitmap, rect)
	if err != nil {
		e.logger.LogWarnf("suggest_label", "no suggestion: %v", err)
		return "", err
	}
	return label, nil
}
