package annotator

import (
	"fmt"
	"time"

	"github.com/menta2k/image-annotator/internal/config"
	"github.com/menta2k/image-annotator/pkg/client"
	"github.com/menta2k/image-annotator/pkg/export"
	"github.com/menta2k/image-annotator/pkg/geo"
	"github.com/menta2k/image-annotator/pkg/llamacpp"
	"github.com/menta2k/image-annotator/pkg/ollama"
	"github.com/menta2k/image-annotator/pkg/render"
	"github.com/menta2k/image-annotator/pkg/suggest"
	"github.com/menta2k/image-annotator/pkg/types"
)

// Options configures an Editor
type Options struct {
	Style render.Style
	// SnapshotGeo stores the geolocation in each box at commit time instead
	// of drawing every box with the current one.
	SnapshotGeo bool
	InitialGeo  types.GeoPosition
	Local       export.LocalOptions
	Embed       geo.EmbedOptions
	// PersistTimeout bounds a persistence call; 0 means no timeout.
	PersistTimeout time.Duration
}

// DefaultOptions returns the options of an editor built from config.Default
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig maps a configuration onto editor options
func OptionsFromConfig(cfg *config.Config) Options {
	style := render.DefaultStyle()
	style.StrokeWidth = cfg.Render.StrokeWidth
	style.Padding = cfg.Render.Padding
	style.TopMargin = cfg.Render.TopMargin

	return Options{
		Style:       style,
		SnapshotGeo: cfg.Geo.SnapshotGeo,
		InitialGeo:  types.GeoPosition{Lat: cfg.Geo.Latitude, Lng: cfg.Geo.Longitude},
		Local: export.LocalOptions{
			Dir:      cfg.Export.OutputDir,
			Format:   cfg.Export.Format,
			Quality:  cfg.Export.Quality,
			Lossless: cfg.Export.Lossless,
		},
		Embed: geo.EmbedOptions{
			Zoom:   cfg.Geo.EmbedZoom,
			Width:  cfg.Geo.EmbedWidth,
			Height: cfg.Geo.EmbedHeight,
		},
		PersistTimeout: time.Duration(cfg.Export.TimeoutSeconds) * time.Second,
	}
}

// NewFromConfig creates an editor with its persistence endpoint and, when a
// backend is selected, its label suggester configured
func NewFromConfig(cfg *config.Config) (*Editor, error) {
	e := New(OptionsFromConfig(cfg))

	if cfg.Export.EndpointURL != "" {
		c, err := export.NewClient(cfg.Export.EndpointURL, 0)
		if err != nil {
			return nil, err
		}
		e.SetPersister(c)
	}

	vc, err := NewVisionClient(cfg.Suggest)
	if err != nil {
		return nil, err
	}
	if vc != nil {
		e.SetSuggester(suggest.NewSuggester(vc, cfg.Suggest.Model, cfg.Suggest.MaxSide))
	}

	return e, nil
}

// NewVisionClient builds the client of the configured suggestion backend.
// It returns nil when no backend is selected.
func NewVisionClient(cfg config.SuggestConfig) (client.VisionClient, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "ollama":
		url := cfg.URL
		if url == "" {
			url = ollama.DefaultURL
		}
		c, err := ollama.NewClient(url)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return c, nil
	case "llamacpp":
		c, err := llamacpp.NewClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown suggestion backend %q", cfg.Backend)
	}
}
