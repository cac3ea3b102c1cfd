// Package server exposes the annotate, save and health endpoints over HTTP.
package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/menta2k/image-annotator/internal/logging"
	"github.com/menta2k/image-annotator/pkg/archive"
	"github.com/menta2k/image-annotator/pkg/processing"
	"github.com/menta2k/image-annotator/pkg/render"
)

// Deps are the collaborators of the HTTP handlers
type Deps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	Store          archive.Store
	Renderer       *render.Renderer
	// MaxBodyBytes caps request bodies; 0 means no limit.
	MaxBodyBytes int64
}

// Server holds the handlers and their collaborators
type Server struct {
	deps      Deps
	processor *processing.Processor
	logger    *logging.Logger
}

// New creates a server, filling in a default renderer
func New(deps Deps) *Server {
	if deps.Renderer == nil {
		deps.Renderer = render.New()
	}
	if deps.ServiceName == "" {
		deps.ServiceName = "image-annotator"
	}
	return &Server{
		deps:      deps,
		processor: processing.NewProcessor(),
		logger:    logging.New("server"),
	}
}

// Router builds the gin engine with CORS and request IDs
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	if s.deps.MaxBodyBytes > 0 {
		r.Use(BodyLimitMiddleware(s.deps.MaxBodyBytes))
	}

	if len(s.deps.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.deps.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-Id"},
			ExposeHeaders:    []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", s.health)
	r.POST("/annotate_image_for_download/", s.annotate)
	if s.deps.Store != nil {
		r.POST("/save_annotation", s.save)
		r.GET("/annotations/:id", s.get)
	}

	return r
}
