package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/menta2k/image-annotator/pkg/archive"
	"github.com/menta2k/image-annotator/pkg/render"
	"github.com/menta2k/image-annotator/pkg/types"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

type AnnotateResponse struct {
	AnnotatedImage string `json:"annotated_image"`
}

type SaveResponse struct {
	ID string `json:"id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   s.deps.ServiceName,
		Version:   s.deps.Version,
	})
}

// annotate draws the boxes onto the posted image and returns it as a PNG data URL
func (s *Server) annotate(c *gin.Context) {
	var req types.Payload
	if !bindPayload(c, &req) {
		return
	}

	img, err := s.processor.DecodeDataURL(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid image: %v", err)})
		return
	}

	in := render.Input{Bitmap: img, Boxes: req.Boxes}
	if geo, ok := req.Geo(); ok {
		in.Geo = &geo
	}
	surface := s.deps.Renderer.Render(in)

	dataURL, err := s.processor.EncodeDataURL(surface, "png", 0)
	if err != nil {
		s.logger.LogError("annotate", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to encode image"})
		return
	}

	c.JSON(http.StatusOK, AnnotateResponse{AnnotatedImage: dataURL})
}

// save validates and archives an annotation payload
func (s *Server) save(c *gin.Context) {
	var req types.Payload
	if !bindPayload(c, &req) {
		return
	}

	if err := s.validatePayload(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	rec := archive.NewRecord(req)
	if err := s.deps.Store.Save(c.Request.Context(), rec); err != nil {
		s.logger.LogError("save", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to store annotation"})
		return
	}

	s.logger.LogInfof("save", "request_id=%s id=%s boxes=%d", c.GetString("request_id"), rec.ID, len(req.Boxes))
	c.JSON(http.StatusCreated, SaveResponse{ID: rec.ID})
}

// bindPayload decodes the JSON body, answering 413 or 400 on failure
func bindPayload(c *gin.Context, req *types.Payload) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)})
		return false
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
	return false
}

func (s *Server) get(c *gin.Context) {
	rec, err := s.deps.Store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, archive.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.logger.LogError("get", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load annotation"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) validatePayload(p types.Payload) error {
	if _, err := s.processor.DecodeDataURL(p.Image); err != nil {
		return fmt.Errorf("invalid image: %w", err)
	}
	for i, box := range p.Boxes {
		if err := box.Validate(); err != nil {
			return fmt.Errorf("box %d: %w", i, err)
		}
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return fmt.Errorf("latitude and longitude must be given together")
	}
	return nil
}
