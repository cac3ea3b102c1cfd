// Package archive keeps annotation payloads received by the save endpoint.
package archive

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/menta2k/image-annotator/pkg/types"
)

// ErrNotFound is returned when no record has the requested ID
var ErrNotFound = errors.New("annotation not found")

// Record is one saved annotation payload
type Record struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Payload   types.Payload `json:"payload"`
}

// Store persists records
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]string, error)
}

// NewRecord wraps a payload with a fresh ID and timestamp
func NewRecord(p types.Payload) *Record {
	return &Record{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Payload:   p,
	}
}

func fill(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

// validID guards file and key names against anything that is not a UUID
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
