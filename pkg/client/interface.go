package client

import "context"

// VisionClient sends one image and a prompt to a vision model and returns its text reply
type VisionClient interface {
	Query(ctx context.Context, model, prompt, imgB64 string) (string, error)
}
