package suggest

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	"github.com/menta2k/image-annotator/pkg/client"
	"github.com/menta2k/image-annotator/pkg/processing"
	"github.com/menta2k/image-annotator/pkg/types"
)

// DefaultPrompt asks the model for a short label of the cropped region
const DefaultPrompt = `You label regions of wildlife and field photos.

Reply with the common name of the main subject in this image, in one to three words.
Lowercase only. No punctuation, no sentences, no explanations.
If there is no recognizable subject, reply with: none`

// MaxLabelLength caps a suggested label in characters
const MaxLabelLength = 40

// ErrNoSuggestion is returned when the model has nothing usable to offer
var ErrNoSuggestion = errors.New("no label suggestion")

// Suggester proposes a label for a pending region using a vision model
type Suggester struct {
	client    client.VisionClient
	processor *processing.Processor
	model     string
	prompt    string
	maxSide   int
}

// NewSuggester creates a suggester for model backed by a vision client
func NewSuggester(c client.VisionClient, model string, maxSide int) *Suggester {
	return &Suggester{
		client:    c,
		processor: processing.NewProcessor(),
		model:     model,
		prompt:    DefaultPrompt,
		maxSide:   maxSide,
	}
}

// WithPrompt replaces the default prompt
func (s *Suggester) WithPrompt(prompt string) *Suggester {
	s.prompt = prompt
	return s
}

// Suggest crops rect out of img and asks the model to name it
func (s *Suggester) Suggest(ctx context.Context, img image.Image, rect types.Rect) (string, error) {
	region, err := s.processor.CropRect(img, rect)
	if err != nil {
		return "", fmt.Errorf("failed to crop region: %w", err)
	}

	imgB64, err := s.processor.PrepareImageForModel(region, "jpg", s.maxSide, 90)
	if err != nil {
		return "", fmt.Errorf("failed to prepare region: %w", err)
	}

	answer, err := s.client.Query(ctx, s.model, s.prompt, imgB64)
	if err != nil {
		return "", err
	}

	label := NormalizeLabel(answer)
	if label == "" || label == "none" {
		return "", ErrNoSuggestion
	}
	return label, nil
}

// NormalizeLabel reduces a model reply to a single short lowercase label
func NormalizeLabel(answer string) string {
	var line string
	for _, l := range strings.Split(answer, "\n") {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "```") {
			continue
		}
		line = l
		break
	}

	line = strings.ToLower(line)
	line = strings.Trim(line, " \t\"'`.,;:!*")
	line = strings.Join(strings.Fields(line), " ")

	if utf8.RuneCountInString(line) > MaxLabelLength {
		line = strings.TrimSpace(string([]rune(line)[:MaxLabelLength]))
	}
	return line
}
