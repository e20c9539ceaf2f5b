// Package tesseract implements the ocr.Engine port on top of gosseract.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	_ "image/jpeg"
	_ "image/png"

	"github.com/otiai10/gosseract/v2"
	_ "golang.org/x/image/webp"

	"recibo/internal/ocr"
)

// Engine wraps a single gosseract client. Constructing the client loads the
// language model, so one instance is created at startup and reused for the
// life of the process; a mutex serializes access because the underlying
// Tesseract API is stateful.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New creates the shared engine. languages follow Tesseract naming
// ("por", "eng"); an empty list keeps the client default.
func New(languages ...string) (*Engine, error) {
	client := gosseract.NewClient()
	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			client.Close()
			return nil, fmt.Errorf("set languages %v: %w", languages, err)
		}
	}
	return &Engine{client: client}, nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}

// Recognize decodes the image bytes, runs recognition once, and returns
// word-level fragments in Tesseract's emission order. No retries.
func (e *Engine) Recognize(ctx context.Context, img []byte) ([]ocr.Fragment, error) {
	if _, _, err := image.Decode(bytes.NewReader(img)); err != nil {
		return nil, fmt.Errorf("%w: %v", ocr.ErrDecode, err)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil, fmt.Errorf("%w: engine closed", ocr.ErrInference)
	}
	if err := e.client.SetImageFromBytes(img); err != nil {
		return nil, fmt.Errorf("%w: set image: %v", ocr.ErrInference, err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ocr.ErrInference, err)
	}

	fragments := make([]ocr.Fragment, 0, len(boxes))
	for _, b := range boxes {
		fragments = append(fragments, ocr.Fragment{
			Text:       b.Word,
			Confidence: clamp01(b.Confidence / 100.0),
			Box: ocr.BoundingBox{
				XMin: b.Box.Min.X,
				YMin: b.Box.Min.Y,
				XMax: b.Box.Max.X,
				YMax: b.Box.Max.Y,
			},
		})
	}
	slog.DebugContext(ctx, "Recognition completed", "fragments", len(fragments))
	return fragments, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
