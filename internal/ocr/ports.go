// Package ocr defines the port to the text-recognition engine.
package ocr

import (
	"context"
	"errors"
)

type (
	// BoundingBox is the axis-aligned box of a recognized fragment, in
	// pixel coordinates with the origin at the top-left corner.
	BoundingBox struct {
		XMin int `json:"x_min"`
		YMin int `json:"y_min"`
		XMax int `json:"x_max"`
		YMax int `json:"y_max"`
	}

	// Fragment is one unit of recognized text as emitted by the engine.
	// Confidence is normalized to [0,1].
	Fragment struct {
		Text       string      `json:"text"`
		Confidence float64     `json:"confidence"`
		Box        BoundingBox `json:"bounding_box"`
	}

	// Engine turns raw image bytes into fragments in the engine's own
	// emission order. Implementations are shared process-wide and must
	// tolerate concurrent callers.
	Engine interface {
		Recognize(ctx context.Context, image []byte) ([]Fragment, error)
	}
)

var (
	// ErrDecode marks image bytes that cannot be decoded into pixels.
	ErrDecode = errors.New("image cannot be decoded")

	// ErrInference marks an internal engine failure.
	ErrInference = errors.New("ocr engine failed")
)
