// Package sign turns submitted video frames into sign labels.
//
// The detector behind it is an external collaborator. Everything on this path
// is best-effort: decode errors, detector errors and panics all collapse into
// NoHand so the caller never has to handle a failure.
package sign

import (
	"context"
	"fmt"
	"image"

	"github.com/rs/zerolog/log"
)

// Label is a detected sign, e.g. "HELLO".
type Label string

const (
	// NoHand is the no-detection sentinel.
	NoHand Label = "No Hand"

	unknownLabel Label = "UNKNOWN"
)

// Detected reports whether l names an actual sign.
func (l Label) Detected() bool {
	return l != "" && l != NoHand && l != unknownLabel
}

// Frame is a decoded image together with its original encoding.
type Frame struct {
	Raw    []byte
	Format string
	Image  image.Image
}

// Detector is the external classifier. It returns NoHand or "" when no hand is found.
type Detector interface {
	Detect(ctx context.Context, frame Frame) (Label, error)
}

type DetectorFunc func(ctx context.Context, frame Frame) (Label, error)

func (f DetectorFunc) Detect(ctx context.Context, frame Frame) (Label, error) {
	return f(ctx, frame)
}

// Adapter decodes frames and consults the detector.
type Adapter struct {
	detector Detector
	maxBytes int
}

func NewAdapter(detector Detector, maxBytes int) *Adapter {
	return &Adapter{detector: detector, maxBytes: maxBytes}
}

// Classify returns the label for raw image bytes or NoHand.
func (a *Adapter) Classify(ctx context.Context, raw []byte) (label Label) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "sign").Interface("panic", r).Msg("classifier panicked")
			label = NoHand
		}
	}()

	frame, err := a.decode(raw)
	if err != nil {
		log.Debug().Err(err).Str("module", "sign").Int("bytes", len(raw)).Msg("frame dropped")
		return NoHand
	}
	got, err := a.detector.Detect(ctx, frame)
	if err != nil {
		log.Warn().Err(err).Str("module", "sign").Str("format", frame.Format).Msg("detector failed")
		return NoHand
	}
	if !got.Detected() {
		return NoHand
	}
	return got
}

// ClassifyPayload accepts the base64 or data URL form sent by browsers.
func (a *Adapter) ClassifyPayload(ctx context.Context, payload string) Label {
	raw, err := DecodePayload(payload)
	if err != nil {
		log.Debug().Err(err).Str("module", "sign").Msg("frame payload dropped")
		return NoHand
	}
	return a.Classify(ctx, raw)
}

func (a *Adapter) decode(raw []byte) (Frame, error) {
	if len(raw) == 0 {
		return Frame{}, ErrUndecodableFrame
	}
	if a.maxBytes > 0 && len(raw) > a.maxBytes {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(raw))
	}
	return DecodeImage(raw)
}
