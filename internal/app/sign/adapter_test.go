package sign

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"
)

func pngFrame(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func fixed(label Label, err error) DetectorFunc {
	return func(context.Context, Frame) (Label, error) { return label, err }
}

func TestClassify(t *testing.T) {
	frame := pngFrame(t)
	tests := []struct {
		name     string
		detector Detector
		raw      []byte
		want     Label
	}{
		{"detected", fixed("HELLO", nil), frame, "HELLO"},
		{"no hand", fixed(NoHand, nil), frame, NoHand},
		{"empty label", fixed("", nil), frame, NoHand},
		{"unknown", fixed("UNKNOWN", nil), frame, NoHand},
		{"detector error", fixed("HELLO", errors.New("boom")), frame, NoHand},
		{"undecodable", fixed("HELLO", nil), []byte("not an image"), NoHand},
		{"empty frame", fixed("HELLO", nil), nil, NoHand},
		{"panic", DetectorFunc(func(context.Context, Frame) (Label, error) { panic("model crashed") }), frame, NoHand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdapter(tt.detector, 0)
			if got := a.Classify(context.Background(), tt.raw); got != tt.want {
				t.Fatalf("Classify = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyRejectsOversizedFrames(t *testing.T) {
	frame := pngFrame(t)
	called := false
	a := NewAdapter(DetectorFunc(func(context.Context, Frame) (Label, error) {
		called = true
		return "HELLO", nil
	}), len(frame)-1)
	if got := a.Classify(context.Background(), frame); got != NoHand || called {
		t.Fatalf("oversized frame classified as %q (detector called: %v)", got, called)
	}
}

func TestClassifyPayloadDataURL(t *testing.T) {
	frame := pngFrame(t)
	var seen Frame
	a := NewAdapter(DetectorFunc(func(_ context.Context, f Frame) (Label, error) {
		seen = f
		return "THANKS", nil
	}), 0)
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(frame)
	if got := a.ClassifyPayload(context.Background(), payload); got != "THANKS" {
		t.Fatalf("got %q", got)
	}
	if seen.Format != "png" || !bytes.Equal(seen.Raw, frame) {
		t.Fatalf("detector saw format %q, %d bytes", seen.Format, len(seen.Raw))
	}
	if got := a.ClassifyPayload(context.Background(), "%%%"); got != NoHand {
		t.Fatalf("bad base64 classified as %q", got)
	}
}

func TestRepeats(t *testing.T) {
	r := NewRepeats(time.Second)
	now := time.Unix(100, 0)
	r.now = func() time.Time { return now }

	if !r.Allow("c1", "HELLO") {
		t.Fatal("first label must pass")
	}
	if r.Allow("c1", "HELLO") {
		t.Fatal("repeat inside window must be suppressed")
	}
	if !r.Allow("c2", "HELLO") {
		t.Fatal("other source is independent")
	}
	if !r.Allow("c1", "YES") {
		t.Fatal("different label must pass")
	}
	now = now.Add(2 * time.Second)
	if !r.Allow("c1", "YES") {
		t.Fatal("repeat after window must pass")
	}
	r.Forget("c1")
	if !r.Allow("c1", "YES") {
		t.Fatal("forgotten source starts fresh")
	}

	var off *Repeats
	if !off.Allow("c1", "HELLO") || !NewRepeats(0).Allow("c1", "HELLO") {
		t.Fatal("disabled suppression must always allow")
	}
}
