package sign

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

var (
	ErrUndecodableFrame = errors.New("undecodable frame")
	ErrFrameTooLarge    = errors.New("frame too large")
)

// DecodePayload strips an optional data URL prefix and decodes base64.
func DecodePayload(payload string) ([]byte, error) {
	if i := strings.Index(payload, "base64,"); i >= 0 {
		payload = payload[i+len("base64,"):]
	}
	payload = strings.TrimSpace(payload)
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if raw, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUndecodableFrame, err)
		}
	}
	return raw, nil
}

// DecodeImage parses JPEG, PNG or GIF bytes.
func DecodeImage(raw []byte) (Frame, error) {
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrUndecodableFrame, err)
	}
	return Frame{Raw: raw, Format: format, Image: img}, nil
}
