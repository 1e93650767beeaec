// Package classifier talks to the external hand-sign model service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dkeye/SignCall/internal/app/sign"
)

var ErrBadStatus = errors.New("classifier returned non-200")

// HTTPDetector posts each frame as multipart field "frame" and reads
// {"prediction": "..."} back.
type HTTPDetector struct {
	url    string
	client *http.Client
}

func NewHTTPDetector(url string, timeout time.Duration) *HTTPDetector {
	return &HTTPDetector{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (d *HTTPDetector) Detect(ctx context.Context, frame sign.Frame) (sign.Label, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("frame", "frame."+frame.Format)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(frame.Raw); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, &body)
	if err != nil {
		return "", fmt.Errorf("build classifier request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var out struct {
		Prediction string `json:"prediction"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode classifier response: %w", err)
	}
	return sign.Label(out.Prediction), nil
}

// Disabled is used when no classifier URL is configured.
var Disabled = sign.DetectorFunc(func(context.Context, sign.Frame) (sign.Label, error) {
	return sign.NoHand, nil
})
