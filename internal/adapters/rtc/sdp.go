package rtc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/SignCall/internal/domain"
	"github.com/pion/webrtc/v4"
)

var ErrSDPMismatch = errors.New("sdp type does not match envelope kind")

// CheckSignal rejects an offer whose description says "answer" and vice versa.
// Payloads without a recognizable type, and all ICE candidates, pass through.
func CheckSignal(kind domain.Kind, payload json.RawMessage) error {
	if kind != domain.KindOffer && kind != domain.KindAnswer {
		return nil
	}
	var desc struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &desc); err != nil || desc.Type == "" {
		return nil
	}
	t := webrtc.NewSDPType(desc.Type)
	switch t {
	case webrtc.SDPTypeOffer:
		if kind == domain.KindOffer {
			return nil
		}
	case webrtc.SDPTypeAnswer, webrtc.SDPTypePranswer:
		if kind == domain.KindAnswer {
			return nil
		}
	default:
		// rollback and client-specific types are relayed untouched
		return nil
	}
	return fmt.Errorf("%w: %s carries %s", ErrSDPMismatch, kind, t)
}
