package app

import (
	"fmt"

	"github.com/dkeye/SignCall/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a connection whose outbound queue is full.
type Policy interface {
	OnBackPressure(cid core.ConnID) BackpressureAction
}

type SimplePolicy struct {
	Action BackpressureAction
}

func (p SimplePolicy) OnBackPressure(core.ConnID) BackpressureAction {
	return p.Action
}

// PolicyFromString maps the config value to a policy.
func PolicyFromString(s string) (Policy, error) {
	switch s {
	case "", "kick":
		return SimplePolicy{Action: KickMember}, nil
	case "drop":
		return SimplePolicy{Action: DropFrame}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure policy %q", s)
	}
}
