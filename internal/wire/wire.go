// Package wire defines the JSON messages exchanged with joystick clients
// and published to brokers.
package wire

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/san-kum/geostick/internal/motion"
)

const (
	TypeFix      = "fix"
	TypeKnob     = "knob"
	TypeTouch    = "touch"
	TypeSettings = "settings"
	TypeError    = "error"
)

const (
	ActionPress   = "press"
	ActionMove    = "move"
	ActionRelease = "release"
	ActionCancel  = "cancel"
)

var ErrMalformed = errors.New("wire: malformed message")

type Message struct {
	Type     string            `json:"type"`
	Fix      *motion.GeoSample `json:"fix,omitempty"`
	Knob     *Knob             `json:"knob,omitempty"`
	Touch    *Touch            `json:"touch,omitempty"`
	Settings *Settings         `json:"settings,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Touch is a pointer event in pad coordinates.
type Touch struct {
	Action string  `json:"action"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type Knob struct {
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Vector motion.Vector2 `json:"vector"`
	State  string         `json:"state"`
}

// Settings toggles pad behaviour; nil fields are left unchanged.
type Settings struct {
	SnapBack    *bool `json:"snap_back,omitempty"`
	MoveToTouch *bool `json:"move_to_touch,omitempty"`
}

// Location is the body of the location endpoint.
type Location struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Running bool    `json:"running"`
	Ticks   int     `json:"ticks"`
}

func FixMessage(s motion.GeoSample) Message { return Message{Type: TypeFix, Fix: &s} }
func KnobMessage(k Knob) Message            { return Message{Type: TypeKnob, Knob: &k} }
func ErrorMessage(err error) Message        { return Message{Type: TypeError, Error: err.Error()} }

func Encode(m Message) ([]byte, error) {
	return sonic.Marshal(m)
}

func EncodeFix(s motion.GeoSample) ([]byte, error) {
	return sonic.Marshal(s)
}

func DecodeFix(data []byte) (motion.GeoSample, error) {
	var s motion.GeoSample
	if err := sonic.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return s, nil
}

// Decode parses a client message and checks that the payload matching
// its type is present.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := sonic.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch m.Type {
	case TypeTouch:
		if m.Touch == nil {
			return m, fmt.Errorf("%w: touch without payload", ErrMalformed)
		}
		switch m.Touch.Action {
		case ActionPress, ActionMove, ActionRelease, ActionCancel:
		default:
			return m, fmt.Errorf("%w: unknown action %q", ErrMalformed, m.Touch.Action)
		}
	case TypeSettings:
		if m.Settings == nil {
			return m, fmt.Errorf("%w: settings without payload", ErrMalformed)
		}
	case TypeFix:
		if m.Fix == nil {
			return m, fmt.Errorf("%w: fix without payload", ErrMalformed)
		}
	case TypeKnob:
		if m.Knob == nil {
			return m, fmt.Errorf("%w: knob without payload", ErrMalformed)
		}
	default:
		return m, fmt.Errorf("%w: unknown type %q", ErrMalformed, m.Type)
	}
	return m, nil
}
