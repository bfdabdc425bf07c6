package delivery

import (
	"encoding/json"
	"fmt"
)

// Event is an outbound message produced by an effect.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// EventEncoder turns an event into wire-format bytes.
type EventEncoder interface {
	Encode(event Event) ([]byte, error)
}

// EventEncoderFunc adapts a function to EventEncoder.
type EventEncoderFunc func(event Event) ([]byte, error)

// Encode calls f(event).
func (f EventEncoderFunc) Encode(event Event) ([]byte, error) {
	return f(event)
}

// JSONEncoder encodes events as {"type":...,"payload":...}.
type JSONEncoder struct{}

// Encode implements EventEncoder.
func (JSONEncoder) Encode(event Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeEvent, err)
	}
	return data, nil
}

// Decode parses a JSON event frame. Payload is kept as json.RawMessage.
func (JSONEncoder) Decode(data []byte) (Event, error) {
	var raw struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Event{}, err
	}
	ev := Event{Type: raw.Type}
	if len(raw.Payload) > 0 {
		ev.Payload = raw.Payload
	}
	return ev, nil
}
