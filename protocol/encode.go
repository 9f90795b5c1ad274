package protocol

import (
	"encoding/json"
	"fmt"

	"scrum-poker-relay/domain"
)

// Encode serializes an inbound frame with its type tag, the inverse of
// Decode. Clients use it to talk to the relay.
func Encode(frame domain.Inbound) ([]byte, error) {
	tag, err := json.Marshal(struct {
		Type domain.FrameType `json:"type"`
	}{Type: frame.Kind()})
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", frame.Kind(), err)
	}
	if len(body) <= 2 {
		return tag, nil
	}

	// splice {"type":"x"} and {"a":1} into {"type":"x","a":1}
	out := make([]byte, 0, len(tag)+len(body))
	out = append(out, tag[:len(tag)-1]...)
	out = append(out, ',')
	out = append(out, body[1:]...)
	return out, nil
}
