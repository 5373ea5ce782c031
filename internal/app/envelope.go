package app

import (
	"encoding/json"
	"strings"
)

// envelope is the JSON wrapper used on every fleet pub/sub topic.
type envelope struct {
	Data envelopeData `json:"data"`
}

type envelopeData struct {
	Message json.RawMessage `json:"message"`
}

// encodeEnvelope wraps a payload value in the fleet envelope.
func encodeEnvelope(message any) ([]byte, error) {
	raw, err := json.Marshal(message)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Data: envelopeData{Message: raw}})
}

// decodeEnvelopeText extracts the message text from an envelope
// payload, falling back to the raw body for plain-text messages.
func decodeEnvelopeText(payload []byte) string {
	var wrapped envelope
	if err := json.Unmarshal(payload, &wrapped); err == nil && len(wrapped.Data.Message) > 0 {
		var text string
		if err := json.Unmarshal(wrapped.Data.Message, &text); err == nil {
			return text
		}
		return string(wrapped.Data.Message)
	}
	return strings.TrimSpace(string(payload))
}
