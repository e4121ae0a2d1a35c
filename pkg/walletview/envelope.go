package walletview

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeEnvelope unwraps the backend's inconsistent response envelopes
// into dst. Observed shapes are {"data":{"data":X}}, {"data":X}, and
// bare X; unwrapping recurses so the deepest nested payload always
// wins. Absent bodies and JSON null leave dst at its zero value rather
// than failing, matching the fail-open posture of the screens.
func DecodeEnvelope(body []byte, dst any) error {
	payload := unwrapPayload(body)
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return nil
}

func unwrapPayload(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] != '{' {
		return trimmed
	}
	var probe struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return trimmed
	}
	if len(bytes.TrimSpace(probe.Data)) == 0 {
		return trimmed
	}
	return unwrapPayload(probe.Data)
}
