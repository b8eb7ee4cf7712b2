package correos

import (
	"bytes"
	"encoding/json"
)

// Fixed descriptions produced when the body carries no usable text.
const (
	NotFoundStatus   = "Tracking Not Found in Correos"
	noDescription    = "No description"
	statusNotFound   = "Status Not Found"
	unknownStructure = "Unknown structure"
)

// The tracking endpoint answers in several layouts depending on the state
// of the shipment. Matchers are tried in order and the first hit wins.
type shapeMatcher struct {
	name  string
	match func(doc map[string]any) (string, bool)
}

var shapes = []shapeMatcher{
	{"eventos", matchEventList},
	{"descEvento", matchTopLevelEvent},
	{"evento", matchNestedEvent},
	{"datosEnvios", matchShipmentList},
	{"error", matchErrorDescription},
}

// describe returns the latest event description in body and the name of the
// shape it was found in. ok is false when no shape matched.
func describe(body []byte) (desc, shape string, ok bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return statusNotFound, "empty", true
	}

	var doc any
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return "", "", false
	}

	switch v := doc.(type) {
	case map[string]any:
		for _, s := range shapes {
			if desc, ok := s.match(v); ok {
				return desc, s.name, true
			}
		}
	case []any:
		if len(v) > 0 {
			if desc, ok := eventDescription(v[0]); ok {
				return desc, "root-list", true
			}
			if _, isEvent := v[0].(map[string]any); isEvent {
				return noDescription, "root-list", true
			}
		}
	}
	return "", "", false
}

// fallback renders an unrecognised body as text for display.
func fallback(body []byte) string {
	trimmed := bytes.TrimSpace(body)

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		if s == "" {
			return unknownStructure
		}
		return s
	}
	if !json.Valid(trimmed) {
		return string(trimmed)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return unknownStructure
	}
	return buf.String()
}

func matchEventList(doc map[string]any) (string, bool) {
	events, ok := doc["eventos"].([]any)
	if !ok || len(events) == 0 {
		return "", false
	}
	if desc, ok := eventDescription(events[0]); ok {
		return desc, true
	}
	return noDescription, true
}

func matchTopLevelEvent(doc map[string]any) (string, bool) {
	return eventDescription(doc)
}

func matchNestedEvent(doc map[string]any) (string, bool) {
	return eventDescription(doc["evento"])
}

func matchShipmentList(doc map[string]any) (string, bool) {
	shipments, ok := doc["datosEnvios"].([]any)
	if !ok || len(shipments) == 0 {
		return "", false
	}
	shipment, ok := shipments[0].(map[string]any)
	if !ok {
		return statusNotFound, true
	}
	if events, ok := shipment["eventos"].([]any); ok && len(events) > 0 {
		if desc, ok := eventDescription(events[0]); ok {
			return desc, true
		}
		return noDescription, true
	}
	if state, ok := shipment["desEstado"].(string); ok && state != "" {
		return state, true
	}
	return statusNotFound, true
}

func matchErrorDescription(doc map[string]any) (string, bool) {
	apiErr, ok := doc["error"].(map[string]any)
	if !ok {
		return "", false
	}
	if desc, ok := apiErr["descripcion"].(string); ok && desc != "" {
		return "Error: " + desc, true
	}
	return "", false
}

// eventDescription reads descEvento, or desEvento on older payloads.
func eventDescription(v any) (string, bool) {
	event, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	for _, key := range []string{"descEvento", "desEvento"} {
		if s, ok := event[key].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
