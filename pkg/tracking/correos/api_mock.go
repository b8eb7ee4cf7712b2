package correos

import (
	"context"
	"hash/fnv"
	"net/http"
	"strings"
	"time"
)

// mockResponses covers each response layout the live API is known to use.
var mockResponses = []string{
	`{"eventos":[{"codEvento":"I","descEvento":"ENTREGADO EN DOMICILIO","fecEvento":"10/05/2024"}]}`,
	`{"desEvento":"EN REPARTO","codEvento":"H"}`,
	`{"evento":{"descEvento":"ADMITIDO","unidad":"CTA MADRID"}}`,
	`{"datosEnvios":[{"codEnvio":"PQ","eventos":[{"desEvento":"EN TRÁNSITO"}]}]}`,
	`{"datosEnvios":[{"codEnvio":"PQ","desEstado":"DEVUELTO AL REMITENTE"}]}`,
	`{"eventos":[{"descEvento":"LLEGADA A LA OFICINA DE ENTREGA"}]}`,
}

// MockAPIClient is a mock implementation of APIClient for testing and demos.
// Codes containing NOTFOUND, as well as ProbeTrackingNumber, answer 404.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetEvents func(ctx context.Context, trackingNumber string) ([]byte, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// GetEvents returns a canned response chosen deterministically from the
// tracking number.
func (m *MockAPIClient) GetEvents(ctx context.Context, trackingNumber string) ([]byte, error) {
	if m.SimulateLatency > 0 {
		select {
		case <-time.After(m.SimulateLatency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.SimulateErrors {
		return nil, &APIError{StatusCode: http.StatusInternalServerError, Code: "MOCK_ERROR", Description: "Simulated API error"}
	}

	if m.OnGetEvents != nil {
		return m.OnGetEvents(ctx, trackingNumber)
	}

	if trackingNumber == ProbeTrackingNumber || strings.Contains(strings.ToUpper(trackingNumber), "NOTFOUND") {
		return nil, &APIError{StatusCode: http.StatusNotFound, Description: "Envío no encontrado"}
	}

	h := fnv.New32a()
	h.Write([]byte(trackingNumber))
	return []byte(mockResponses[h.Sum32()%uint32(len(mockResponses))]), nil
}

var _ APIClient = (*MockAPIClient)(nil)
