package correos_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/codtracker/pkg/tracking"
	"github.com/tournevent/codtracker/pkg/tracking/correos"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestClient(mockClient *correos.MockAPIClient) *correos.Client {
	logger := otelzap.New(zap.NewNop())
	return correos.NewWithAPIClient(
		correos.Config{ClientID: "client", Secret: "secret"},
		mockClient,
		logger,
		nil,
	)
}

func respond(body string) func(context.Context, string) ([]byte, error) {
	return func(ctx context.Context, trackingNumber string) ([]byte, error) {
		return []byte(body), nil
	}
}

func TestClient_Name(t *testing.T) {
	assert.Equal(t, "correos", newTestClient(correos.NewMockAPIClient()).Name())
}

func TestClient_Resolve_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"event list descEvento", `{"eventos":[{"descEvento":"ENTREGADO EN DOMICILIO"},{"descEvento":"EN REPARTO"}]}`, "ENTREGADO EN DOMICILIO"},
		{"event list desEvento", `{"eventos":[{"desEvento":"EN REPARTO"}]}`, "EN REPARTO"},
		{"event list without description", `{"eventos":[{"codEvento":"X"}]}`, "No description"},
		{"top-level descEvento", `{"descEvento":"ADMITIDO"}`, "ADMITIDO"},
		{"top-level desEvento", `{"desEvento":"EN CAMINO"}`, "EN CAMINO"},
		{"nested event", `{"evento":{"desEvento":"EN OFICINA DE CAMBIO"}}`, "EN OFICINA DE CAMBIO"},
		{"shipment events", `{"datosEnvios":[{"eventos":[{"descEvento":"EN TRÁNSITO"}]}]}`, "EN TRÁNSITO"},
		{"shipment event without description", `{"datosEnvios":[{"eventos":[{}]}]}`, "No description"},
		{"shipment state", `{"datosEnvios":[{"desEstado":"DEVUELTO"}]}`, "DEVUELTO"},
		{"shipment without data", `{"datosEnvios":[{"codEnvio":"PQ"}]}`, "Status Not Found"},
		{"error description", `{"error":{"codigo":"E01","descripcion":"Envío no válido"}}`, "Error: Envío no válido"},
		{"empty event list falls through", `{"eventos":[],"descEvento":"ENTREGADO"}`, "ENTREGADO"},
		{"root event list", `[{"descEvento":"EN REPARTO"}]`, "EN REPARTO"},
		{"empty body", ``, "Status Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAPI := correos.NewMockAPIClient()
			mockAPI.OnGetEvents = respond(tt.body)

			got, err := newTestClient(mockAPI).Resolve(context.Background(), "PQ123")

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_Resolve_UnexpectedShapeWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	mockAPI := correos.NewMockAPIClient()
	mockAPI.OnGetEvents = respond(`{"foo": {"bar": 1}}`)
	client := correos.NewWithAPIClient(correos.Config{ClientID: "c", Secret: "s"}, mockAPI, otelzap.New(zap.New(core)), nil)

	got, err := client.Resolve(context.Background(), "PQ123")

	require.NoError(t, err)
	assert.Equal(t, `{"foo":{"bar":1}}`, got)
	assert.Equal(t, 1, logs.FilterMessage("Correos API response has unexpected structure").Len())
}

func TestClient_Resolve_PlainTextBody(t *testing.T) {
	mockAPI := correos.NewMockAPIClient()
	mockAPI.OnGetEvents = respond("Servicio en mantenimiento")

	got, err := newTestClient(mockAPI).Resolve(context.Background(), "PQ123")

	require.NoError(t, err)
	assert.Equal(t, "Servicio en mantenimiento", got)
}

func TestClient_Resolve_TrimsTrackingNumber(t *testing.T) {
	var seen string
	mockAPI := correos.NewMockAPIClient()
	mockAPI.OnGetEvents = func(ctx context.Context, trackingNumber string) ([]byte, error) {
		seen = trackingNumber
		return []byte(`{"descEvento":"ADMITIDO"}`), nil
	}

	_, err := newTestClient(mockAPI).Resolve(context.Background(), "  PQ123ES \n")

	require.NoError(t, err)
	assert.Equal(t, "PQ123ES", seen)
}

func TestClient_Resolve_NotFoundIsNotAnError(t *testing.T) {
	mockAPI := correos.NewMockAPIClient()
	mockAPI.OnGetEvents = func(ctx context.Context, trackingNumber string) ([]byte, error) {
		return nil, &correos.APIError{StatusCode: http.StatusNotFound, Description: "not found"}
	}

	got, err := newTestClient(mockAPI).Resolve(context.Background(), "PQ404")

	require.NoError(t, err)
	assert.Equal(t, correos.NotFoundStatus, got)
}

func TestClient_Resolve_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{"unauthorized", &correos.APIError{StatusCode: 401, Description: "Unauthorized"}, tracking.ErrAuthenticationFailed, "Authentication Failed: 401"},
		{"forbidden", &correos.APIError{StatusCode: 403, Description: "Forbidden"}, tracking.ErrAuthenticationFailed, "Authentication Failed: 403"},
		{"server error", &correos.APIError{StatusCode: 500, Description: "Error interno"}, tracking.ErrUpstream, "500 - Error interno"},
		{"deadline", context.DeadlineExceeded, tracking.ErrTimeout, "timed out"},
		{"net timeout", &net.OpError{Op: "read", Err: timeoutErr{}}, tracking.ErrTimeout, "timed out"},
		{"connection refused", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, tracking.ErrTransport, "no response received"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAPI := correos.NewMockAPIClient()
			mockAPI.OnGetEvents = func(ctx context.Context, trackingNumber string) ([]byte, error) {
				return nil, tt.err
			}

			client := newTestClient(mockAPI)
			got, err := client.Resolve(context.Background(), "PQ123")

			assert.Empty(t, got)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), err.Error())
			assert.Contains(t, err.Error(), tt.contains)

			var svcErr *tracking.ServiceError
			require.True(t, errors.As(err, &svcErr))
			assert.Equal(t, client.Name(), svcErr.Service)
		})
	}
}

func TestClient_Resolve_LookupTimeout(t *testing.T) {
	mockAPI := correos.NewMockAPIClient()
	mockAPI.SimulateLatency = time.Second
	client := correos.NewWithAPIClient(
		correos.Config{ClientID: "c", Secret: "s", LookupTimeout: 20 * time.Millisecond},
		mockAPI,
		otelzap.New(zap.NewNop()),
		nil,
	)

	_, err := client.Resolve(context.Background(), "PQ123")

	require.Error(t, err)
	assert.True(t, errors.Is(err, tracking.ErrTimeout))
	assert.True(t, tracking.IsTransient(err))
}

func TestClient_Resolve_NotConfigured(t *testing.T) {
	called := false
	mockAPI := correos.NewMockAPIClient()
	mockAPI.OnGetEvents = func(ctx context.Context, trackingNumber string) ([]byte, error) {
		called = true
		return nil, nil
	}
	client := correos.NewWithAPIClient(correos.Config{}, mockAPI, otelzap.New(zap.NewNop()), nil)

	_, err := client.Resolve(context.Background(), "PQ123")

	require.Error(t, err)
	assert.True(t, errors.Is(err, tracking.ErrNotConfigured))
	assert.False(t, called, "no call may be made without credentials")
}

func TestClient_Resolve_EmptyTrackingNumber(t *testing.T) {
	_, err := newTestClient(correos.NewMockAPIClient()).Resolve(context.Background(), "   ")

	require.Error(t, err)
	assert.True(t, errors.Is(err, tracking.ErrInvalidRequest))
}

func TestClient_Resolve_DefaultMock(t *testing.T) {
	client := newTestClient(correos.NewMockAPIClient())

	got, err := client.Resolve(context.Background(), "PQ4F6D8A0011234567")
	require.NoError(t, err)
	assert.NotEmpty(t, got)

	got, err = client.Resolve(context.Background(), "NOTFOUND-1")
	require.NoError(t, err)
	assert.Equal(t, correos.NotFoundStatus, got)
}

func TestClient_Probe(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		success bool
	}{
		{"ok", nil, true},
		{"not found", &correos.APIError{StatusCode: http.StatusNotFound}, true},
		{"bad format", &correos.APIError{StatusCode: http.StatusBadRequest}, true},
		{"unauthorized", &correos.APIError{StatusCode: http.StatusUnauthorized}, false},
		{"forbidden", &correos.APIError{StatusCode: http.StatusForbidden}, false},
		{"server error", &correos.APIError{StatusCode: http.StatusBadGateway, Description: "bad gateway"}, false},
		{"timeout", context.DeadlineExceeded, false},
		{"transport", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			mockAPI := correos.NewMockAPIClient()
			mockAPI.OnGetEvents = func(ctx context.Context, trackingNumber string) ([]byte, error) {
				seen = trackingNumber
				if tt.err != nil {
					return nil, tt.err
				}
				return []byte(`{}`), nil
			}

			result := newTestClient(mockAPI).Probe(context.Background())

			assert.Equal(t, tt.success, result.Success)
			assert.NotEmpty(t, result.Message)
			assert.Equal(t, correos.ProbeTrackingNumber, seen)
		})
	}
}

func TestClient_Probe_NotConfigured(t *testing.T) {
	client := correos.NewWithAPIClient(correos.Config{ClientID: "only-id"}, correos.NewMockAPIClient(), otelzap.New(zap.NewNop()), nil)

	result := client.Probe(context.Background())

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "not set")
}

func TestClient_Probe_DefaultMockSucceeds(t *testing.T) {
	client := correos.New(correos.Config{UseMock: true}, otelzap.New(zap.NewNop()), nil)

	result := client.Probe(context.Background())

	assert.True(t, result.Success)
	assert.Contains(t, result.Message, correos.ProbeTrackingNumber)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }
