package correos

import (
	"context"
	"fmt"
)

// APIClient defines the Correos tracking API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetEvents fetches the latest tracking events for a shipment code and
	// returns the raw JSON body. Non-2xx answers are returned as *APIError.
	GetEvents(ctx context.Context, trackingNumber string) ([]byte, error)
}

// APIError is a non-2xx answer from the Correos API.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d - %s", e.StatusCode, e.Description)
}
