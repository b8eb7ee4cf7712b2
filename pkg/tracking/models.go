package tracking

import (
	"strings"
	"time"
)

// Customer holds the name parts of an order's customer.
type Customer struct {
	FirstName string
	LastName  string
}

// Fulfillment is one shipped package of an order.
type Fulfillment struct {
	TrackingNumber  string
	TrackingCompany string // empty when the platform has no carrier recorded
}

// Order is a commerce order as returned by the OrderSource.
type Order struct {
	ID                  string
	Name                string // display name, e.g. "#1001"
	CreatedAt           time.Time
	Gateway             string
	PaymentGatewayNames []string
	FinancialStatus     string
	Customer            *Customer
	Fulfillments        []Fulfillment
}

// CustomerName returns "First Last" trimmed, or "N/A" when the order has no
// customer attached.
func (o *Order) CustomerName() string {
	if o.Customer == nil {
		return "N/A"
	}
	return strings.TrimSpace(o.Customer.FirstName + " " + o.Customer.LastName)
}

// Record is one tracked COD order in the aggregation result.
type Record struct {
	OrderNumber string `json:"order_number"`
	OrderDate   string `json:"order_date"`
	Customer    string `json:"customer"`
	Tracking    string `json:"tracking"`
	Status      Status `json:"status"`
	RawStatus   string `json:"raw_status"`
}

// Window bounds an order query by creation time. Nil bounds are open.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// NewWindow builds a Window from calendar dates. The end bound is moved to
// 23:59:59.999 of its day in the end date's location so the whole day is
// included.
func NewWindow(start, end *time.Time) Window {
	w := Window{Start: start}
	if end != nil {
		e := EndOfDay(*end)
		w.End = &e
	}
	return w
}

// EndOfDay returns the last millisecond of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// ProbeResult is the outcome of one connectivity check.
type ProbeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Report holds the connectivity results for both upstream services.
type Report struct {
	Commerce ProbeResult `json:"commerce"`
	Carrier  ProbeResult `json:"carrier"`
}

// OK reports whether both probes succeeded.
func (r Report) OK() bool {
	return r.Commerce.Success && r.Carrier.Success
}
