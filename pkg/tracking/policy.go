package tracking

import (
	"strings"
)

// Policy decides which orders and fulfillments are tracked.
type Policy struct {
	CODMarker    string // gateway substring identifying cash on delivery
	ManualMarker string // gateway substring of manual payments, COD when pending
	CarrierToken string // tracking company substring of our carrier
}

// DefaultPolicy returns the Shopify + Correos selection policy.
func DefaultPolicy() Policy {
	return Policy{
		CODMarker:    "cash on delivery",
		ManualMarker: "manual",
		CarrierToken: "correos",
	}
}

// IsCOD reports whether the order was paid cash on delivery.
func (p Policy) IsCOD(o *Order) bool {
	if containsFold(o.Gateway, p.CODMarker) {
		return true
	}
	for _, name := range o.PaymentGatewayNames {
		if containsFold(name, p.CODMarker) {
			return true
		}
	}
	return o.FinancialStatus == "pending" && containsFold(o.Gateway, p.ManualMarker)
}

// SelectFulfillment returns the first fulfillment with a tracking number
// whose company is empty or names our carrier.
func (p Policy) SelectFulfillment(fulfillments []Fulfillment) (Fulfillment, bool) {
	for _, f := range fulfillments {
		if strings.TrimSpace(f.TrackingNumber) == "" {
			continue
		}
		company := strings.TrimSpace(f.TrackingCompany)
		if company == "" || containsFold(company, p.CarrierToken) {
			return f, true
		}
	}
	return Fulfillment{}, false
}

func containsFold(s, marker string) bool {
	if marker == "" || s == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(marker))
}
