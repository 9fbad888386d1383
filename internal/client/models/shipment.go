package models

// Shipment is the thin client-side view of a shipment resource. The CLI only
// lists and inspects shipments; editing them belongs to the web frontend.
type Shipment struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	CustodianID string `json:"custodian_id,omitempty"`
}
