// Package events stores billing events in a transactional outbox so
// downstream consumers (notifications, exports) can react without coupling.
package events

// Billing event types.
const (
	EventInvoiceCreated  = "invoice_created"
	EventInvoiceVoided   = "invoice_voided"
	EventLineItemChanged = "invoice_line_changed"
	EventPaymentRecorded = "payment_recorded"
	EventSplitUpdated    = "invoice_split_updated"
)

// InvoicePayload is the minimal invoice event payload.
type InvoicePayload struct {
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	FamilyID      string `json:"family_id"`
}

// PaymentPayload is the minimal payment event payload.
type PaymentPayload struct {
	PaymentID string `json:"payment_id"`
	InvoiceID string `json:"invoice_id"`
	Amount    string `json:"amount"`
	Method    string `json:"method"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p InvoicePayload) ToMap() map[string]any {
	return map[string]any{
		"invoice_id":     p.InvoiceID,
		"invoice_number": p.InvoiceNumber,
		"family_id":      p.FamilyID,
	}
}

// ToMap converts a payload into an outbox-friendly map.
func (p PaymentPayload) ToMap() map[string]any {
	return map[string]any{
		"payment_id": p.PaymentID,
		"invoice_id": p.InvoiceID,
		"amount":     p.Amount,
		"method":     p.Method,
	}
}
