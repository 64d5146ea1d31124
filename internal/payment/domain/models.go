// Package domain holds the append-only payment ledger. Payments are facts
// that funds changed hands; nothing here talks to a payment gateway.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/littleoaks/sprout/pkg/money"
)

// Payment methods accepted for recording.
const (
	MethodCash  = "cash"
	MethodCheck = "check"
	MethodCard  = "card"
	MethodACH   = "ach"
	MethodOther = "other"
)

// ValidMethod reports whether m is a known payment method.
func ValidMethod(m string) bool {
	switch m {
	case MethodCash, MethodCheck, MethodCard, MethodACH, MethodOther:
		return true
	}
	return false
}

// Payment is one recorded payment against an invoice. Rows are never
// updated or deleted; amountPaid is always the sum over them.
type Payment struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID       snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	Amount          money.Amount `gorm:"not null" json:"amount"`
	Method          string       `gorm:"type:text;not null" json:"method"`
	PaymentDate     time.Time    `gorm:"not null" json:"payment_date"`
	ReferenceNumber string       `gorm:"type:text" json:"reference_number,omitempty"`
	ReceiptNumber   string       `gorm:"type:text;not null;uniqueIndex" json:"receipt_number"`
	Notes           string       `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }
