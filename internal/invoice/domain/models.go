// Package domain holds the invoice aggregate: the invoice row, its line
// items, and the derived monetary fields that must stay consistent.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/littleoaks/sprout/pkg/money"
)

// Status is a committed invoice state. Overdue is never persisted; it is
// derived at read time from the due date so it can never go stale.
type Status string

const (
	StatusPending Status = "pending"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
	StatusVoid    Status = "void"

	// StatusOverdue is a read-time projection only.
	StatusOverdue Status = "overdue"
)

// Line item types.
const (
	ItemTuition      = "tuition"
	ItemRegistration = "registration"
	ItemSupplyFee    = "supply_fee"
	ItemActivityFee  = "activity_fee"
	ItemLatePickup   = "late_pickup"
	ItemLatePayment  = "late_payment"
	ItemOther        = "other"
)

// ValidItemType reports whether t is a known line item type.
func ValidItemType(t string) bool {
	switch t {
	case ItemTuition, ItemRegistration, ItemSupplyFee, ItemActivityFee,
		ItemLatePickup, ItemLatePayment, ItemOther:
		return true
	}
	return false
}

// Invoice is the billing aggregate root.
type Invoice struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceNumber string       `gorm:"type:text;not null;uniqueIndex" json:"invoice_number"`
	FamilyID      snowflake.ID `gorm:"not null;index" json:"family_id"`
	IssuedDate    time.Time    `gorm:"not null" json:"issued_date"`
	DueDate       time.Time    `gorm:"not null;index" json:"due_date"`
	PeriodStart   time.Time    `gorm:"not null" json:"period_start"`
	PeriodEnd     time.Time    `gorm:"not null" json:"period_end"`
	Status        Status       `gorm:"type:text;not null;index" json:"status"`

	Subtotal       money.Amount `gorm:"not null" json:"subtotal"`
	TaxAmount      money.Amount `gorm:"not null" json:"tax_amount"`
	DiscountAmount money.Amount `gorm:"not null" json:"discount_amount"`
	Total          money.Amount `gorm:"not null" json:"total"`
	AmountPaid     money.Amount `gorm:"not null" json:"amount_paid"`
	BalanceDue     money.Amount `gorm:"not null" json:"balance_due"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	SplitPct          *int   `gorm:"column:split_billing_pct" json:"split_billing_pct,omitempty"`
	SplitPayerName    string `gorm:"type:text" json:"split_billing_payer,omitempty"`
	SplitPayerAddress string `gorm:"type:text" json:"split_billing_payer_address,omitempty"`

	// Version backs optimistic concurrency; every mutating transaction
	// does a compare-and-swap on it.
	Version   int64     `gorm:"not null;default:1" json:"-"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Editable reports whether line items and split fields may still change.
func (i Invoice) Editable() bool {
	return i.Status == StatusPending || i.Status == StatusPartial
}

// DisplayStatus projects the read-time status, deriving overdue from the
// due date without persisting it.
func (i Invoice) DisplayStatus(asOf time.Time) Status {
	if (i.Status == StatusPending || i.Status == StatusPartial) &&
		i.BalanceDue.IsPositive() && asOf.After(i.DueDate) {
		return StatusOverdue
	}
	return i.Status
}

// DaysPastDue counts whole days between the due date and asOf. Zero or
// negative means not yet due.
func (i Invoice) DaysPastDue(asOf time.Time) int {
	due := i.DueDate.Truncate(24 * time.Hour)
	day := asOf.Truncate(24 * time.Hour)
	return int(day.Sub(due).Hours() / 24)
}

// Recompute rederives subtotal, total, balance, and status from the line
// items and the paid amount. Void invoices are frozen and never touched.
func (i *Invoice) Recompute(lines []LineItem, amountPaid money.Amount) {
	if i.Status == StatusVoid {
		return
	}

	subtotal := money.Zero()
	for _, line := range lines {
		subtotal = subtotal.Add(line.Total)
	}
	i.Subtotal = subtotal
	i.Total = subtotal.Add(i.TaxAmount).Sub(i.DiscountAmount).FloorZero()
	i.AmountPaid = amountPaid
	i.BalanceDue = i.Total.Sub(amountPaid).FloorZero()

	switch {
	case !amountPaid.IsPositive():
		i.Status = StatusPending
	case i.BalanceDue.IsPositive():
		i.Status = StatusPartial
	default:
		i.Status = StatusPaid
	}
}

// LineItem is one billable or discount entry on an invoice.
type LineItem struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID  `gorm:"not null;index" json:"invoice_id"`
	ChildID   *snowflake.ID `gorm:"index" json:"child_id,omitempty"`

	Description string       `gorm:"type:text;not null" json:"description"`
	ItemType    string       `gorm:"type:text;not null" json:"item_type"`
	Quantity    int          `gorm:"not null" json:"quantity"`
	UnitPrice   money.Amount `gorm:"not null" json:"unit_price"`
	Total       money.Amount `gorm:"not null" json:"total"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (LineItem) TableName() string { return "invoice_line_items" }

// InvoiceSequence backs the facility-wide sequential invoice number. The
// single row is incremented inside the creating transaction, which holds
// its lock until commit.
type InvoiceSequence struct {
	ID        int64 `gorm:"primaryKey"`
	LastValue int64 `gorm:"not null"`
}

// TableName sets the database table name.
func (InvoiceSequence) TableName() string { return "invoice_sequences" }
