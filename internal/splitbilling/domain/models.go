// Package domain models split billing: dividing one invoice's total between
// the parent and a third-party payer for presentation. The payment ledger
// stays singular; per-portion payments are never tracked.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	invoicedomain "github.com/littleoaks/sprout/internal/invoice/domain"
	"github.com/littleoaks/sprout/pkg/money"
)

// Statement kinds.
const (
	StatementStandard   = "standard"
	StatementParent     = "split_parent"
	StatementThirdParty = "split_third_party"
)

// SetSplitRequest updates an invoice's split fields. A nil Pct or a Pct of
// 100 clears the split.
type SetSplitRequest struct {
	InvoiceID    snowflake.ID
	Pct          *int
	PayerName    string
	PayerAddress string
}

// Statement is one presentation of an invoice. The parent statement scales
// displayed paid/balance by the split percentage; the third-party statement
// carries only an informational amount due.
type Statement struct {
	Kind          string       `json:"kind"`
	InvoiceNumber string       `json:"invoice_number"`
	PayerName     string       `json:"payer_name"`
	PayerAddress  string       `json:"payer_address,omitempty"`
	PortionPct    int          `json:"portion_pct"`
	AmountDue     money.Amount `json:"amount_due"`
	// Authoritative only on standard and parent statements.
	DisplayedPaid    *money.Amount `json:"displayed_paid,omitempty"`
	DisplayedBalance *money.Amount `json:"displayed_balance,omitempty"`
	Informational    bool          `json:"informational"`
}

// StatementsResponse is the full presentation of one invoice.
type StatementsResponse struct {
	Invoice    invoicedomain.Invoice `json:"invoice"`
	Statements []Statement           `json:"statements"`
}

// Service manages split fields and derives statement presentations.
type Service interface {
	SetSplit(ctx context.Context, req SetSplitRequest) (invoicedomain.Invoice, error)
	Statements(ctx context.Context, invoiceID snowflake.ID) (StatementsResponse, error)
	RenderHTML(ctx context.Context, invoiceID snowflake.ID) (string, error)
}

var (
	ErrInvalidPct       = errors.New("invalid_split_pct")
	ErrMissingPayerName = errors.New("missing_split_payer_name")
)
