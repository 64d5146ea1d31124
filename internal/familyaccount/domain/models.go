// Package domain models the family account: one guardian's financial view
// across all of their children's invoices and payments. Read-only.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	enrollmentdomain "github.com/littleoaks/sprout/internal/enrollment/domain"
	invoicedomain "github.com/littleoaks/sprout/internal/invoice/domain"
	paymentdomain "github.com/littleoaks/sprout/internal/payment/domain"
	"github.com/littleoaks/sprout/pkg/db/pagination"
	"github.com/littleoaks/sprout/pkg/money"
)

// AccountRequest asks for one family's account view.
type AccountRequest struct {
	pagination.Pagination

	FamilyID snowflake.ID
}

// Summary rolls the family's invoices into headline numbers.
type Summary struct {
	// TotalBalance sums balance due over non-void invoices.
	TotalBalance money.Amount `json:"total_balance"`
	// TotalPaid sums amount paid over all invoices, void included.
	TotalPaid    money.Amount `json:"total_paid"`
	InvoiceCount int64        `json:"invoice_count"`
}

// Account is the aggregated view returned to the caller.
type Account struct {
	Guardian enrollmentdomain.Family     `json:"guardian"`
	Children []enrollmentdomain.Child    `json:"children"`
	Invoices []invoicedomain.InvoiceView `json:"invoices"`
	Payments []paymentdomain.Payment     `json:"payments"`
	PageInfo pagination.PageInfo         `json:"payments_page_info"`
	Summary  Summary                     `json:"summary"`
}

// Service aggregates one family's account.
type Service interface {
	Get(ctx context.Context, req AccountRequest) (Account, error)
}

var ErrFamilyNotFound = errors.New("family_not_found")
