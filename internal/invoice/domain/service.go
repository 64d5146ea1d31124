package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/littleoaks/sprout/pkg/db/pagination"
	"github.com/littleoaks/sprout/pkg/money"
)

// LineItemDraft is a caller-supplied line on a new or existing invoice.
type LineItemDraft struct {
	Description string       `json:"description"`
	ItemType    string       `json:"item_type"`
	Quantity    int          `json:"quantity"`
	UnitPrice   money.Amount `json:"unit_price"`
}

// CreateInvoiceRequest builds a new invoice, either from explicit line
// drafts or by auto-pricing the family's active children.
type CreateInvoiceRequest struct {
	FamilyID       snowflake.ID
	DueDate        *time.Time // nil: apply the facility due date policy
	PeriodStart    time.Time
	PeriodEnd      time.Time
	TaxAmount      money.Amount
	DiscountAmount money.Amount
	Notes          string
	Lines          []LineItemDraft
	AutoPrice      bool
}

// ListInvoiceRequest filters the invoice listing.
type ListInvoiceRequest struct {
	pagination.Pagination

	FamilyID snowflake.ID
	Status   Status // accepts the derived "overdue" projection
}

// InvoiceView is an invoice with its read-time display status.
type InvoiceView struct {
	Invoice
	DisplayStatus Status `json:"display_status"`
}

// ListInvoiceResponse is a page of invoices.
type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []InvoiceView `json:"invoices"`
}

// Service builds invoices and manages their line items.
type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	Get(ctx context.Context, id snowflake.ID) (Invoice, []LineItem, error)

	AddLine(ctx context.Context, invoiceID snowflake.ID, draft LineItemDraft) (Invoice, error)
	UpdateLine(ctx context.Context, invoiceID, lineID snowflake.ID, draft LineItemDraft) (Invoice, error)
	DeleteLine(ctx context.Context, invoiceID, lineID snowflake.ID) (Invoice, error)
}

var (
	ErrInvalidFamily      = errors.New("invalid_family_id")
	ErrFamilyNotFound     = errors.New("family_not_found")
	ErrInvalidPeriod      = errors.New("invalid_billing_period")
	ErrNoLines            = errors.New("invoice_requires_line_items")
	ErrNoActiveChildren   = errors.New("no_active_children")
	ErrInvalidDescription = errors.New("missing_line_description")
	ErrInvalidItemType    = errors.New("invalid_item_type")
	ErrInvalidQuantity    = errors.New("invalid_quantity")
	ErrNegativeUnitPrice  = errors.New("negative_unit_price")
	ErrNegativeTax        = errors.New("negative_tax_amount")
	ErrNegativeDiscount   = errors.New("negative_discount_amount")
	ErrInvalidStatus      = errors.New("invalid_status_filter")
	ErrInvoiceNotFound    = errors.New("invoice_not_found")
	ErrLineNotFound       = errors.New("line_item_not_found")
	ErrInvoiceNotEditable = errors.New("invoice_not_editable")
	ErrVersionConflict    = errors.New("concurrency_conflict")
)
