package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	invoicedomain "github.com/littleoaks/sprout/internal/invoice/domain"
	"github.com/littleoaks/sprout/pkg/money"
)

// RecordPaymentRequest records one payment against an invoice.
type RecordPaymentRequest struct {
	InvoiceID       snowflake.ID
	Amount          money.Amount
	Method          string
	PaymentDate     time.Time
	ReferenceNumber string
	Notes           string
}

// Service is the payment ledger: it records payments and voids invoices.
type Service interface {
	Record(ctx context.Context, req RecordPaymentRequest) (Payment, invoicedomain.Invoice, error)
	Void(ctx context.Context, invoiceID snowflake.ID) (invoicedomain.Invoice, error)
	ListByInvoice(ctx context.Context, invoiceID snowflake.ID) ([]Payment, error)
}

var (
	ErrNonPositiveAmount  = errors.New("non_positive_payment_amount")
	ErrInvalidMethod      = errors.New("invalid_payment_method")
	ErrInvoiceVoid        = errors.New("invoice_void")
	ErrInvoiceAlreadyPaid = errors.New("invoice_already_paid")
)
