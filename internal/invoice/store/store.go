// Package store holds the shared invoice persistence helpers used by every
// service that mutates the invoice aggregate (builder, payment ledger,
// split billing). All writes go through the version compare-and-swap so two
// concurrent mutations can never derive balances from stale state.
package store

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	invoicedomain "github.com/littleoaks/sprout/internal/invoice/domain"
	"github.com/littleoaks/sprout/pkg/money"
)

// Load fetches one invoice inside the given transaction.
func Load(ctx context.Context, tx *gorm.DB, id snowflake.ID) (invoicedomain.Invoice, error) {
	var inv invoicedomain.Invoice
	err := tx.WithContext(ctx).Where("id = ?", id).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
	}
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return inv, nil
}

// LoadLines fetches an invoice's line items in insertion order.
func LoadLines(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) ([]invoicedomain.LineItem, error) {
	var lines []invoicedomain.LineItem
	err := tx.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// SumPayments totals every recorded payment on an invoice.
func SumPayments(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) (money.Amount, error) {
	var rows []money.Amount
	err := tx.WithContext(ctx).
		Table("payments").
		Where("invoice_id = ?", invoiceID).
		Pluck("amount", &rows).Error
	if err != nil {
		return money.Zero(), err
	}
	return money.Sum(rows...), nil
}

// SaveCAS writes the invoice's derived fields guarded by the version
// column. A version miss means a concurrent writer won; the caller maps it
// to a retryable conflict.
func SaveCAS(ctx context.Context, tx *gorm.DB, inv *invoicedomain.Invoice) error {
	prev := inv.Version
	inv.Version = prev + 1

	res := tx.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("id = ? AND version = ?", inv.ID, prev).
		Updates(map[string]any{
			"status":              inv.Status,
			"subtotal":            inv.Subtotal,
			"tax_amount":          inv.TaxAmount,
			"discount_amount":     inv.DiscountAmount,
			"total":               inv.Total,
			"amount_paid":         inv.AmountPaid,
			"balance_due":         inv.BalanceDue,
			"due_date":            inv.DueDate,
			"notes":               inv.Notes,
			"split_billing_pct":   inv.SplitPct,
			"split_payer_name":    inv.SplitPayerName,
			"split_payer_address": inv.SplitPayerAddress,
			"version":             inv.Version,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return invoicedomain.ErrVersionConflict
	}
	return nil
}
