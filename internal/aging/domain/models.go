// Package domain models receivables aging: outstanding balances bucketed by
// time past due. Bucket totals must reconcile exactly with the outstanding
// balance of the invoices they cover.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/littleoaks/sprout/pkg/money"
)

// Bucket names, mutually exclusive by days past due.
const (
	BucketCurrent = "current" // not yet due
	BucketDays30  = "days_30" // 1-30
	BucketDays60  = "days_60" // 31-60
	BucketDays90  = "days_90" // 61-90
	BucketOver90  = "over_90" // >90
)

// AgedInvoice is one outstanding invoice inside a bucket.
type AgedInvoice struct {
	InvoiceID     snowflake.ID `json:"invoice_id"`
	InvoiceNumber string       `json:"invoice_number"`
	FamilyID      snowflake.ID `json:"family_id"`
	GuardianName  string       `json:"guardian_name"`
	DueDate       time.Time    `json:"due_date"`
	DaysPastDue   int          `json:"days_past_due"`
	BalanceDue    money.Amount `json:"balance_due"`
}

// Bucket is one aging tier with its invoices and dollar sum.
type Bucket struct {
	Name     string        `json:"name"`
	Total    money.Amount  `json:"total"`
	Invoices []AgedInvoice `json:"invoices"`
}

// FamilyRow is the per-family breakdown across the five columns.
type FamilyRow struct {
	FamilyID     snowflake.ID `json:"family_id"`
	GuardianName string       `json:"guardian_name"`
	Current      money.Amount `json:"current"`
	Days30       money.Amount `json:"days_30"`
	Days60       money.Amount `json:"days_60"`
	Days90       money.Amount `json:"days_90"`
	Over90       money.Amount `json:"over_90"`
	Total        money.Amount `json:"total"`
}

// Report is the full aging report as of one date.
type Report struct {
	AsOf             time.Time    `json:"as_of"`
	Buckets          []Bucket     `json:"buckets"`
	TotalOutstanding money.Amount `json:"total_outstanding"`
	Families         []FamilyRow  `json:"families"`
}

// Service computes the aging report.
type Service interface {
	ComputeAging(ctx context.Context, asOf time.Time) (Report, error)
}

var ErrInvalidAsOf = errors.New("invalid_as_of_date")
