package domain

import (
	"testing"
	"time"

	"github.com/littleoaks/sprout/pkg/money"
)

func TestRecomputeDerivesStatus(t *testing.T) {
	lines := []LineItem{
		{Total: money.MustParse("150.00")},
		{Total: money.MustParse("150.00")},
	}

	inv := Invoice{Status: StatusPending}
	inv.Recompute(lines, money.Zero())
	if got := inv.Subtotal.String(); got != "300.00" {
		t.Fatalf("subtotal = %s, want 300.00", got)
	}
	if inv.Status != StatusPending {
		t.Fatalf("status = %s, want pending", inv.Status)
	}

	inv.Recompute(lines, money.MustParse("150.00"))
	if inv.Status != StatusPartial {
		t.Fatalf("status = %s, want partial", inv.Status)
	}
	if got := inv.BalanceDue.String(); got != "150.00" {
		t.Fatalf("balance = %s, want 150.00", got)
	}

	inv.Recompute(lines, money.MustParse("300.00"))
	if inv.Status != StatusPaid {
		t.Fatalf("status = %s, want paid", inv.Status)
	}
	if !inv.BalanceDue.IsZero() {
		t.Fatalf("balance = %s, want 0.00", inv.BalanceDue)
	}
}

func TestRecomputeAppliesTaxAndDiscount(t *testing.T) {
	inv := Invoice{
		Status:         StatusPending,
		TaxAmount:      money.MustParse("12.25"),
		DiscountAmount: money.MustParse("20.00"),
	}
	inv.Recompute([]LineItem{{Total: money.MustParse("300.00")}}, money.Zero())

	if got := inv.Total.String(); got != "292.25" {
		t.Fatalf("total = %s, want 292.25", got)
	}
}

func TestRecomputeFloorsOverpayment(t *testing.T) {
	inv := Invoice{Status: StatusPending}
	inv.Recompute([]LineItem{{Total: money.MustParse("100.00")}}, money.MustParse("140.00"))

	if inv.Status != StatusPaid {
		t.Fatalf("status = %s, want paid", inv.Status)
	}
	if !inv.BalanceDue.IsZero() {
		t.Fatalf("balance = %s, want 0.00", inv.BalanceDue)
	}
	if got := inv.AmountPaid.String(); got != "140.00" {
		t.Fatalf("amount paid = %s, want 140.00", got)
	}
}

func TestRecomputeLeavesVoidFrozen(t *testing.T) {
	inv := Invoice{
		Status:     StatusVoid,
		Subtotal:   money.MustParse("200.00"),
		Total:      money.MustParse("200.00"),
		BalanceDue: money.MustParse("200.00"),
	}
	inv.Recompute([]LineItem{{Total: money.MustParse("999.00")}}, money.MustParse("999.00"))

	if inv.Status != StatusVoid {
		t.Fatalf("status = %s, want void", inv.Status)
	}
	if got := inv.Total.String(); got != "200.00" {
		t.Fatalf("total = %s, want frozen 200.00", got)
	}
}

func TestDisplayStatusDerivesOverdue(t *testing.T) {
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	inv := Invoice{
		Status:     StatusPartial,
		DueDate:    due,
		BalanceDue: money.MustParse("50.00"),
	}

	if got := inv.DisplayStatus(due); got != StatusPartial {
		t.Fatalf("on due date: status = %s, want partial", got)
	}
	if got := inv.DisplayStatus(due.AddDate(0, 0, 1)); got != StatusOverdue {
		t.Fatalf("past due: status = %s, want overdue", got)
	}

	inv.Status = StatusPaid
	inv.BalanceDue = money.Zero()
	if got := inv.DisplayStatus(due.AddDate(0, 0, 30)); got != StatusPaid {
		t.Fatalf("paid invoice: status = %s, want paid", got)
	}
}

func TestDaysPastDue(t *testing.T) {
	due := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	inv := Invoice{DueDate: due}

	cases := []struct {
		asOf time.Time
		want int
	}{
		{due, 0},
		{due.AddDate(0, 0, -2), -2},
		{due.AddDate(0, 0, 5), 5},
		{time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC), 40},
	}
	for _, tc := range cases {
		if got := inv.DaysPastDue(tc.asOf); got != tc.want {
			t.Fatalf("DaysPastDue(%s) = %d, want %d", tc.asOf, got, tc.want)
		}
	}
}

func TestEditable(t *testing.T) {
	for status, want := range map[Status]bool{
		StatusPending: true,
		StatusPartial: true,
		StatusPaid:    false,
		StatusVoid:    false,
	} {
		if got := (Invoice{Status: status}).Editable(); got != want {
			t.Fatalf("Editable(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestValidItemType(t *testing.T) {
	if !ValidItemType(ItemTuition) || !ValidItemType(ItemOther) {
		t.Fatal("expected known types to validate")
	}
	if ValidItemType("snacks") {
		t.Fatal("expected unknown type to fail")
	}
}
