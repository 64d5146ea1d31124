package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	enrollmentdomain "github.com/littleoaks/sprout/internal/enrollment/domain"
	"github.com/littleoaks/sprout/internal/events"
	invoicedomain "github.com/littleoaks/sprout/internal/invoice/domain"
	settingsdomain "github.com/littleoaks/sprout/internal/settings/domain"
	settingsservice "github.com/littleoaks/sprout/internal/settings/service"
	splitdomain "github.com/littleoaks/sprout/internal/splitbilling/domain"
	"github.com/littleoaks/sprout/internal/splitbilling/render"
	"github.com/littleoaks/sprout/pkg/money"
)

func setupSplitTestDB(t *testing.T) (*gorm.DB, *Service, *snowflake.Node) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&enrollmentdomain.Family{},
		&invoicedomain.Invoice{},
		&invoicedomain.LineItem{},
		&settingsdomain.FacilitySettings{},
		&events.Record{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	svc := &Service{
		db:     db,
		log:    zap.NewNop(),
		outbox: events.NewOutbox(db, node),
		settingsSvc: settingsservice.NewService(settingsservice.Params{
			DB:  db,
			Log: zap.NewNop(),
		}),
		renderer: render.NewRenderer(),
	}
	return db, svc, node
}

func insertSplitInvoice(t *testing.T, db *gorm.DB, node *snowflake.Node, total string, status invoicedomain.Status) invoicedomain.Invoice {
	t.Helper()
	family := enrollmentdomain.Family{
		ID:            node.Generate(),
		GuardianFirst: "Dana",
		GuardianLast:  "Whitfield",
		Address:       "12 Acorn Lane",
	}
	if err := db.Create(&family).Error; err != nil {
		t.Fatalf("insert family: %v", err)
	}

	inv := invoicedomain.Invoice{
		ID:            node.Generate(),
		InvoiceNumber: "INV-000001",
		FamilyID:      family.ID,
		IssuedDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		PeriodStart:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:        status,
		Subtotal:      money.MustParse(total),
		Total:         money.MustParse(total),
		AmountPaid:    money.Zero(),
		BalanceDue:    money.MustParse(total),
		Version:       1,
	}
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("insert invoice: %v", err)
	}
	line := invoicedomain.LineItem{
		ID:          node.Generate(),
		InvoiceID:   inv.ID,
		Description: "Tuition",
		ItemType:    invoicedomain.ItemTuition,
		Quantity:    1,
		UnitPrice:   money.MustParse(total),
		Total:       money.MustParse(total),
	}
	if err := db.Create(&line).Error; err != nil {
		t.Fatalf("insert line: %v", err)
	}
	return inv
}

func intPtr(v int) *int { return &v }

func TestSetSplitAndStatements(t *testing.T) {
	db, svc, node := setupSplitTestDB(t)
	inv := insertSplitInvoice(t, db, node, "300.00", invoicedomain.StatusPending)

	updated, err := svc.SetSplit(context.Background(), splitdomain.SetSplitRequest{
		InvoiceID:    inv.ID,
		Pct:          intPtr(70),
		PayerName:    "Bright Futures Subsidy",
		PayerAddress: "PO Box 88",
	})
	if err != nil {
		t.Fatalf("set split: %v", err)
	}
	if updated.SplitPct == nil || *updated.SplitPct != 70 {
		t.Fatalf("split pct = %v, want 70", updated.SplitPct)
	}

	resp, err := svc.Statements(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("statements: %v", err)
	}
	if len(resp.Statements) != 2 {
		t.Fatalf("statements = %d, want 2", len(resp.Statements))
	}

	parent := resp.Statements[0]
	third := resp.Statements[1]
	if parent.Kind != splitdomain.StatementParent || third.Kind != splitdomain.StatementThirdParty {
		t.Fatalf("kinds = %s/%s", parent.Kind, third.Kind)
	}
	if got := parent.AmountDue.String(); got != "210.00" {
		t.Fatalf("parent portion = %s, want 210.00", got)
	}
	if got := third.AmountDue.String(); got != "90.00" {
		t.Fatalf("third portion = %s, want 90.00", got)
	}
	if !third.Informational {
		t.Fatal("third-party statement must be informational")
	}
	if third.PayerName != "Bright Futures Subsidy" {
		t.Fatalf("third payer = %q", third.PayerName)
	}
	if parent.PortionPct+third.PortionPct != 100 {
		t.Fatalf("portions = %d + %d, want 100", parent.PortionPct, third.PortionPct)
	}
}

func TestSetSplitValidation(t *testing.T) {
	db, svc, node := setupSplitTestDB(t)
	inv := insertSplitInvoice(t, db, node, "300.00", invoicedomain.StatusPending)

	if _, err := svc.SetSplit(context.Background(), splitdomain.SetSplitRequest{
		InvoiceID: inv.ID,
		Pct:       intPtr(0),
		PayerName: "Agency",
	}); !errors.Is(err, splitdomain.ErrInvalidPct) {
		t.Fatalf("pct 0: err = %v, want %v", err, splitdomain.ErrInvalidPct)
	}

	if _, err := svc.SetSplit(context.Background(), splitdomain.SetSplitRequest{
		InvoiceID: inv.ID,
		Pct:       intPtr(120),
		PayerName: "Agency",
	}); !errors.Is(err, splitdomain.ErrInvalidPct) {
		t.Fatalf("pct 120: err = %v, want %v", err, splitdomain.ErrInvalidPct)
	}

	if _, err := svc.SetSplit(context.Background(), splitdomain.SetSplitRequest{
		InvoiceID: inv.ID,
		Pct:       intPtr(60),
	}); !errors.Is(err, splitdomain.ErrMissingPayerName) {
		t.Fatalf("missing payer: err = %v, want %v", err, splitdomain.ErrMissingPayerName)
	}
}

func TestSetSplitClearing(t *testing.T) {
	db, svc, node := setupSplitTestDB(t)
	inv := insertSplitInvoice(t, db, node, "300.00", invoicedomain.StatusPending)

	if _, err := svc.SetSplit(context.Background(), splitdomain.SetSplitRequest{
		InvoiceID: inv.ID,
		Pct:       intPtr(60),
		PayerName: "Agency",
	}); err != nil {
		t.Fatalf("set split: %v", err)
	}

	// Pct 100 clears the split even without a payer name.
	updated, err := svc.SetSplit(context.Background(), splitdomain.SetSplitRequest{
		InvoiceID: inv.ID,
		Pct:       intPtr(100),
	})
	if err != nil {
		t.Fatalf("clear split: %v", err)
	}
	if updated.SplitPct != nil || updated.SplitPayerName != "" {
		t.Fatalf("split not cleared: pct=%v payer=%q", updated.SplitPct, updated.SplitPayerName)
	}

	resp, err := svc.Statements(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("statements: %v", err)
	}
	if len(resp.Statements) != 1 || resp.Statements[0].Kind != splitdomain.StatementStandard {
		t.Fatalf("expected a single standard statement, got %+v", resp.Statements)
	}
	if got := resp.Statements[0].AmountDue.String(); got != "300.00" {
		t.Fatalf("amount due = %s, want 300.00", got)
	}
}

func TestSetSplitRejectedOnceSettled(t *testing.T) {
	db, svc, node := setupSplitTestDB(t)
	inv := insertSplitInvoice(t, db, node, "300.00", invoicedomain.StatusPaid)

	_, err := svc.SetSplit(context.Background(), splitdomain.SetSplitRequest{
		InvoiceID: inv.ID,
		Pct:       intPtr(60),
		PayerName: "Agency",
	})
	if !errors.Is(err, invoicedomain.ErrInvoiceNotEditable) {
		t.Fatalf("err = %v, want %v", err, invoicedomain.ErrInvoiceNotEditable)
	}
}

func TestBuildStatementsRoundingReconciles(t *testing.T) {
	// 33% of 100.01 rounds to 33.00; the third party carries the exact
	// remainder so the portions always sum back to the total.
	inv := invoicedomain.Invoice{
		InvoiceNumber:  "INV-000042",
		Total:          money.MustParse("100.01"),
		AmountPaid:     money.Zero(),
		BalanceDue:     money.MustParse("100.01"),
		SplitPct:       intPtr(33),
		SplitPayerName: "Agency",
	}

	statements := BuildStatements(inv, "Dana Whitfield", "")
	if len(statements) != 2 {
		t.Fatalf("statements = %d, want 2", len(statements))
	}

	parent := statements[0].AmountDue
	third := statements[1].AmountDue
	if got := parent.Add(third).String(); got != "100.01" {
		t.Fatalf("portions sum = %s, want 100.01", got)
	}
	if got := parent.String(); got != "33.00" {
		t.Fatalf("parent portion = %s, want 33.00", got)
	}
	if got := third.String(); got != "67.01" {
		t.Fatalf("third portion = %s, want 67.01", got)
	}
}

func TestBuildStatementsScalesDisplayedPaid(t *testing.T) {
	inv := invoicedomain.Invoice{
		InvoiceNumber:  "INV-000007",
		Total:          money.MustParse("300.00"),
		AmountPaid:     money.MustParse("100.00"),
		BalanceDue:     money.MustParse("200.00"),
		SplitPct:       intPtr(70),
		SplitPayerName: "Agency",
	}

	statements := BuildStatements(inv, "Dana Whitfield", "")
	parent := statements[0]
	if parent.DisplayedPaid == nil || parent.DisplayedPaid.String() != "70.00" {
		t.Fatalf("displayed paid = %v, want 70.00", parent.DisplayedPaid)
	}
	if parent.DisplayedBalance == nil || parent.DisplayedBalance.String() != "140.00" {
		t.Fatalf("displayed balance = %v, want 140.00", parent.DisplayedBalance)
	}

	third := statements[1]
	if third.DisplayedPaid != nil || third.DisplayedBalance != nil {
		t.Fatal("third-party statement must not carry paid or balance figures")
	}
}

func TestRenderHTML(t *testing.T) {
	db, svc, node := setupSplitTestDB(t)
	inv := insertSplitInvoice(t, db, node, "300.00", invoicedomain.StatusPending)

	settings := settingsdomain.FacilitySettings{
		ID:            1,
		FacilityName:  "Little Oaks Daycare",
		DueDatePolicy: settingsdomain.DuePolicyUponReceipt,
	}
	if err := db.Create(&settings).Error; err != nil {
		t.Fatalf("insert settings: %v", err)
	}

	if _, err := svc.SetSplit(context.Background(), splitdomain.SetSplitRequest{
		InvoiceID: inv.ID,
		Pct:       intPtr(70),
		PayerName: "Bright Futures Subsidy",
	}); err != nil {
		t.Fatalf("set split: %v", err)
	}

	html, err := svc.RenderHTML(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		"Little Oaks Daycare",
		"INV-000001",
		"Bright Futures Subsidy",
		"Parent Portion Statement",
		"Third-Party Statement",
		"informational",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered html missing %q", want)
		}
	}
}
