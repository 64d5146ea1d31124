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

	"github.com/littleoaks/sprout/internal/clock"
	enrollmentdomain "github.com/littleoaks/sprout/internal/enrollment/domain"
	"github.com/littleoaks/sprout/internal/events"
	feedomain "github.com/littleoaks/sprout/internal/feeschedule/domain"
	feeservice "github.com/littleoaks/sprout/internal/feeschedule/service"
	invoicedomain "github.com/littleoaks/sprout/internal/invoice/domain"
	paymentdomain "github.com/littleoaks/sprout/internal/payment/domain"
	settingsdomain "github.com/littleoaks/sprout/internal/settings/domain"
	settingsservice "github.com/littleoaks/sprout/internal/settings/service"
	"github.com/littleoaks/sprout/pkg/money"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func setupInvoiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&enrollmentdomain.Family{},
		&enrollmentdomain.Child{},
		&feedomain.FeeTier{},
		&invoicedomain.Invoice{},
		&invoicedomain.LineItem{},
		&invoicedomain.InvoiceSequence{},
		&paymentdomain.Payment{},
		&settingsdomain.FacilitySettings{},
		&events.Record{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) (*Service, *snowflake.Node) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	feeSvc := feeservice.NewService(feeservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	})
	settingsSvc := settingsservice.NewService(settingsservice.Params{
		DB:  db,
		Log: zap.NewNop(),
	})

	svc := &Service{
		db:          db,
		log:         zap.NewNop(),
		genID:       node,
		clock:       clock.Fixed(testNow),
		outbox:      events.NewOutbox(db, node),
		settingsSvc: settingsSvc,
		pricer:      NewSchedulePricer(node, feeSvc),
	}
	return svc, node
}

func insertFamily(t *testing.T, db *gorm.DB, node *snowflake.Node) enrollmentdomain.Family {
	t.Helper()
	family := enrollmentdomain.Family{
		ID:            node.Generate(),
		GuardianFirst: "Dana",
		GuardianLast:  "Whitfield",
		Email:         "dana@example.com",
		Address:       "12 Acorn Lane",
	}
	if err := db.Create(&family).Error; err != nil {
		t.Fatalf("insert family: %v", err)
	}
	return family
}

func insertChild(t *testing.T, db *gorm.DB, node *snowflake.Node, familyID snowflake.ID, name string, dob, enrolled time.Time, schedule string) enrollmentdomain.Child {
	t.Helper()
	child := enrollmentdomain.Child{
		ID:             node.Generate(),
		FamilyID:       familyID,
		FirstName:      name,
		LastName:       "Whitfield",
		DateOfBirth:    dob,
		ScheduleType:   schedule,
		EnrollmentDate: enrolled,
		Active:         true,
	}
	if err := db.Create(&child).Error; err != nil {
		t.Fatalf("insert child: %v", err)
	}
	return child
}

func insertTier(t *testing.T, db *gorm.DB, node *snowflake.Node, ageGroup, schedule, weekly, registration string, discountPct int) feedomain.FeeTier {
	t.Helper()
	tier := feedomain.FeeTier{
		ID:                 node.Generate(),
		Name:               "Standard " + ageGroup + " " + schedule,
		AgeGroup:           ageGroup,
		ScheduleType:       schedule,
		WeeklyRate:         money.MustParse(weekly),
		DailyRate:          money.MustParse("65.00"),
		HourlyRate:         money.MustParse("12.00"),
		RegistrationFee:    money.MustParse(registration),
		SiblingDiscountPct: discountPct,
		EffectiveDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Active:             true,
	}
	if err := db.Create(&tier).Error; err != nil {
		t.Fatalf("insert tier: %v", err)
	}
	return tier
}

func manualCreateRequest(familyID snowflake.ID) invoicedomain.CreateInvoiceRequest {
	due := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	return invoicedomain.CreateInvoiceRequest{
		FamilyID:    familyID,
		DueDate:     &due,
		PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Lines: []invoicedomain.LineItemDraft{
			{Description: "Tuition - week 1", ItemType: invoicedomain.ItemTuition, Quantity: 1, UnitPrice: money.MustParse("150.00")},
			{Description: "Tuition - week 2", ItemType: invoicedomain.ItemTuition, Quantity: 1, UnitPrice: money.MustParse("150.00")},
		},
	}
}

func TestCreateInvoiceWithManualLines(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newTestService(t, db)
	family := insertFamily(t, db, node)

	inv, err := svc.Create(context.Background(), manualCreateRequest(family.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if inv.InvoiceNumber != "INV-000001" {
		t.Fatalf("invoice number = %s, want INV-000001", inv.InvoiceNumber)
	}
	if got := inv.Subtotal.String(); got != "300.00" {
		t.Fatalf("subtotal = %s, want 300.00", got)
	}
	if got := inv.Total.String(); got != "300.00" {
		t.Fatalf("total = %s, want 300.00", got)
	}
	if got := inv.BalanceDue.String(); got != "300.00" {
		t.Fatalf("balance = %s, want 300.00", got)
	}
	if inv.Status != invoicedomain.StatusPending {
		t.Fatalf("status = %s, want pending", inv.Status)
	}

	var eventCount int64
	if err := db.Model(&events.Record{}).
		Where("event_type = ?", events.EventInvoiceCreated).
		Count(&eventCount).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if eventCount != 1 {
		t.Fatalf("invoice_created events = %d, want 1", eventCount)
	}

	second, err := svc.Create(context.Background(), manualCreateRequest(family.ID))
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.InvoiceNumber != "INV-000002" {
		t.Fatalf("second invoice number = %s, want INV-000002", second.InvoiceNumber)
	}
}

func TestCreateInvoiceAppliesDueDatePolicy(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newTestService(t, db)
	family := insertFamily(t, db, node)

	settings := settingsdomain.FacilitySettings{
		ID:            1,
		FacilityName:  "Little Oaks Daycare",
		DueDatePolicy: settingsdomain.DuePolicyDaysAfter,
		DueDaysAfter:  14,
	}
	if err := db.Create(&settings).Error; err != nil {
		t.Fatalf("insert settings: %v", err)
	}

	req := manualCreateRequest(family.ID)
	req.DueDate = nil
	inv, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	wantDue := testNow.Truncate(24 * time.Hour).AddDate(0, 0, 14)
	if !inv.DueDate.Equal(wantDue) {
		t.Fatalf("due date = %s, want %s", inv.DueDate, wantDue)
	}
}

func TestCreateInvoiceValidation(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newTestService(t, db)
	family := insertFamily(t, db, node)

	cases := []struct {
		name    string
		mutate  func(*invoicedomain.CreateInvoiceRequest)
		wantErr error
	}{
		{"missing family", func(r *invoicedomain.CreateInvoiceRequest) { r.FamilyID = 0 }, invoicedomain.ErrInvalidFamily},
		{"unknown family", func(r *invoicedomain.CreateInvoiceRequest) { r.FamilyID = node.Generate() }, invoicedomain.ErrFamilyNotFound},
		{"inverted period", func(r *invoicedomain.CreateInvoiceRequest) {
			r.PeriodStart, r.PeriodEnd = r.PeriodEnd, r.PeriodStart
		}, invoicedomain.ErrInvalidPeriod},
		{"no lines", func(r *invoicedomain.CreateInvoiceRequest) { r.Lines = nil }, invoicedomain.ErrNoLines},
		{"negative tax", func(r *invoicedomain.CreateInvoiceRequest) {
			r.TaxAmount = money.MustParse("-1.00")
		}, invoicedomain.ErrNegativeTax},
		{"negative discount", func(r *invoicedomain.CreateInvoiceRequest) {
			r.DiscountAmount = money.MustParse("-1.00")
		}, invoicedomain.ErrNegativeDiscount},
		{"negative unit price", func(r *invoicedomain.CreateInvoiceRequest) {
			r.Lines[0].UnitPrice = money.MustParse("-10.00")
		}, invoicedomain.ErrNegativeUnitPrice},
		{"zero quantity", func(r *invoicedomain.CreateInvoiceRequest) {
			r.Lines[0].Quantity = 0
		}, invoicedomain.ErrInvalidQuantity},
		{"bad item type", func(r *invoicedomain.CreateInvoiceRequest) {
			r.Lines[0].ItemType = "snacks"
		}, invoicedomain.ErrInvalidItemType},
	}

	for _, tc := range cases {
		req := manualCreateRequest(family.ID)
		tc.mutate(&req)
		if _, err := svc.Create(context.Background(), req); !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.wantErr)
		}
	}
}

func TestAutoPricingSiblingAndRegistration(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newTestService(t, db)
	family := insertFamily(t, db, node)

	// Oldest child enrolled first; pays full price.
	insertChild(t, db, node, family.ID, "Avery",
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		enrollmentdomain.ScheduleFullTime)
	insertChild(t, db, node, family.ID, "Briar",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		enrollmentdomain.ScheduleFullTime)

	insertTier(t, db, node, enrollmentdomain.AgeGroupToddler, enrollmentdomain.ScheduleFullTime, "345.00", "75.00", 10)
	insertTier(t, db, node, enrollmentdomain.AgeGroupInfant, enrollmentdomain.ScheduleFullTime, "395.00", "75.00", 10)

	req := invoicedomain.CreateInvoiceRequest{
		FamilyID:    family.ID,
		PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		AutoPrice:   true,
	}
	inv, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, lines, err := svc.Get(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// Tuition + registration for Avery; tuition, discount, registration for
	// Briar.
	if len(lines) != 5 {
		t.Fatalf("line count = %d, want 5", len(lines))
	}

	byType := map[string][]invoicedomain.LineItem{}
	for _, line := range lines {
		byType[line.ItemType] = append(byType[line.ItemType], line)
	}
	if len(byType[invoicedomain.ItemTuition]) != 2 {
		t.Fatalf("tuition lines = %d, want 2", len(byType[invoicedomain.ItemTuition]))
	}
	if len(byType[invoicedomain.ItemRegistration]) != 2 {
		t.Fatalf("registration lines = %d, want 2", len(byType[invoicedomain.ItemRegistration]))
	}

	discounts := byType[invoicedomain.ItemOther]
	if len(discounts) != 1 {
		t.Fatalf("discount lines = %d, want 1", len(discounts))
	}
	if got := discounts[0].Total.String(); got != "-39.50" {
		t.Fatalf("discount = %s, want -39.50", got)
	}
	if !strings.Contains(discounts[0].Description, "Briar") {
		t.Fatalf("discount applied to %q, want the later-enrolled child", discounts[0].Description)
	}

	// 345.00 + 75.00 + 395.00 - 39.50 + 75.00
	if got := inv.Subtotal.String(); got != "850.50" {
		t.Fatalf("subtotal = %s, want 850.50", got)
	}

	// Registration never repeats once a child has been billed.
	req.PeriodStart = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	req.PeriodEnd = time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	second, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if got := second.Subtotal.String(); got != "700.50" {
		t.Fatalf("second subtotal = %s, want 700.50", got)
	}
}

func TestAutoPricingRequiresMatchingTier(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newTestService(t, db)
	family := insertFamily(t, db, node)
	insertChild(t, db, node, family.ID, "Avery",
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		enrollmentdomain.ScheduleFullTime)

	_, err := svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		FamilyID:    family.ID,
		PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		AutoPrice:   true,
	})
	if !errors.Is(err, feedomain.ErrNoMatchingTier) {
		t.Fatalf("err = %v, want %v", err, feedomain.ErrNoMatchingTier)
	}

	// Nothing half-written survives the rollback.
	var invoiceCount int64
	if err := db.Model(&invoicedomain.Invoice{}).Count(&invoiceCount).Error; err != nil {
		t.Fatalf("count invoices: %v", err)
	}
	if invoiceCount != 0 {
		t.Fatalf("invoices after failed create = %d, want 0", invoiceCount)
	}
}

func TestAutoPricingRequiresActiveChildren(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newTestService(t, db)
	family := insertFamily(t, db, node)

	_, err := svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		FamilyID:    family.ID,
		PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		AutoPrice:   true,
	})
	if !errors.Is(err, invoicedomain.ErrNoActiveChildren) {
		t.Fatalf("err = %v, want %v", err, invoicedomain.ErrNoActiveChildren)
	}
}

func TestLineItemMutations(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newTestService(t, db)
	family := insertFamily(t, db, node)

	inv, err := svc.Create(context.Background(), manualCreateRequest(family.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	inv, err = svc.AddLine(context.Background(), inv.ID, invoicedomain.LineItemDraft{
		Description: "Art supplies",
		ItemType:    invoicedomain.ItemSupplyFee,
		Quantity:    2,
		UnitPrice:   money.MustParse("12.50"),
	})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}
	if got := inv.Subtotal.String(); got != "325.00" {
		t.Fatalf("subtotal after add = %s, want 325.00", got)
	}

	_, lines, err := svc.Get(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("line count = %d, want 3", len(lines))
	}

	inv, err = svc.UpdateLine(context.Background(), inv.ID, lines[2].ID, invoicedomain.LineItemDraft{
		Description: "Art supplies",
		ItemType:    invoicedomain.ItemSupplyFee,
		Quantity:    4,
		UnitPrice:   money.MustParse("12.50"),
	})
	if err != nil {
		t.Fatalf("update line: %v", err)
	}
	if got := inv.Subtotal.String(); got != "350.00" {
		t.Fatalf("subtotal after update = %s, want 350.00", got)
	}

	inv, err = svc.DeleteLine(context.Background(), inv.ID, lines[2].ID)
	if err != nil {
		t.Fatalf("delete line: %v", err)
	}
	if got := inv.Subtotal.String(); got != "300.00" {
		t.Fatalf("subtotal after delete = %s, want 300.00", got)
	}

	if _, err := svc.DeleteLine(context.Background(), inv.ID, lines[2].ID); !errors.Is(err, invoicedomain.ErrLineNotFound) {
		t.Fatalf("delete missing line: err = %v, want %v", err, invoicedomain.ErrLineNotFound)
	}
}

func TestLineMutationsRejectedOnceSettled(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newTestService(t, db)
	family := insertFamily(t, db, node)

	inv, err := svc.Create(context.Background(), manualCreateRequest(family.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.Model(&invoicedomain.Invoice{}).
		Where("id = ?", inv.ID).
		Update("status", invoicedomain.StatusPaid).Error; err != nil {
		t.Fatalf("force paid: %v", err)
	}

	_, err = svc.AddLine(context.Background(), inv.ID, invoicedomain.LineItemDraft{
		Description: "Late add",
		ItemType:    invoicedomain.ItemOther,
		Quantity:    1,
		UnitPrice:   money.MustParse("5.00"),
	})
	if !errors.Is(err, invoicedomain.ErrInvoiceNotEditable) {
		t.Fatalf("err = %v, want %v", err, invoicedomain.ErrInvoiceNotEditable)
	}
}

func TestListInvoicesFilters(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newTestService(t, db)
	family := insertFamily(t, db, node)
	other := insertFamily(t, db, node)

	if _, err := svc.Create(context.Background(), manualCreateRequest(family.ID)); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Past-due invoice for the other family.
	overdueReq := manualCreateRequest(other.ID)
	due := testNow.AddDate(0, 0, -10)
	overdueReq.DueDate = &due
	if _, err := svc.Create(context.Background(), overdueReq); err != nil {
		t.Fatalf("create overdue: %v", err)
	}

	all, err := svc.List(context.Background(), invoicedomain.ListInvoiceRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.PageInfo.TotalCount != 2 {
		t.Fatalf("total = %d, want 2", all.PageInfo.TotalCount)
	}

	byFamily, err := svc.List(context.Background(), invoicedomain.ListInvoiceRequest{FamilyID: family.ID})
	if err != nil {
		t.Fatalf("list by family: %v", err)
	}
	if len(byFamily.Invoices) != 1 {
		t.Fatalf("family invoices = %d, want 1", len(byFamily.Invoices))
	}

	overdue, err := svc.List(context.Background(), invoicedomain.ListInvoiceRequest{Status: invoicedomain.StatusOverdue})
	if err != nil {
		t.Fatalf("list overdue: %v", err)
	}
	if len(overdue.Invoices) != 1 {
		t.Fatalf("overdue invoices = %d, want 1", len(overdue.Invoices))
	}
	if overdue.Invoices[0].DisplayStatus != invoicedomain.StatusOverdue {
		t.Fatalf("display status = %s, want overdue", overdue.Invoices[0].DisplayStatus)
	}
	// The persisted status never flips to overdue.
	if overdue.Invoices[0].Status != invoicedomain.StatusPending {
		t.Fatalf("stored status = %s, want pending", overdue.Invoices[0].Status)
	}

	if _, err := svc.List(context.Background(), invoicedomain.ListInvoiceRequest{Status: "bogus"}); !errors.Is(err, invoicedomain.ErrInvalidStatus) {
		t.Fatalf("err = %v, want %v", err, invoicedomain.ErrInvalidStatus)
	}
}
