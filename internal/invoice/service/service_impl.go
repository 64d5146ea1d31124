package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/littleoaks/sprout/internal/clock"
	enrollmentdomain "github.com/littleoaks/sprout/internal/enrollment/domain"
	"github.com/littleoaks/sprout/internal/events"
	invoicedomain "github.com/littleoaks/sprout/internal/invoice/domain"
	"github.com/littleoaks/sprout/internal/invoice/store"
	settingsdomain "github.com/littleoaks/sprout/internal/settings/domain"
	"github.com/littleoaks/sprout/pkg/db/pagination"
	"github.com/littleoaks/sprout/pkg/money"
)

// invoiceNumberPrefix precedes the zero-padded sequence value.
const invoiceNumberPrefix = "INV-"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Outbox      *events.Outbox
	SettingsSvc settingsdomain.Service
	Pricer      Pricer
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	outbox      *events.Outbox
	settingsSvc settingsdomain.Service
	pricer      Pricer
}

func NewService(p Params) invoicedomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("invoice.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		outbox:      p.Outbox,
		settingsSvc: p.SettingsSvc,
		pricer:      p.Pricer,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	if req.FamilyID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidFamily
	}
	if req.PeriodStart.IsZero() || req.PeriodEnd.IsZero() || req.PeriodEnd.Before(req.PeriodStart) {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidPeriod
	}
	if req.TaxAmount.IsNegative() {
		return invoicedomain.Invoice{}, invoicedomain.ErrNegativeTax
	}
	if req.DiscountAmount.IsNegative() {
		return invoicedomain.Invoice{}, invoicedomain.ErrNegativeDiscount
	}
	if !req.AutoPrice && len(req.Lines) == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrNoLines
	}
	for _, draft := range req.Lines {
		if err := validateDraft(draft); err != nil {
			return invoicedomain.Invoice{}, err
		}
	}

	now := s.clock.Now()
	issued := now.Truncate(24 * time.Hour)

	dueDate := issued
	if req.DueDate != nil {
		dueDate = *req.DueDate
	} else if settings, err := s.settingsSvc.Get(ctx); err == nil {
		dueDate = settings.DefaultDueDate(issued)
	}

	var created invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var family enrollmentdomain.Family
		err := tx.WithContext(ctx).Where("id = ?", req.FamilyID).First(&family).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invoicedomain.ErrFamilyNotFound
		}
		if err != nil {
			return err
		}

		inv := invoicedomain.Invoice{
			ID:             s.genID.Generate(),
			FamilyID:       req.FamilyID,
			IssuedDate:     issued,
			DueDate:        dueDate,
			PeriodStart:    req.PeriodStart,
			PeriodEnd:      req.PeriodEnd,
			Status:         invoicedomain.StatusPending,
			TaxAmount:      req.TaxAmount,
			DiscountAmount: req.DiscountAmount,
			AmountPaid:     money.Zero(),
			Notes:          strings.TrimSpace(req.Notes),
			Version:        1,
		}

		number, err := nextInvoiceNumber(ctx, tx)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number

		var lines []invoicedomain.LineItem
		if req.AutoPrice {
			lines, err = s.pricer.PriceFamily(ctx, tx, family, inv.ID, req.PeriodStart)
			if err != nil {
				return err
			}
		}
		for _, draft := range req.Lines {
			lines = append(lines, s.lineFromDraft(inv.ID, draft))
		}
		if len(lines) == 0 {
			return invoicedomain.ErrNoLines
		}

		inv.Recompute(lines, money.Zero())

		if err := tx.WithContext(ctx).Create(&inv).Error; err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Create(&lines).Error; err != nil {
			return err
		}

		payload := events.InvoicePayload{
			InvoiceID:     inv.ID.String(),
			InvoiceNumber: inv.InvoiceNumber,
			FamilyID:      inv.FamilyID.String(),
		}
		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventInvoiceCreated,
			Payload:   payload.ToMap(),
			DedupeKey: "invoice_created:" + inv.ID.String(),
		}); err != nil {
			return err
		}

		created = inv
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.log.Info("invoice created",
		zap.String("invoice_id", created.ID.String()),
		zap.String("invoice_number", created.InvoiceNumber),
		zap.String("family_id", created.FamilyID.String()),
		zap.String("total", created.Total.String()),
	)
	return created, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	offset, limit, err := req.Window()
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	q := s.db.WithContext(ctx).Model(&invoicedomain.Invoice{})
	if req.FamilyID != 0 {
		q = q.Where("family_id = ?", req.FamilyID)
	}

	now := s.clock.Now()
	switch req.Status {
	case "":
	case invoicedomain.StatusOverdue:
		q = q.Where("status IN ? AND balance_due > 0 AND due_date < ?",
			[]invoicedomain.Status{invoicedomain.StatusPending, invoicedomain.StatusPartial}, now)
	case invoicedomain.StatusPending, invoicedomain.StatusPartial,
		invoicedomain.StatusPaid, invoicedomain.StatusVoid:
		q = q.Where("status = ?", req.Status)
	default:
		return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidStatus
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	var invoices []invoicedomain.Invoice
	if err := q.Order("issued_date DESC, id DESC").Offset(offset).Limit(limit).Find(&invoices).Error; err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	views := make([]invoicedomain.InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		views = append(views, invoicedomain.InvoiceView{
			Invoice:       inv,
			DisplayStatus: inv.DisplayStatus(now),
		})
	}

	return invoicedomain.ListInvoiceResponse{
		PageInfo: pagination.PageInfo{
			NextPageToken: pagination.NextToken(offset, limit, total),
			TotalCount:    total,
		},
		Invoices: views,
	}, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (invoicedomain.Invoice, []invoicedomain.LineItem, error) {
	inv, err := store.Load(ctx, s.db, id)
	if err != nil {
		return invoicedomain.Invoice{}, nil, err
	}
	lines, err := store.LoadLines(ctx, s.db, id)
	if err != nil {
		return invoicedomain.Invoice{}, nil, err
	}
	return inv, lines, nil
}

func (s *Service) AddLine(ctx context.Context, invoiceID snowflake.ID, draft invoicedomain.LineItemDraft) (invoicedomain.Invoice, error) {
	if err := validateDraft(draft); err != nil {
		return invoicedomain.Invoice{}, err
	}
	return s.mutateLines(ctx, invoiceID, func(tx *gorm.DB, inv *invoicedomain.Invoice) error {
		line := s.lineFromDraft(invoiceID, draft)
		return tx.WithContext(ctx).Create(&line).Error
	})
}

func (s *Service) UpdateLine(ctx context.Context, invoiceID, lineID snowflake.ID, draft invoicedomain.LineItemDraft) (invoicedomain.Invoice, error) {
	if err := validateDraft(draft); err != nil {
		return invoicedomain.Invoice{}, err
	}
	return s.mutateLines(ctx, invoiceID, func(tx *gorm.DB, inv *invoicedomain.Invoice) error {
		res := tx.WithContext(ctx).
			Model(&invoicedomain.LineItem{}).
			Where("id = ? AND invoice_id = ?", lineID, invoiceID).
			Updates(map[string]any{
				"description": strings.TrimSpace(draft.Description),
				"item_type":   draft.ItemType,
				"quantity":    draft.Quantity,
				"unit_price":  draft.UnitPrice,
				"total":       draft.UnitPrice.MulInt(draft.Quantity),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return invoicedomain.ErrLineNotFound
		}
		return nil
	})
}

func (s *Service) DeleteLine(ctx context.Context, invoiceID, lineID snowflake.ID) (invoicedomain.Invoice, error) {
	return s.mutateLines(ctx, invoiceID, func(tx *gorm.DB, inv *invoicedomain.Invoice) error {
		res := tx.WithContext(ctx).
			Where("id = ? AND invoice_id = ?", lineID, invoiceID).
			Delete(&invoicedomain.LineItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return invoicedomain.ErrLineNotFound
		}
		return nil
	})
}

// mutateLines runs one atomic read-modify-write cycle: load the invoice,
// apply the line mutation, re-read lines and payments, recompute derived
// fields, and CAS-write the invoice row.
func (s *Service) mutateLines(ctx context.Context, invoiceID snowflake.ID, mutate func(tx *gorm.DB, inv *invoicedomain.Invoice) error) (invoicedomain.Invoice, error) {
	var updated invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := store.Load(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if !inv.Editable() {
			return invoicedomain.ErrInvoiceNotEditable
		}

		if err := mutate(tx, &inv); err != nil {
			return err
		}

		lines, err := store.LoadLines(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		paid, err := store.SumPayments(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		inv.Recompute(lines, paid)

		if err := store.SaveCAS(ctx, tx, &inv); err != nil {
			return err
		}

		payload := events.InvoicePayload{
			InvoiceID:     inv.ID.String(),
			InvoiceNumber: inv.InvoiceNumber,
			FamilyID:      inv.FamilyID.String(),
		}
		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type:    events.EventLineItemChanged,
			Payload: payload.ToMap(),
		}); err != nil {
			return err
		}

		updated = inv
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return updated, nil
}

func (s *Service) lineFromDraft(invoiceID snowflake.ID, draft invoicedomain.LineItemDraft) invoicedomain.LineItem {
	return invoicedomain.LineItem{
		ID:          s.genID.Generate(),
		InvoiceID:   invoiceID,
		Description: strings.TrimSpace(draft.Description),
		ItemType:    draft.ItemType,
		Quantity:    draft.Quantity,
		UnitPrice:   draft.UnitPrice,
		Total:       draft.UnitPrice.MulInt(draft.Quantity),
	}
}

func validateDraft(draft invoicedomain.LineItemDraft) error {
	if strings.TrimSpace(draft.Description) == "" {
		return invoicedomain.ErrInvalidDescription
	}
	if !invoicedomain.ValidItemType(draft.ItemType) {
		return invoicedomain.ErrInvalidItemType
	}
	if draft.Quantity <= 0 {
		return invoicedomain.ErrInvalidQuantity
	}
	if draft.UnitPrice.IsNegative() {
		return invoicedomain.ErrNegativeUnitPrice
	}
	return nil
}

// nextInvoiceNumber increments the facility-wide sequence. The UPDATE takes
// the row lock for the rest of the transaction, so concurrent creators
// serialize and never share a number.
func nextInvoiceNumber(ctx context.Context, tx *gorm.DB) (string, error) {
	increment := func() (int64, error) {
		res := tx.WithContext(ctx).
			Model(&invoicedomain.InvoiceSequence{}).
			Where("id = ?", 1).
			Update("last_value", gorm.Expr("last_value + 1"))
		return res.RowsAffected, res.Error
	}

	rows, err := increment()
	if err != nil {
		return "", err
	}
	if rows == 0 {
		seq := invoicedomain.InvoiceSequence{ID: 1, LastValue: 0}
		if err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&seq).Error; err != nil {
			return "", err
		}
		if _, err := increment(); err != nil {
			return "", err
		}
	}

	var seq invoicedomain.InvoiceSequence
	if err := tx.WithContext(ctx).Where("id = ?", 1).First(&seq).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%06d", invoiceNumberPrefix, seq.LastValue), nil
}
