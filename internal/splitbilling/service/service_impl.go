package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	enrollmentdomain "github.com/littleoaks/sprout/internal/enrollment/domain"
	"github.com/littleoaks/sprout/internal/events"
	invoicedomain "github.com/littleoaks/sprout/internal/invoice/domain"
	"github.com/littleoaks/sprout/internal/invoice/store"
	settingsdomain "github.com/littleoaks/sprout/internal/settings/domain"
	splitdomain "github.com/littleoaks/sprout/internal/splitbilling/domain"
	"github.com/littleoaks/sprout/internal/splitbilling/render"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Outbox      *events.Outbox
	SettingsSvc settingsdomain.Service
	Renderer    render.Renderer
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	outbox      *events.Outbox
	settingsSvc settingsdomain.Service
	renderer    render.Renderer
}

func NewService(p Params) splitdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("splitbilling.service"),
		outbox:      p.Outbox,
		settingsSvc: p.SettingsSvc,
		renderer:    p.Renderer,
	}
}

// SetSplit writes the split fields. Splits only shape presentation, but the
// write still goes through the version CAS so it cannot race a payment or
// line mutation.
func (s *Service) SetSplit(ctx context.Context, req splitdomain.SetSplitRequest) (invoicedomain.Invoice, error) {
	clearing := req.Pct == nil || *req.Pct == 100
	if !clearing {
		if *req.Pct <= 0 || *req.Pct > 100 {
			return invoicedomain.Invoice{}, splitdomain.ErrInvalidPct
		}
		if strings.TrimSpace(req.PayerName) == "" {
			return invoicedomain.Invoice{}, splitdomain.ErrMissingPayerName
		}
	}

	var updated invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := store.Load(ctx, tx, req.InvoiceID)
		if err != nil {
			return err
		}
		if !inv.Editable() {
			return invoicedomain.ErrInvoiceNotEditable
		}

		if clearing {
			inv.SplitPct = nil
			inv.SplitPayerName = ""
			inv.SplitPayerAddress = ""
		} else {
			pct := *req.Pct
			inv.SplitPct = &pct
			inv.SplitPayerName = strings.TrimSpace(req.PayerName)
			inv.SplitPayerAddress = strings.TrimSpace(req.PayerAddress)
		}

		if err := store.SaveCAS(ctx, tx, &inv); err != nil {
			return err
		}

		payload := events.InvoicePayload{
			InvoiceID:     inv.ID.String(),
			InvoiceNumber: inv.InvoiceNumber,
			FamilyID:      inv.FamilyID.String(),
		}
		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type:    events.EventSplitUpdated,
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

	s.log.Info("split billing updated",
		zap.String("invoice_id", updated.ID.String()),
		zap.Bool("cleared", clearing),
	)
	return updated, nil
}

// Statements derives the presentation variants from the one authoritative
// invoice aggregate. With no split (or pct=100) the invoice renders as a
// single standard statement.
func (s *Service) Statements(ctx context.Context, invoiceID snowflake.ID) (splitdomain.StatementsResponse, error) {
	inv, err := store.Load(ctx, s.db, invoiceID)
	if err != nil {
		return splitdomain.StatementsResponse{}, err
	}

	var family enrollmentdomain.Family
	if err := s.db.WithContext(ctx).Where("id = ?", inv.FamilyID).First(&family).Error; err != nil &&
		!errors.Is(err, gorm.ErrRecordNotFound) {
		return splitdomain.StatementsResponse{}, err
	}

	return splitdomain.StatementsResponse{
		Invoice:    inv,
		Statements: BuildStatements(inv, family.GuardianName(), family.Address),
	}, nil
}

// RenderHTML renders the statement set as a printable HTML document using
// the facility display settings.
func (s *Service) RenderHTML(ctx context.Context, invoiceID snowflake.ID) (string, error) {
	resp, err := s.Statements(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	lines, err := store.LoadLines(ctx, s.db, invoiceID)
	if err != nil {
		return "", err
	}

	settings, err := s.settingsSvc.Get(ctx)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	return s.renderer.RenderHTML(render.BuildInput(resp.Invoice, lines, resp.Statements, settings))
}

// BuildStatements computes the split portions. For 0<pct<100 the parent and
// third-party portions always sum to the invoice total to the cent: the
// parent portion is rounded, the third party gets the exact remainder.
func BuildStatements(inv invoicedomain.Invoice, guardianName, guardianAddress string) []splitdomain.Statement {
	if inv.SplitPct == nil || *inv.SplitPct >= 100 || *inv.SplitPct <= 0 {
		paid := inv.AmountPaid
		balance := inv.BalanceDue
		return []splitdomain.Statement{{
			Kind:             splitdomain.StatementStandard,
			InvoiceNumber:    inv.InvoiceNumber,
			PayerName:        guardianName,
			PayerAddress:     guardianAddress,
			PortionPct:       100,
			AmountDue:        inv.Total,
			DisplayedPaid:    &paid,
			DisplayedBalance: &balance,
		}}
	}

	pct := *inv.SplitPct
	parentPortion := inv.Total.MulPct(pct)
	thirdPortion := inv.Total.Sub(parentPortion)

	// One payment pool: the parent statement shows paid/balance scaled
	// proportionally, never a separate sub-ledger.
	parentPaid := inv.AmountPaid.MulPct(pct)
	parentBalance := inv.BalanceDue.MulPct(pct)

	return []splitdomain.Statement{
		{
			Kind:             splitdomain.StatementParent,
			InvoiceNumber:    inv.InvoiceNumber,
			PayerName:        guardianName,
			PayerAddress:     guardianAddress,
			PortionPct:       pct,
			AmountDue:        parentPortion,
			DisplayedPaid:    &parentPaid,
			DisplayedBalance: &parentBalance,
		},
		{
			Kind:          splitdomain.StatementThirdParty,
			InvoiceNumber: inv.InvoiceNumber,
			PayerName:     inv.SplitPayerName,
			PayerAddress:  inv.SplitPayerAddress,
			PortionPct:    100 - pct,
			AmountDue:     thirdPortion,
			Informational: true,
		},
	}
}
