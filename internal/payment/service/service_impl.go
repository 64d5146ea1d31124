package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/littleoaks/sprout/internal/clock"
	"github.com/littleoaks/sprout/internal/events"
	invoicedomain "github.com/littleoaks/sprout/internal/invoice/domain"
	"github.com/littleoaks/sprout/internal/invoice/store"
	paymentdomain "github.com/littleoaks/sprout/internal/payment/domain"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Outbox *events.Outbox
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	outbox *events.Outbox
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("payment.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		outbox: p.Outbox,
	}
}

// Record appends one payment and rederives the invoice's paid amount,
// balance, and status in the same transaction. Over-payment is allowed;
// the balance floors at zero.
func (s *Service) Record(ctx context.Context, req paymentdomain.RecordPaymentRequest) (paymentdomain.Payment, invoicedomain.Invoice, error) {
	if !req.Amount.IsPositive() {
		return paymentdomain.Payment{}, invoicedomain.Invoice{}, paymentdomain.ErrNonPositiveAmount
	}
	if !paymentdomain.ValidMethod(req.Method) {
		return paymentdomain.Payment{}, invoicedomain.Invoice{}, paymentdomain.ErrInvalidMethod
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = s.clock.Now()
	}

	receipt := strings.TrimSpace(req.ReferenceNumber)
	if receipt == "" {
		receipt = uuid.NewString()
	}

	var (
		payment paymentdomain.Payment
		updated invoicedomain.Invoice
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := store.Load(ctx, tx, req.InvoiceID)
		if err != nil {
			return err
		}
		if inv.Status == invoicedomain.StatusVoid {
			return paymentdomain.ErrInvoiceVoid
		}

		payment = paymentdomain.Payment{
			ID:              s.genID.Generate(),
			InvoiceID:       inv.ID,
			Amount:          req.Amount,
			Method:          req.Method,
			PaymentDate:     paymentDate,
			ReferenceNumber: strings.TrimSpace(req.ReferenceNumber),
			ReceiptNumber:   receipt,
			Notes:           strings.TrimSpace(req.Notes),
		}
		if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
			return err
		}

		lines, err := store.LoadLines(ctx, tx, inv.ID)
		if err != nil {
			return err
		}
		paid, err := store.SumPayments(ctx, tx, inv.ID)
		if err != nil {
			return err
		}
		inv.Recompute(lines, paid)

		if err := store.SaveCAS(ctx, tx, &inv); err != nil {
			return err
		}

		payload := events.PaymentPayload{
			PaymentID: payment.ID.String(),
			InvoiceID: inv.ID.String(),
			Amount:    payment.Amount.String(),
			Method:    payment.Method,
		}
		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventPaymentRecorded,
			Payload:   payload.ToMap(),
			DedupeKey: "payment_recorded:" + payment.ID.String(),
		}); err != nil {
			return err
		}

		updated = inv
		return nil
	})
	if err != nil {
		return paymentdomain.Payment{}, invoicedomain.Invoice{}, err
	}

	s.log.Info("payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", updated.ID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.String("status", string(updated.Status)),
	)
	return payment, updated, nil
}

// Void marks a pending or partial invoice void. Paid amounts and balances
// freeze at their current values; no further mutation is permitted and the
// invoice drops out of aging.
func (s *Service) Void(ctx context.Context, invoiceID snowflake.ID) (invoicedomain.Invoice, error) {
	var updated invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := store.Load(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		switch inv.Status {
		case invoicedomain.StatusVoid:
			return paymentdomain.ErrInvoiceVoid
		case invoicedomain.StatusPaid:
			return paymentdomain.ErrInvoiceAlreadyPaid
		}

		inv.Status = invoicedomain.StatusVoid
		if err := store.SaveCAS(ctx, tx, &inv); err != nil {
			return err
		}

		payload := events.InvoicePayload{
			InvoiceID:     inv.ID.String(),
			InvoiceNumber: inv.InvoiceNumber,
			FamilyID:      inv.FamilyID.String(),
		}
		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventInvoiceVoided,
			Payload:   payload.ToMap(),
			DedupeKey: "invoice_voided:" + inv.ID.String(),
		}); err != nil {
			return err
		}

		updated = inv
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.log.Info("invoice voided", zap.String("invoice_id", updated.ID.String()))
	return updated, nil
}

func (s *Service) ListByInvoice(ctx context.Context, invoiceID snowflake.ID) ([]paymentdomain.Payment, error) {
	if _, err := store.Load(ctx, s.db, invoiceID); err != nil {
		return nil, err
	}
	var payments []paymentdomain.Payment
	err := s.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("payment_date DESC, id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
