package service

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/littleoaks/sprout/internal/clock"
	enrollmentdomain "github.com/littleoaks/sprout/internal/enrollment/domain"
	familydomain "github.com/littleoaks/sprout/internal/familyaccount/domain"
	invoicedomain "github.com/littleoaks/sprout/internal/invoice/domain"
	paymentdomain "github.com/littleoaks/sprout/internal/payment/domain"
	"github.com/littleoaks/sprout/pkg/db/pagination"
	"github.com/littleoaks/sprout/pkg/money"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewService(p Params) familydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("familyaccount.service"),
		clock: p.Clock,
	}
}

func (s *Service) Get(ctx context.Context, req familydomain.AccountRequest) (familydomain.Account, error) {
	offset, limit, err := req.Window()
	if err != nil {
		return familydomain.Account{}, err
	}

	var family enrollmentdomain.Family
	err = s.db.WithContext(ctx).Where("id = ?", req.FamilyID).First(&family).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return familydomain.Account{}, familydomain.ErrFamilyNotFound
	}
	if err != nil {
		return familydomain.Account{}, err
	}

	var children []enrollmentdomain.Child
	if err := s.db.WithContext(ctx).
		Where("family_id = ?", req.FamilyID).
		Order("enrollment_date ASC, id ASC").
		Find(&children).Error; err != nil {
		return familydomain.Account{}, err
	}

	var invoices []invoicedomain.Invoice
	if err := s.db.WithContext(ctx).
		Where("family_id = ?", req.FamilyID).
		Order("issued_date DESC, id DESC").
		Find(&invoices).Error; err != nil {
		return familydomain.Account{}, err
	}

	now := s.clock.Now()
	views := make([]invoicedomain.InvoiceView, 0, len(invoices))
	summary := familydomain.Summary{
		TotalBalance: money.Zero(),
		TotalPaid:    money.Zero(),
		InvoiceCount: int64(len(invoices)),
	}
	for _, inv := range invoices {
		views = append(views, invoicedomain.InvoiceView{
			Invoice:       inv,
			DisplayStatus: inv.DisplayStatus(now),
		})
		if inv.Status != invoicedomain.StatusVoid {
			summary.TotalBalance = summary.TotalBalance.Add(inv.BalanceDue)
		}
		summary.TotalPaid = summary.TotalPaid.Add(inv.AmountPaid)
	}

	paymentsQuery := s.db.WithContext(ctx).
		Model(&paymentdomain.Payment{}).
		Joins("JOIN invoices ON invoices.id = payments.invoice_id").
		Where("invoices.family_id = ?", req.FamilyID)

	var paymentTotal int64
	if err := paymentsQuery.Count(&paymentTotal).Error; err != nil {
		return familydomain.Account{}, err
	}

	var payments []paymentdomain.Payment
	if err := paymentsQuery.
		Order("payments.payment_date DESC, payments.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&payments).Error; err != nil {
		return familydomain.Account{}, err
	}

	return familydomain.Account{
		Guardian: family,
		Children: children,
		Invoices: views,
		Payments: payments,
		PageInfo: pagination.PageInfo{
			NextPageToken: pagination.NextToken(offset, limit, paymentTotal),
			TotalCount:    paymentTotal,
		},
		Summary: summary,
	}, nil
}
