package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	enrollmentdomain "github.com/littleoaks/sprout/internal/enrollment/domain"
	feedomain "github.com/littleoaks/sprout/internal/feeschedule/domain"
	invoicedomain "github.com/littleoaks/sprout/internal/invoice/domain"
)

// Pricer turns a family's active enrollments into priced line items.
type Pricer interface {
	PriceFamily(ctx context.Context, tx *gorm.DB, family enrollmentdomain.Family, invoiceID snowflake.ID, periodStart time.Time) ([]invoicedomain.LineItem, error)
}

// SchedulePricer prices from the fee schedule:
//   - one tuition line per active child, rated by the tier matching the
//     child's age group and schedule type as of the period start;
//   - a sibling discount line for every child after the earliest-enrolled
//     one (the earliest-enrolled child pays full price);
//   - a registration fee line the first time a child ever appears on an
//     invoice.
type SchedulePricer struct {
	genID  *snowflake.Node
	feeSvc feedomain.Service
}

func NewSchedulePricer(genID *snowflake.Node, feeSvc feedomain.Service) Pricer {
	return &SchedulePricer{genID: genID, feeSvc: feeSvc}
}

func (p *SchedulePricer) PriceFamily(ctx context.Context, tx *gorm.DB, family enrollmentdomain.Family, invoiceID snowflake.ID, periodStart time.Time) ([]invoicedomain.LineItem, error) {
	var children []enrollmentdomain.Child
	err := tx.WithContext(ctx).
		Where("family_id = ? AND active = ?", family.ID, true).
		Find(&children).Error
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, invoicedomain.ErrNoActiveChildren
	}

	// Earliest-enrolled child first; ties broken by ID for determinism.
	sort.Slice(children, func(i, j int) bool {
		if children[i].EnrollmentDate.Equal(children[j].EnrollmentDate) {
			return children[i].ID < children[j].ID
		}
		return children[i].EnrollmentDate.Before(children[j].EnrollmentDate)
	})

	var lines []invoicedomain.LineItem
	for idx, child := range children {
		child := child
		ageGroup := child.AgeGroupAsOf(periodStart)
		tier, err := p.feeSvc.Resolve(ctx, ageGroup, child.ScheduleType, periodStart)
		if err != nil {
			return nil, err
		}

		rate := tier.TuitionRate(child.ScheduleType)
		lines = append(lines, invoicedomain.LineItem{
			ID:          p.genID.Generate(),
			InvoiceID:   invoiceID,
			ChildID:     &child.ID,
			Description: fmt.Sprintf("Tuition - %s (%s, %s)", child.Name(), ageGroup, child.ScheduleType),
			ItemType:    invoicedomain.ItemTuition,
			Quantity:    1,
			UnitPrice:   rate,
			Total:       rate,
		})

		if idx > 0 && tier.SiblingDiscountPct > 0 {
			discount := rate.MulPct(tier.SiblingDiscountPct).Neg()
			if !discount.IsZero() {
				lines = append(lines, invoicedomain.LineItem{
					ID:          p.genID.Generate(),
					InvoiceID:   invoiceID,
					ChildID:     &child.ID,
					Description: fmt.Sprintf("Sibling discount (%d%%) - %s", tier.SiblingDiscountPct, child.Name()),
					ItemType:    invoicedomain.ItemOther,
					Quantity:    1,
					UnitPrice:   discount,
					Total:       discount,
				})
			}
		}

		billed, err := childPreviouslyBilled(ctx, tx, child.ID)
		if err != nil {
			return nil, err
		}
		if !billed && tier.RegistrationFee.IsPositive() {
			lines = append(lines, invoicedomain.LineItem{
				ID:          p.genID.Generate(),
				InvoiceID:   invoiceID,
				ChildID:     &child.ID,
				Description: fmt.Sprintf("Registration fee - %s", child.Name()),
				ItemType:    invoicedomain.ItemRegistration,
				Quantity:    1,
				UnitPrice:   tier.RegistrationFee,
				Total:       tier.RegistrationFee,
			})
		}
	}

	return lines, nil
}

// childPreviouslyBilled reports whether any non-void invoice already carries
// a line for this child.
func childPreviouslyBilled(ctx context.Context, tx *gorm.DB, childID snowflake.ID) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Table("invoice_line_items").
		Joins("JOIN invoices ON invoices.id = invoice_line_items.invoice_id").
		Where("invoice_line_items.child_id = ? AND invoices.status <> ?", childID, invoicedomain.StatusVoid).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
