package service

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	agingdomain "github.com/littleoaks/sprout/internal/aging/domain"
	"github.com/littleoaks/sprout/internal/clock"
	invoicedomain "github.com/littleoaks/sprout/internal/invoice/domain"
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

func NewService(p Params) agingdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("aging.service"),
		clock: p.Clock,
	}
}

type outstandingRow struct {
	ID            snowflake.ID `gorm:"column:id"`
	InvoiceNumber string       `gorm:"column:invoice_number"`
	FamilyID      snowflake.ID `gorm:"column:family_id"`
	GuardianFirst string       `gorm:"column:guardian_first"`
	GuardianLast  string       `gorm:"column:guardian_last"`
	DueDate       time.Time    `gorm:"column:due_date"`
	BalanceDue    money.Amount `gorm:"column:balance_due"`
}

// ComputeAging buckets every outstanding invoice by days past due. Paid and
// void invoices never appear; the sum over buckets equals the total
// outstanding balance exactly.
func (s *Service) ComputeAging(ctx context.Context, asOf time.Time) (agingdomain.Report, error) {
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}

	var rows []outstandingRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			i.id,
			i.invoice_number,
			i.family_id,
			f.guardian_first,
			f.guardian_last,
			i.due_date,
			i.balance_due
		FROM invoices i
		JOIN families f ON f.id = i.family_id
		WHERE i.status IN ('pending', 'partial')
		  AND i.balance_due > 0
		ORDER BY i.due_date ASC, i.id ASC`).
		Scan(&rows).Error
	if err != nil {
		return agingdomain.Report{}, err
	}

	buckets := map[string]*agingdomain.Bucket{}
	for _, name := range bucketOrder {
		buckets[name] = &agingdomain.Bucket{Name: name, Total: money.Zero()}
	}

	families := map[snowflake.ID]*agingdomain.FamilyRow{}
	totalOutstanding := money.Zero()

	for _, row := range rows {
		inv := invoicedomain.Invoice{DueDate: row.DueDate}
		days := inv.DaysPastDue(asOf)
		name := bucketFor(days)

		aged := agingdomain.AgedInvoice{
			InvoiceID:     row.ID,
			InvoiceNumber: row.InvoiceNumber,
			FamilyID:      row.FamilyID,
			GuardianName:  row.GuardianFirst + " " + row.GuardianLast,
			DueDate:       row.DueDate,
			DaysPastDue:   days,
			BalanceDue:    row.BalanceDue,
		}

		bucket := buckets[name]
		bucket.Invoices = append(bucket.Invoices, aged)
		bucket.Total = bucket.Total.Add(row.BalanceDue)
		totalOutstanding = totalOutstanding.Add(row.BalanceDue)

		fam, ok := families[row.FamilyID]
		if !ok {
			fam = &agingdomain.FamilyRow{
				FamilyID:     row.FamilyID,
				GuardianName: aged.GuardianName,
				Current:      money.Zero(),
				Days30:       money.Zero(),
				Days60:       money.Zero(),
				Days90:       money.Zero(),
				Over90:       money.Zero(),
				Total:        money.Zero(),
			}
			families[row.FamilyID] = fam
		}
		switch name {
		case agingdomain.BucketCurrent:
			fam.Current = fam.Current.Add(row.BalanceDue)
		case agingdomain.BucketDays30:
			fam.Days30 = fam.Days30.Add(row.BalanceDue)
		case agingdomain.BucketDays60:
			fam.Days60 = fam.Days60.Add(row.BalanceDue)
		case agingdomain.BucketDays90:
			fam.Days90 = fam.Days90.Add(row.BalanceDue)
		case agingdomain.BucketOver90:
			fam.Over90 = fam.Over90.Add(row.BalanceDue)
		}
		fam.Total = fam.Total.Add(row.BalanceDue)
	}

	orderedBuckets := make([]agingdomain.Bucket, 0, len(bucketOrder))
	for _, name := range bucketOrder {
		orderedBuckets = append(orderedBuckets, *buckets[name])
	}

	familyRows := make([]agingdomain.FamilyRow, 0, len(families))
	for _, fam := range families {
		familyRows = append(familyRows, *fam)
	}
	sort.Slice(familyRows, func(i, j int) bool {
		if c := familyRows[i].Total.Cmp(familyRows[j].Total); c != 0 {
			return c > 0
		}
		return familyRows[i].FamilyID < familyRows[j].FamilyID
	})

	return agingdomain.Report{
		AsOf:             asOf,
		Buckets:          orderedBuckets,
		TotalOutstanding: totalOutstanding,
		Families:         familyRows,
	}, nil
}

var bucketOrder = []string{
	agingdomain.BucketCurrent,
	agingdomain.BucketDays30,
	agingdomain.BucketDays60,
	agingdomain.BucketDays90,
	agingdomain.BucketOver90,
}

func bucketFor(daysPastDue int) string {
	switch {
	case daysPastDue <= 0:
		return agingdomain.BucketCurrent
	case daysPastDue <= 30:
		return agingdomain.BucketDays30
	case daysPastDue <= 60:
		return agingdomain.BucketDays60
	case daysPastDue <= 90:
		return agingdomain.BucketDays90
	default:
		return agingdomain.BucketOver90
	}
}
