// Package domain holds the versioned fee schedule.
//
// Tiers are append-only: a rate change is a new tier with a later effective
// date, never an edit, so invoices issued against an older tier keep their
// original pricing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/littleoaks/sprout/pkg/money"
)

// FeeTier is one priced rate plan for an (age group, schedule type) pair.
type FeeTier struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	Name                string       `gorm:"type:text;not null" json:"name"`
	AgeGroup            string       `gorm:"type:text;not null;index:idx_fee_tiers_group_schedule" json:"age_group"`
	ScheduleType        string       `gorm:"type:text;not null;index:idx_fee_tiers_group_schedule" json:"schedule_type"`
	WeeklyRate          money.Amount `gorm:"not null" json:"weekly_rate"`
	DailyRate           money.Amount `gorm:"not null" json:"daily_rate"`
	HourlyRate          money.Amount `gorm:"not null" json:"hourly_rate"`
	RegistrationFee     money.Amount `gorm:"not null" json:"registration_fee"`
	LatePickupFeePerMin money.Amount `gorm:"not null" json:"late_pickup_fee_per_minute"`
	LatePaymentFee      money.Amount `gorm:"not null" json:"late_payment_fee"`
	SiblingDiscountPct  int          `gorm:"not null;default:0" json:"sibling_discount_pct"`
	EffectiveDate       time.Time    `gorm:"not null" json:"effective_date"`
	Active              bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (FeeTier) TableName() string { return "fee_tiers" }

// TuitionRate picks the rate field for a schedule type. Full-time and
// part-time bill weekly; drop-in bills daily.
func (t FeeTier) TuitionRate(scheduleType string) money.Amount {
	switch scheduleType {
	case "drop_in":
		return t.DailyRate
	default:
		return t.WeeklyRate
	}
}
