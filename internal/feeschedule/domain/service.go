package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/littleoaks/sprout/pkg/money"
)

// CreateTierRequest carries a new fee tier version.
type CreateTierRequest struct {
	Name                string       `json:"name"`
	AgeGroup            string       `json:"age_group"`
	ScheduleType        string       `json:"schedule_type"`
	WeeklyRate          money.Amount `json:"weekly_rate"`
	DailyRate           money.Amount `json:"daily_rate"`
	HourlyRate          money.Amount `json:"hourly_rate"`
	RegistrationFee     money.Amount `json:"registration_fee"`
	LatePickupFeePerMin money.Amount `json:"late_pickup_fee_per_minute"`
	LatePaymentFee      money.Amount `json:"late_payment_fee"`
	SiblingDiscountPct  int          `json:"sibling_discount_pct"`
	EffectiveDate       time.Time    `json:"effective_date"`
}

// ListTierRequest filters the tier listing.
type ListTierRequest struct {
	AgeGroup     string
	ScheduleType string
	ActiveOnly   bool
}

// Service manages the fee schedule.
type Service interface {
	Create(ctx context.Context, req CreateTierRequest) (FeeTier, error)
	List(ctx context.Context, req ListTierRequest) ([]FeeTier, error)
	Deactivate(ctx context.Context, id snowflake.ID) error
	// Resolve picks the active tier with the latest effective date at or
	// before asOf for the (ageGroup, scheduleType) pair.
	Resolve(ctx context.Context, ageGroup, scheduleType string, asOf time.Time) (FeeTier, error)
}

var (
	ErrMissingName         = errors.New("missing_tier_name")
	ErrInvalidAgeGroup     = errors.New("invalid_age_group")
	ErrInvalidScheduleType = errors.New("invalid_schedule_type")
	ErrNegativeRate        = errors.New("negative_rate")
	ErrInvalidDiscountPct  = errors.New("invalid_sibling_discount_pct")
	ErrMissingEffective    = errors.New("missing_effective_date")
	ErrTierNotFound        = errors.New("fee_tier_not_found")
	ErrNoMatchingTier      = errors.New("no_matching_fee_tier")
)
