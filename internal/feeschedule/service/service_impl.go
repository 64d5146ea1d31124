package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/littleoaks/sprout/internal/cache"
	enrollmentdomain "github.com/littleoaks/sprout/internal/enrollment/domain"
	feedomain "github.com/littleoaks/sprout/internal/feeschedule/domain"
)

// resolveCacheTTL bounds staleness after out-of-band schedule changes.
const resolveCacheTTL = 5 * time.Minute

type resolveKey struct {
	ageGroup     string
	scheduleType string
	asOf         string // yyyy-mm-dd
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	resolve *cache.TTLCache[resolveKey, feedomain.FeeTier]
}

func NewService(p Params) feedomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("feeschedule.service"),
		genID:   p.GenID,
		resolve: cache.NewTTLCache[resolveKey, feedomain.FeeTier](),
	}
}

func (s *Service) Create(ctx context.Context, req feedomain.CreateTierRequest) (feedomain.FeeTier, error) {
	if req.Name == "" {
		return feedomain.FeeTier{}, feedomain.ErrMissingName
	}
	switch req.AgeGroup {
	case enrollmentdomain.AgeGroupInfant, enrollmentdomain.AgeGroupToddler,
		enrollmentdomain.AgeGroupPreschool, enrollmentdomain.AgeGroupSchoolAge:
	default:
		return feedomain.FeeTier{}, feedomain.ErrInvalidAgeGroup
	}
	if !enrollmentdomain.ValidScheduleType(req.ScheduleType) {
		return feedomain.FeeTier{}, feedomain.ErrInvalidScheduleType
	}
	if req.WeeklyRate.IsNegative() || req.DailyRate.IsNegative() ||
		req.HourlyRate.IsNegative() || req.RegistrationFee.IsNegative() ||
		req.LatePickupFeePerMin.IsNegative() || req.LatePaymentFee.IsNegative() {
		return feedomain.FeeTier{}, feedomain.ErrNegativeRate
	}
	if req.SiblingDiscountPct < 0 || req.SiblingDiscountPct > 100 {
		return feedomain.FeeTier{}, feedomain.ErrInvalidDiscountPct
	}
	if req.EffectiveDate.IsZero() {
		return feedomain.FeeTier{}, feedomain.ErrMissingEffective
	}

	tier := feedomain.FeeTier{
		ID:                  s.genID.Generate(),
		Name:                req.Name,
		AgeGroup:            req.AgeGroup,
		ScheduleType:        req.ScheduleType,
		WeeklyRate:          req.WeeklyRate,
		DailyRate:           req.DailyRate,
		HourlyRate:          req.HourlyRate,
		RegistrationFee:     req.RegistrationFee,
		LatePickupFeePerMin: req.LatePickupFeePerMin,
		LatePaymentFee:      req.LatePaymentFee,
		SiblingDiscountPct:  req.SiblingDiscountPct,
		EffectiveDate:       req.EffectiveDate,
		Active:              true,
	}
	if err := s.db.WithContext(ctx).Create(&tier).Error; err != nil {
		return feedomain.FeeTier{}, err
	}

	s.resolve.Purge()
	s.log.Info("fee tier created",
		zap.String("tier_id", tier.ID.String()),
		zap.String("age_group", tier.AgeGroup),
		zap.String("schedule_type", tier.ScheduleType),
	)
	return tier, nil
}

func (s *Service) List(ctx context.Context, req feedomain.ListTierRequest) ([]feedomain.FeeTier, error) {
	q := s.db.WithContext(ctx).Model(&feedomain.FeeTier{})
	if req.AgeGroup != "" {
		q = q.Where("age_group = ?", req.AgeGroup)
	}
	if req.ScheduleType != "" {
		q = q.Where("schedule_type = ?", req.ScheduleType)
	}
	if req.ActiveOnly {
		q = q.Where("active = ?", true)
	}

	var tiers []feedomain.FeeTier
	if err := q.Order("effective_date DESC, id DESC").Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}

func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) error {
	res := s.db.WithContext(ctx).
		Model(&feedomain.FeeTier{}).
		Where("id = ?", id).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return feedomain.ErrTierNotFound
	}
	s.resolve.Purge()
	return nil
}

func (s *Service) Resolve(ctx context.Context, ageGroup, scheduleType string, asOf time.Time) (feedomain.FeeTier, error) {
	key := resolveKey{
		ageGroup:     ageGroup,
		scheduleType: scheduleType,
		asOf:         asOf.Format("2006-01-02"),
	}
	if tier, ok := s.resolve.Get(key); ok {
		return tier, nil
	}

	var tier feedomain.FeeTier
	err := s.db.WithContext(ctx).
		Where("age_group = ? AND schedule_type = ? AND active = ? AND effective_date <= ?",
			ageGroup, scheduleType, true, asOf).
		Order("effective_date DESC, id DESC").
		First(&tier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return feedomain.FeeTier{}, feedomain.ErrNoMatchingTier
	}
	if err != nil {
		return feedomain.FeeTier{}, err
	}

	s.resolve.Set(key, tier, resolveCacheTTL)
	return tier, nil
}
