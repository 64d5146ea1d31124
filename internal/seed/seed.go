// Package seed bootstraps the default rows the service needs on first run.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	enrollmentdomain "github.com/littleoaks/sprout/internal/enrollment/domain"
	feedomain "github.com/littleoaks/sprout/internal/feeschedule/domain"
	settingsdomain "github.com/littleoaks/sprout/internal/settings/domain"
	"github.com/littleoaks/sprout/pkg/money"
)

const (
	defaultFacilityName = "Little Oaks Daycare"
	defaultDueDays      = 14
)

// EnsureFacilitySettings inserts the singleton settings row when missing.
func EnsureFacilitySettings(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing settingsdomain.FacilitySettings
		err := tx.Where("id = ?", 1).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		row := settingsdomain.FacilitySettings{
			ID:            1,
			FacilityName:  defaultFacilityName,
			FooterLines:   datatypes.NewJSONSlice([]string{"Thank you for your business."}),
			DueDatePolicy: settingsdomain.DuePolicyDaysAfter,
			DueDaysAfter:  defaultDueDays,
		}
		return tx.Create(&row).Error
	})
}

// EnsureDemoFeeTiers seeds a starter fee schedule for fresh environments.
// Gated behind a bootstrap flag; production facilities define their own.
func EnsureDemoFeeTiers(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&feedomain.FeeTier{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		effective := time.Date(time.Now().Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		weekly := map[string]string{
			enrollmentdomain.AgeGroupInfant:    "395.00",
			enrollmentdomain.AgeGroupToddler:   "345.00",
			enrollmentdomain.AgeGroupPreschool: "310.00",
			enrollmentdomain.AgeGroupSchoolAge: "250.00",
		}

		for ageGroup, rate := range weekly {
			for _, scheduleType := range []string{
				enrollmentdomain.ScheduleFullTime,
				enrollmentdomain.SchedulePartTime,
				enrollmentdomain.ScheduleDropIn,
			} {
				weeklyRate := money.MustParse(rate)
				if scheduleType == enrollmentdomain.SchedulePartTime {
					weeklyRate = weeklyRate.MulPct(60)
				}
				tier := feedomain.FeeTier{
					ID:                  node.Generate(),
					Name:                "Standard " + ageGroup + " " + scheduleType,
					AgeGroup:            ageGroup,
					ScheduleType:        scheduleType,
					WeeklyRate:          weeklyRate,
					DailyRate:           money.MustParse("65.00"),
					HourlyRate:          money.MustParse("12.00"),
					RegistrationFee:     money.MustParse("75.00"),
					LatePickupFeePerMin: money.MustParse("1.00"),
					LatePaymentFee:      money.MustParse("25.00"),
					SiblingDiscountPct:  10,
					EffectiveDate:       effective,
					Active:              true,
				}
				if err := tx.Create(&tier).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
