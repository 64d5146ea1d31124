package service

import (
	"context"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	settingsdomain "github.com/littleoaks/sprout/internal/settings/domain"
)

// settingsRowID pins the singleton row.
const settingsRowID = 1

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(p Params) settingsdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("settings.service"),
	}
}

func (s *Service) Get(ctx context.Context) (settingsdomain.FacilitySettings, error) {
	var row settingsdomain.FacilitySettings
	err := s.db.WithContext(ctx).
		Where("id = ?", settingsRowID).
		First(&row).Error
	if err != nil {
		return settingsdomain.FacilitySettings{}, err
	}
	return row, nil
}

func (s *Service) Update(ctx context.Context, req settingsdomain.UpdateSettingsRequest) (settingsdomain.FacilitySettings, error) {
	name := strings.TrimSpace(req.FacilityName)
	if name == "" {
		return settingsdomain.FacilitySettings{}, settingsdomain.ErrMissingFacilityName
	}
	policy := strings.TrimSpace(req.DueDatePolicy)
	switch policy {
	case settingsdomain.DuePolicyUponReceipt:
		req.DueDaysAfter = 0
	case settingsdomain.DuePolicyDaysAfter:
		if req.DueDaysAfter <= 0 || req.DueDaysAfter > 365 {
			return settingsdomain.FacilitySettings{}, settingsdomain.ErrInvalidDueDays
		}
	default:
		return settingsdomain.FacilitySettings{}, settingsdomain.ErrInvalidDuePolicy
	}

	row := settingsdomain.FacilitySettings{
		ID:              settingsRowID,
		FacilityName:    name,
		FacilityAddress: strings.TrimSpace(req.FacilityAddress),
		FooterLines:     datatypes.NewJSONSlice(req.FooterLines),
		DueDatePolicy:   policy,
		DueDaysAfter:    req.DueDaysAfter,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"facility_name", "facility_address", "footer_lines",
				"due_date_policy", "due_days_after", "updated_at",
			}),
		}).
		Create(&row).Error
	if err != nil {
		return settingsdomain.FacilitySettings{}, err
	}

	s.log.Info("facility settings updated", zap.String("due_date_policy", policy))
	return s.Get(ctx)
}
