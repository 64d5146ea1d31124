// Package domain holds facility display settings consumed by billing.
// Settings shape defaults such as due dates; they never enter ledger math.
package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
)

// Due date policies for new invoices.
const (
	DuePolicyUponReceipt = "upon_receipt"
	DuePolicyDaysAfter   = "days_after"
)

// FacilitySettings is the single settings row for the facility.
type FacilitySettings struct {
	ID              int64                       `gorm:"primaryKey" json:"-"`
	FacilityName    string                      `gorm:"type:text;not null" json:"facility_name"`
	FacilityAddress string                      `gorm:"type:text" json:"facility_address"`
	FooterLines     datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"footer_lines"`
	DueDatePolicy   string                      `gorm:"type:text;not null;default:upon_receipt" json:"due_date_policy"`
	DueDaysAfter    int                         `gorm:"not null;default:0" json:"due_days_after"`
	UpdatedAt       time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (FacilitySettings) TableName() string { return "facility_settings" }

// DefaultDueDate applies the due date policy to an issue date.
func (s FacilitySettings) DefaultDueDate(issued time.Time) time.Time {
	if s.DueDatePolicy == DuePolicyDaysAfter && s.DueDaysAfter > 0 {
		return issued.AddDate(0, 0, s.DueDaysAfter)
	}
	return issued
}

// UpdateSettingsRequest carries editable settings fields.
type UpdateSettingsRequest struct {
	FacilityName    string   `json:"facility_name"`
	FacilityAddress string   `json:"facility_address"`
	FooterLines     []string `json:"footer_lines"`
	DueDatePolicy   string   `json:"due_date_policy"`
	DueDaysAfter    int      `json:"due_days_after"`
}

// Service reads and updates facility settings.
type Service interface {
	Get(ctx context.Context) (FacilitySettings, error)
	Update(ctx context.Context, req UpdateSettingsRequest) (FacilitySettings, error)
}

var (
	ErrInvalidDuePolicy    = errors.New("invalid_due_date_policy")
	ErrInvalidDueDays      = errors.New("invalid_due_days_after")
	ErrMissingFacilityName = errors.New("missing_facility_name")
)
