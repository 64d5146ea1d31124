// Package domain holds read models owned by the enrollment subsystem.
// Billing reads families and children; it never writes them.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Schedule types a child can be enrolled under.
const (
	ScheduleFullTime = "full_time"
	SchedulePartTime = "part_time"
	ScheduleDropIn   = "drop_in"
)

// Age groups used by the fee schedule.
const (
	AgeGroupInfant    = "infant"
	AgeGroupToddler   = "toddler"
	AgeGroupPreschool = "preschool"
	AgeGroupSchoolAge = "school_age"
)

// ValidScheduleType reports whether s is a known schedule type.
func ValidScheduleType(s string) bool {
	switch s {
	case ScheduleFullTime, SchedulePartTime, ScheduleDropIn:
		return true
	}
	return false
}

// Family is the guardian account children and invoices hang off.
type Family struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	GuardianFirst string       `gorm:"type:text;not null" json:"guardian_first_name"`
	GuardianLast  string       `gorm:"type:text;not null" json:"guardian_last_name"`
	Email         string       `gorm:"type:text" json:"email"`
	Phone         string       `gorm:"type:text" json:"phone"`
	Address       string       `gorm:"type:text" json:"address"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Family) TableName() string { return "families" }

// GuardianName renders the guardian's display name.
func (f Family) GuardianName() string {
	return f.GuardianFirst + " " + f.GuardianLast
}

// Child is one enrolled child.
type Child struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	FamilyID       snowflake.ID `gorm:"not null;index" json:"family_id"`
	FirstName      string       `gorm:"type:text;not null" json:"first_name"`
	LastName       string       `gorm:"type:text;not null" json:"last_name"`
	DateOfBirth    time.Time    `gorm:"not null" json:"date_of_birth"`
	ScheduleType   string       `gorm:"type:text;not null" json:"schedule_type"`
	EnrollmentDate time.Time    `gorm:"not null" json:"enrollment_date"`
	Active         bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Child) TableName() string { return "children" }

// Name renders the child's display name.
func (c Child) Name() string {
	return c.FirstName + " " + c.LastName
}

// AgeGroupAsOf derives the fee schedule age group from date of birth.
// Boundaries: <18mo infant, <3y toddler, <5y preschool, otherwise school_age.
func (c Child) AgeGroupAsOf(asOf time.Time) string {
	months := monthsBetween(c.DateOfBirth, asOf)
	switch {
	case months < 18:
		return AgeGroupInfant
	case months < 36:
		return AgeGroupToddler
	case months < 60:
		return AgeGroupPreschool
	default:
		return AgeGroupSchoolAge
	}
}

func monthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
