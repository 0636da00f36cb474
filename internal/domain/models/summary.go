package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary is an append-only aggregate snapshot over every entry known at CalculatedAt.
type Summary struct {
	ID int64 `json:"id" gorm:"primaryKey;autoIncrement"`

	TotalTableCount      int             `json:"total_table_count"`
	TotalTableCountDozen decimal.Decimal `json:"total_table_count_dozen" gorm:"type:decimal(12,1)"`

	TotalErrorCount      int             `json:"total_error_count"`
	TotalErrorCountDozen decimal.Decimal `json:"total_error_count_dozen" gorm:"type:decimal(12,1)"`

	MeasurementErrorCount int             `json:"measurement_error_count"`
	MeasurementErrorDozen decimal.Decimal `json:"measurement_error_dozen" gorm:"type:decimal(12,1)"`
	MeasurementErrorRate  decimal.Decimal `json:"measurement_error_rate" gorm:"type:decimal(10,2)"`

	KnittingErrorCount int             `json:"knitting_error_count"`
	KnittingErrorDozen decimal.Decimal `json:"knitting_error_dozen" gorm:"type:decimal(12,1)"`
	KnittingErrorRate  decimal.Decimal `json:"knitting_error_rate" gorm:"type:decimal(10,2)"`

	ToeDefectCount int             `json:"toe_defect_count"`
	ToeDefectDozen decimal.Decimal `json:"toe_defect_dozen" gorm:"type:decimal(12,1)"`
	ToeDefectRate  decimal.Decimal `json:"toe_defect_rate" gorm:"type:decimal(10,2)"`

	OtherDefectCount int             `json:"other_defect_count"`
	OtherDefectDozen decimal.Decimal `json:"other_defect_dozen" gorm:"type:decimal(12,1)"`
	OtherDefectRate  decimal.Decimal `json:"other_defect_rate" gorm:"type:decimal(10,2)"`

	OverallErrorRate decimal.Decimal `json:"overall_error_rate" gorm:"type:decimal(10,2)"`

	CalculatedAt time.Time `json:"calculated_at" gorm:"not null;index"`
}

func (Summary) TableName() string {
	return "production_summaries"
}

// EditabilityCheck reports whether an entry is still inside its edit window.
type EditabilityCheck struct {
	CanEdit       bool           `json:"can_edit"`
	Message       string         `json:"message"`
	TimeRemaining *time.Duration `json:"-"`
	RemainingText string         `json:"time_remaining,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	EditDeadline  time.Time      `json:"edit_deadline"`
}
