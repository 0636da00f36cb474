package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry captures one shift/machine production record together with its derived quality figures.
type Entry struct {
	ID   int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Date time.Time `json:"date" gorm:"not null;index"`

	MachineNo    string          `json:"machine_no" gorm:"size:10;not null"`
	MkCycleSpeed decimal.Decimal `json:"mk_cycle_speed" gorm:"type:decimal(10,2)"`
	Shift        int             `json:"shift"`
	MoldNo       int             `json:"mold_no"`
	Steam        decimal.Decimal `json:"steam" gorm:"type:decimal(10,2)"`

	FormCount              int `json:"form_count"`
	MatchingPersonnelCount int `json:"matching_personnel_count"`
	TablePersonnelCount    int `json:"table_personnel_count"`

	ModelNo           int    `json:"model_no"`
	SizeNo            string `json:"size_no" gorm:"size:20;not null"`
	ItemsPerPackage   int    `json:"items_per_package"`
	PackagesPerBag    *int   `json:"packages_per_bag,omitempty"`
	BagsPerBox        *int   `json:"bags_per_box,omitempty"`
	TableTotalPackage int    `json:"table_total_package"`

	SampleFormCount         int `json:"sample_form_count"`
	RepeatFormCount         int `json:"repeat_form_count"`
	YesterdayRemainingCount int `json:"yesterday_remaining_count"`
	UnmatchedProductCount   int `json:"unmatched_product_count"`
	AQualityProductCount    int `json:"a_quality_product_count"`
	ThreadedProductCount    int `json:"threaded_product_count"`
	StainedProductCount     int `json:"stained_product_count"`
	CountTakenFromMachine   int `json:"count_taken_from_machine"`

	MeasurementError int `json:"measurement_error"`
	KnittingError    int `json:"knitting_error"`
	ToeDefect        int `json:"toe_defect"`
	OtherDefect      int `json:"other_defect"`
	TotalDefects     int `json:"total_defects"`

	RemainingOnTableCount *int `json:"remaining_on_table_count,omitempty"`
	CountTakenFromTable   int  `json:"count_taken_from_table"`

	MeasurementErrorRate decimal.Decimal `json:"measurement_error_rate" gorm:"type:decimal(10,2)"`
	KnittingErrorRate    decimal.Decimal `json:"knitting_error_rate" gorm:"type:decimal(10,2)"`
	ToeDefectRate        decimal.Decimal `json:"toe_defect_rate" gorm:"type:decimal(10,2)"`
	OtherDefectRate      decimal.Decimal `json:"other_defect_rate" gorm:"type:decimal(10,2)"`
	GeneralErrorRate     decimal.Decimal `json:"general_error_rate" gorm:"type:decimal(10,2)"`

	// PhotoPath is an opaque reference owned by whatever serves the files.
	PhotoPath *string `json:"photo_path,omitempty" gorm:"size:500"`
	Note      *string `json:"note,omitempty"`

	CreatedAt time.Time  `json:"created_at" gorm:"not null;index"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" gorm:"autoUpdateTime:false"`
	Version   int        `json:"version" gorm:"not null;default:1"`
}

// TableName keeps the relational table name stable across renames of the Go type.
func (Entry) TableName() string {
	return "production_entries"
}

// EntryInput is the write payload accepted on create. Derived fields, identity and timestamps are
// never taken from the caller.
type EntryInput struct {
	Date string `json:"date" validate:"required"`

	MachineNo    string          `json:"machine_no" validate:"required,max=10"`
	MkCycleSpeed decimal.Decimal `json:"mk_cycle_speed"`
	Shift        int             `json:"shift" validate:"gte=0"`
	MoldNo       int             `json:"mold_no" validate:"gte=0"`
	Steam        decimal.Decimal `json:"steam"`

	FormCount              int `json:"form_count" validate:"gte=0"`
	MatchingPersonnelCount int `json:"matching_personnel_count" validate:"gte=0"`
	TablePersonnelCount    int `json:"table_personnel_count" validate:"gte=0"`

	ModelNo           int    `json:"model_no" validate:"gte=0"`
	SizeNo            string `json:"size_no" validate:"required,max=20"`
	ItemsPerPackage   int    `json:"items_per_package" validate:"gte=0"`
	PackagesPerBag    *int   `json:"packages_per_bag" validate:"omitempty,gte=0"`
	BagsPerBox        *int   `json:"bags_per_box" validate:"omitempty,gte=0"`
	TableTotalPackage int    `json:"table_total_package" validate:"gte=0"`

	SampleFormCount         int `json:"sample_form_count" validate:"gte=0"`
	RepeatFormCount         int `json:"repeat_form_count" validate:"gte=0"`
	YesterdayRemainingCount int `json:"yesterday_remaining_count" validate:"gte=0"`
	UnmatchedProductCount   int `json:"unmatched_product_count" validate:"gte=0"`
	AQualityProductCount    int `json:"a_quality_product_count" validate:"gte=0"`
	ThreadedProductCount    int `json:"threaded_product_count" validate:"gte=0"`
	StainedProductCount     int `json:"stained_product_count" validate:"gte=0"`
	CountTakenFromMachine   int `json:"count_taken_from_machine" validate:"gte=0"`

	MeasurementError int `json:"measurement_error" validate:"gte=0"`
	KnittingError    int `json:"knitting_error" validate:"gte=0"`
	ToeDefect        int `json:"toe_defect" validate:"gte=0"`
	OtherDefect      int `json:"other_defect" validate:"gte=0"`

	RemainingOnTableCount *int `json:"remaining_on_table_count" validate:"omitempty,gte=0"`
	CountTakenFromTable   int  `json:"count_taken_from_table" validate:"gte=0"`

	PhotoPath *string `json:"photo_path" validate:"omitempty,max=500"`
	Note      *string `json:"note"`
}

// EntryUpdate is the payload accepted on update.
type EntryUpdate struct {
	EntryInput

	// Version, when set, must equal the stored version or the update is rejected.
	Version            *int `json:"version,omitempty"`
	DeleteCurrentPhoto bool `json:"delete_current_photo"`
}

// Apply copies the caller-owned fields onto the entry. The production date is passed separately
// because parsing it belongs to the caller.
func (in EntryInput) Apply(e *Entry, date time.Time) {
	e.Date = date
	e.MachineNo = in.MachineNo
	e.MkCycleSpeed = in.MkCycleSpeed
	e.Shift = in.Shift
	e.MoldNo = in.MoldNo
	e.Steam = in.Steam
	e.FormCount = in.FormCount
	e.MatchingPersonnelCount = in.MatchingPersonnelCount
	e.TablePersonnelCount = in.TablePersonnelCount
	e.ModelNo = in.ModelNo
	e.SizeNo = in.SizeNo
	e.ItemsPerPackage = in.ItemsPerPackage
	e.PackagesPerBag = in.PackagesPerBag
	e.BagsPerBox = in.BagsPerBox
	e.TableTotalPackage = in.TableTotalPackage
	e.SampleFormCount = in.SampleFormCount
	e.RepeatFormCount = in.RepeatFormCount
	e.YesterdayRemainingCount = in.YesterdayRemainingCount
	e.UnmatchedProductCount = in.UnmatchedProductCount
	e.AQualityProductCount = in.AQualityProductCount
	e.ThreadedProductCount = in.ThreadedProductCount
	e.StainedProductCount = in.StainedProductCount
	e.CountTakenFromMachine = in.CountTakenFromMachine
	e.MeasurementError = in.MeasurementError
	e.KnittingError = in.KnittingError
	e.ToeDefect = in.ToeDefect
	e.OtherDefect = in.OtherDefect
	e.RemainingOnTableCount = in.RemainingOnTableCount
	e.CountTakenFromTable = in.CountTakenFromTable
	e.Note = in.Note
}

// EntryView is an entry decorated with its current edit status.
type EntryView struct {
	Entry

	CanEdit              bool   `json:"can_edit"`
	TimeRemainingForEdit string `json:"time_remaining_for_edit,omitempty"`
	EditStatus           string `json:"edit_status"`
}
