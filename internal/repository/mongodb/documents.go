package mongodb

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
)

// entryDocument is the BSON shape of an entry. Decimals are stored as Decimal128 so rates keep
// their exact scale.
type entryDocument struct {
	ID   int64     `bson:"_id"`
	Date time.Time `bson:"date"`

	MachineNo    string               `bson:"machine_no"`
	MkCycleSpeed primitive.Decimal128 `bson:"mk_cycle_speed"`
	Shift        int                  `bson:"shift"`
	MoldNo       int                  `bson:"mold_no"`
	Steam        primitive.Decimal128 `bson:"steam"`

	FormCount              int `bson:"form_count"`
	MatchingPersonnelCount int `bson:"matching_personnel_count"`
	TablePersonnelCount    int `bson:"table_personnel_count"`

	ModelNo           int    `bson:"model_no"`
	SizeNo            string `bson:"size_no"`
	ItemsPerPackage   int    `bson:"items_per_package"`
	PackagesPerBag    *int   `bson:"packages_per_bag,omitempty"`
	BagsPerBox        *int   `bson:"bags_per_box,omitempty"`
	TableTotalPackage int    `bson:"table_total_package"`

	SampleFormCount         int `bson:"sample_form_count"`
	RepeatFormCount         int `bson:"repeat_form_count"`
	YesterdayRemainingCount int `bson:"yesterday_remaining_count"`
	UnmatchedProductCount   int `bson:"unmatched_product_count"`
	AQualityProductCount    int `bson:"a_quality_product_count"`
	ThreadedProductCount    int `bson:"threaded_product_count"`
	StainedProductCount     int `bson:"stained_product_count"`
	CountTakenFromMachine   int `bson:"count_taken_from_machine"`

	MeasurementError int `bson:"measurement_error"`
	KnittingError    int `bson:"knitting_error"`
	ToeDefect        int `bson:"toe_defect"`
	OtherDefect      int `bson:"other_defect"`
	TotalDefects     int `bson:"total_defects"`

	RemainingOnTableCount *int `bson:"remaining_on_table_count,omitempty"`
	CountTakenFromTable   int  `bson:"count_taken_from_table"`

	MeasurementErrorRate primitive.Decimal128 `bson:"measurement_error_rate"`
	KnittingErrorRate    primitive.Decimal128 `bson:"knitting_error_rate"`
	ToeDefectRate        primitive.Decimal128 `bson:"toe_defect_rate"`
	OtherDefectRate      primitive.Decimal128 `bson:"other_defect_rate"`
	GeneralErrorRate     primitive.Decimal128 `bson:"general_error_rate"`

	PhotoPath *string `bson:"photo_path,omitempty"`
	Note      *string `bson:"note,omitempty"`

	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty"`
	Version   int        `bson:"version"`
}

type summaryDocument struct {
	ID int64 `bson:"_id"`

	TotalTableCount      int                  `bson:"total_table_count"`
	TotalTableCountDozen primitive.Decimal128 `bson:"total_table_count_dozen"`
	TotalErrorCount      int                  `bson:"total_error_count"`
	TotalErrorCountDozen primitive.Decimal128 `bson:"total_error_count_dozen"`

	MeasurementErrorCount int                  `bson:"measurement_error_count"`
	MeasurementErrorDozen primitive.Decimal128 `bson:"measurement_error_dozen"`
	MeasurementErrorRate  primitive.Decimal128 `bson:"measurement_error_rate"`
	KnittingErrorCount    int                  `bson:"knitting_error_count"`
	KnittingErrorDozen    primitive.Decimal128 `bson:"knitting_error_dozen"`
	KnittingErrorRate     primitive.Decimal128 `bson:"knitting_error_rate"`
	ToeDefectCount        int                  `bson:"toe_defect_count"`
	ToeDefectDozen        primitive.Decimal128 `bson:"toe_defect_dozen"`
	ToeDefectRate         primitive.Decimal128 `bson:"toe_defect_rate"`
	OtherDefectCount      int                  `bson:"other_defect_count"`
	OtherDefectDozen      primitive.Decimal128 `bson:"other_defect_dozen"`
	OtherDefectRate       primitive.Decimal128 `bson:"other_defect_rate"`

	OverallErrorRate primitive.Decimal128 `bson:"overall_error_rate"`
	CalculatedAt     time.Time            `bson:"calculated_at"`
}

// decimals converts between shopspring decimals and Decimal128, keeping the first failure.
type decimals struct {
	err error
}

func (c *decimals) to(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil && c.err == nil {
		c.err = fmt.Errorf("encode decimal %s: %w", d, err)
	}
	return v
}

func (c *decimals) from(v primitive.Decimal128) decimal.Decimal {
	if v == (primitive.Decimal128{}) {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		if c.err == nil {
			c.err = fmt.Errorf("decode decimal %s: %w", v, err)
		}
		return decimal.Zero
	}
	return d
}

func toEntryDocument(e *models.Entry) (entryDocument, error) {
	var c decimals
	doc := entryDocument{
		ID:                      e.ID,
		Date:                    e.Date,
		MachineNo:               e.MachineNo,
		MkCycleSpeed:            c.to(e.MkCycleSpeed),
		Shift:                   e.Shift,
		MoldNo:                  e.MoldNo,
		Steam:                   c.to(e.Steam),
		FormCount:               e.FormCount,
		MatchingPersonnelCount:  e.MatchingPersonnelCount,
		TablePersonnelCount:     e.TablePersonnelCount,
		ModelNo:                 e.ModelNo,
		SizeNo:                  e.SizeNo,
		ItemsPerPackage:         e.ItemsPerPackage,
		PackagesPerBag:          e.PackagesPerBag,
		BagsPerBox:              e.BagsPerBox,
		TableTotalPackage:       e.TableTotalPackage,
		SampleFormCount:         e.SampleFormCount,
		RepeatFormCount:         e.RepeatFormCount,
		YesterdayRemainingCount: e.YesterdayRemainingCount,
		UnmatchedProductCount:   e.UnmatchedProductCount,
		AQualityProductCount:    e.AQualityProductCount,
		ThreadedProductCount:    e.ThreadedProductCount,
		StainedProductCount:     e.StainedProductCount,
		CountTakenFromMachine:   e.CountTakenFromMachine,
		MeasurementError:        e.MeasurementError,
		KnittingError:           e.KnittingError,
		ToeDefect:               e.ToeDefect,
		OtherDefect:             e.OtherDefect,
		TotalDefects:            e.TotalDefects,
		RemainingOnTableCount:   e.RemainingOnTableCount,
		CountTakenFromTable:     e.CountTakenFromTable,
		MeasurementErrorRate:    c.to(e.MeasurementErrorRate),
		KnittingErrorRate:       c.to(e.KnittingErrorRate),
		ToeDefectRate:           c.to(e.ToeDefectRate),
		OtherDefectRate:         c.to(e.OtherDefectRate),
		GeneralErrorRate:        c.to(e.GeneralErrorRate),
		PhotoPath:               e.PhotoPath,
		Note:                    e.Note,
		CreatedAt:               e.CreatedAt,
		UpdatedAt:               e.UpdatedAt,
		Version:                 e.Version,
	}
	return doc, c.err
}

func (d entryDocument) toModel() (models.Entry, error) {
	var c decimals
	e := models.Entry{
		ID:                      d.ID,
		Date:                    d.Date,
		MachineNo:               d.MachineNo,
		MkCycleSpeed:            c.from(d.MkCycleSpeed),
		Shift:                   d.Shift,
		MoldNo:                  d.MoldNo,
		Steam:                   c.from(d.Steam),
		FormCount:               d.FormCount,
		MatchingPersonnelCount:  d.MatchingPersonnelCount,
		TablePersonnelCount:     d.TablePersonnelCount,
		ModelNo:                 d.ModelNo,
		SizeNo:                  d.SizeNo,
		ItemsPerPackage:         d.ItemsPerPackage,
		PackagesPerBag:          d.PackagesPerBag,
		BagsPerBox:              d.BagsPerBox,
		TableTotalPackage:       d.TableTotalPackage,
		SampleFormCount:         d.SampleFormCount,
		RepeatFormCount:         d.RepeatFormCount,
		YesterdayRemainingCount: d.YesterdayRemainingCount,
		UnmatchedProductCount:   d.UnmatchedProductCount,
		AQualityProductCount:    d.AQualityProductCount,
		ThreadedProductCount:    d.ThreadedProductCount,
		StainedProductCount:     d.StainedProductCount,
		CountTakenFromMachine:   d.CountTakenFromMachine,
		MeasurementError:        d.MeasurementError,
		KnittingError:           d.KnittingError,
		ToeDefect:               d.ToeDefect,
		OtherDefect:             d.OtherDefect,
		TotalDefects:            d.TotalDefects,
		RemainingOnTableCount:   d.RemainingOnTableCount,
		CountTakenFromTable:     d.CountTakenFromTable,
		MeasurementErrorRate:    c.from(d.MeasurementErrorRate),
		KnittingErrorRate:       c.from(d.KnittingErrorRate),
		ToeDefectRate:           c.from(d.ToeDefectRate),
		OtherDefectRate:         c.from(d.OtherDefectRate),
		GeneralErrorRate:        c.from(d.GeneralErrorRate),
		PhotoPath:               d.PhotoPath,
		Note:                    d.Note,
		CreatedAt:               d.CreatedAt,
		UpdatedAt:               d.UpdatedAt,
		Version:                 d.Version,
	}
	if e.Version == 0 {
		e.Version = 1
	}
	if c.err != nil {
		return models.Entry{}, fmt.Errorf("entry %d: %w", d.ID, c.err)
	}
	return e, nil
}

func toSummaryDocument(s *models.Summary) (summaryDocument, error) {
	var c decimals
	doc := summaryDocument{
		ID:                    s.ID,
		TotalTableCount:       s.TotalTableCount,
		TotalTableCountDozen:  c.to(s.TotalTableCountDozen),
		TotalErrorCount:       s.TotalErrorCount,
		TotalErrorCountDozen:  c.to(s.TotalErrorCountDozen),
		MeasurementErrorCount: s.MeasurementErrorCount,
		MeasurementErrorDozen: c.to(s.MeasurementErrorDozen),
		MeasurementErrorRate:  c.to(s.MeasurementErrorRate),
		KnittingErrorCount:    s.KnittingErrorCount,
		KnittingErrorDozen:    c.to(s.KnittingErrorDozen),
		KnittingErrorRate:     c.to(s.KnittingErrorRate),
		ToeDefectCount:        s.ToeDefectCount,
		ToeDefectDozen:        c.to(s.ToeDefectDozen),
		ToeDefectRate:         c.to(s.ToeDefectRate),
		OtherDefectCount:      s.OtherDefectCount,
		OtherDefectDozen:      c.to(s.OtherDefectDozen),
		OtherDefectRate:       c.to(s.OtherDefectRate),
		OverallErrorRate:      c.to(s.OverallErrorRate),
		CalculatedAt:          s.CalculatedAt,
	}
	return doc, c.err
}

func (d summaryDocument) toModel() (models.Summary, error) {
	var c decimals
	s := models.Summary{
		ID:                    d.ID,
		TotalTableCount:       d.TotalTableCount,
		TotalTableCountDozen:  c.from(d.TotalTableCountDozen),
		TotalErrorCount:       d.TotalErrorCount,
		TotalErrorCountDozen:  c.from(d.TotalErrorCountDozen),
		MeasurementErrorCount: d.MeasurementErrorCount,
		MeasurementErrorDozen: c.from(d.MeasurementErrorDozen),
		MeasurementErrorRate:  c.from(d.MeasurementErrorRate),
		KnittingErrorCount:    d.KnittingErrorCount,
		KnittingErrorDozen:    c.from(d.KnittingErrorDozen),
		KnittingErrorRate:     c.from(d.KnittingErrorRate),
		ToeDefectCount:        d.ToeDefectCount,
		ToeDefectDozen:        c.from(d.ToeDefectDozen),
		ToeDefectRate:         c.from(d.ToeDefectRate),
		OtherDefectCount:      d.OtherDefectCount,
		OtherDefectDozen:      c.from(d.OtherDefectDozen),
		OtherDefectRate:       c.from(d.OtherDefectRate),
		OverallErrorRate:      c.from(d.OverallErrorRate),
		CalculatedAt:          d.CalculatedAt,
	}
	if c.err != nil {
		return models.Summary{}, fmt.Errorf("summary %d: %w", d.ID, c.err)
	}
	return s, nil
}
