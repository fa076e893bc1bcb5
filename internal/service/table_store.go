package service

import (
	"fmt"

	"github.com/jigu1688/sporttools-sub001/internal/models"
	appErrors "github.com/jigu1688/sporttools-sub001/pkg/errors"
)

type bmiKey struct {
	gender models.Gender
	grade  string
}

// TableStore holds the standard, bonus and BMI tables of one standard revision.
// It is read-only after construction.
type TableStore struct {
	standard map[models.TableKey]models.GradingTable
	bonus    map[models.TableKey]models.BonusTable
	bmi      map[bmiKey]models.BMIBandTable
}

func newTableStore(catalog *Catalog, set models.StandardSet) (*TableStore, error) {
	s := &TableStore{
		standard: make(map[models.TableKey]models.GradingTable, len(set.Tables)),
		bonus:    make(map[models.TableKey]models.BonusTable, len(set.BonusTables)),
		bmi:      make(map[bmiKey]models.BMIBandTable, len(set.BMIBands)),
	}
	for _, table := range set.Tables {
		item, err := catalog.Item(table.Key.ItemCode)
		if err != nil {
			return nil, err
		}
		if err := validateTiers(item, table); err != nil {
			return nil, err
		}
		if _, dup := s.standard[table.Key]; dup {
			return nil, appErrors.Clonef(appErrors.ErrInvalidStandard, "duplicate table %s", describeKey(table.Key))
		}
		table.Tiers = append([]models.ScoreTier(nil), table.Tiers...)
		s.standard[table.Key] = table
	}
	for _, table := range set.BonusTables {
		item, err := catalog.Item(table.Key.ItemCode)
		if err != nil {
			return nil, err
		}
		if err := validateBonusTiers(item, table); err != nil {
			return nil, err
		}
		if _, dup := s.bonus[table.Key]; dup {
			return nil, appErrors.Clonef(appErrors.ErrInvalidStandard, "duplicate bonus table %s", describeKey(table.Key))
		}
		table.Tiers = append([]models.BonusTier(nil), table.Tiers...)
		s.bonus[table.Key] = table
	}
	for _, table := range set.BMIBands {
		if err := validateBands(table); err != nil {
			return nil, err
		}
		k := bmiKey{gender: table.Gender, grade: table.Grade}
		if _, dup := s.bmi[k]; dup {
			return nil, appErrors.Clonef(appErrors.ErrInvalidStandard, "duplicate bmi bands for %s %s", table.Gender, table.Grade)
		}
		table.Bands = append([]models.BMIBand(nil), table.Bands...)
		s.bmi[k] = table
	}
	return s, nil
}

// StandardTable returns the grading table for the key, preferring a
// stage-specific table over the stage-agnostic one.
func (s *TableStore) StandardTable(itemCode string, gender models.Gender, grade string, stage models.SchoolStage) (models.GradingTable, error) {
	key := models.TableKey{ItemCode: itemCode, Gender: gender, Grade: grade, SchoolStage: stage}
	if table, ok := s.standard[key]; ok {
		return table, nil
	}
	key.SchoolStage = ""
	if table, ok := s.standard[key]; ok {
		return table, nil
	}
	return models.GradingTable{}, appErrors.Clonef(appErrors.ErrNotFound, "no standard table for %s", describeKey(key))
}

// BonusTable returns the bonus table for the key; ok is false when the item
// has no bonus overlay for the cohort.
func (s *TableStore) BonusTable(itemCode string, gender models.Gender, grade string, stage models.SchoolStage) (models.BonusTable, bool) {
	key := models.TableKey{ItemCode: itemCode, Gender: gender, Grade: grade, SchoolStage: stage}
	if table, ok := s.bonus[key]; ok {
		return table, true
	}
	key.SchoolStage = ""
	table, ok := s.bonus[key]
	return table, ok
}

// BMIBands returns the BMI bands for the cohort.
func (s *TableStore) BMIBands(gender models.Gender, grade string) (models.BMIBandTable, error) {
	table, ok := s.bmi[bmiKey{gender: gender, grade: grade}]
	if !ok {
		return models.BMIBandTable{}, appErrors.Clonef(appErrors.ErrNotFound, "no bmi bands for %s %s", gender, grade)
	}
	return table, nil
}

// validateTiers enforces score-descending order and thresholds that get
// easier to reach as the score drops.
func validateTiers(item models.TestItemDefinition, table models.GradingTable) error {
	if len(table.Tiers) == 0 {
		return appErrors.Clonef(appErrors.ErrInvalidStandard, "table %s has no tiers", describeKey(table.Key))
	}
	for i := 1; i < len(table.Tiers); i++ {
		prev, cur := table.Tiers[i-1], table.Tiers[i]
		if cur.Score >= prev.Score {
			return appErrors.Clonef(appErrors.ErrInvalidStandard, "table %s: tier %d score %.1f not below %.1f", describeKey(table.Key), i, cur.Score, prev.Score)
		}
		if !thresholdEasier(item.Direction, prev.Threshold, cur.Threshold) {
			return appErrors.Clonef(appErrors.ErrInvalidStandard, "table %s: tier %d threshold %v out of order", describeKey(table.Key), i, cur.Threshold)
		}
	}
	return nil
}

func validateBonusTiers(item models.TestItemDefinition, table models.BonusTable) error {
	if table.Cap <= 0 {
		return appErrors.Clonef(appErrors.ErrInvalidStandard, "bonus table %s needs a positive cap", describeKey(table.Key))
	}
	for i := 1; i < len(table.Tiers); i++ {
		prev, cur := table.Tiers[i-1], table.Tiers[i]
		if cur.BonusPoints >= prev.BonusPoints || !thresholdEasier(item.Direction, prev.Threshold, cur.Threshold) {
			return appErrors.Clonef(appErrors.ErrInvalidStandard, "bonus table %s: tier %d out of order", describeKey(table.Key), i)
		}
	}
	return nil
}

func validateBands(table models.BMIBandTable) error {
	if len(table.Bands) == 0 {
		return appErrors.Clonef(appErrors.ErrInvalidStandard, "bmi bands for %s %s are empty", table.Gender, table.Grade)
	}
	for i, band := range table.Bands {
		if band.LowerBound >= band.UpperBound {
			return appErrors.Clonef(appErrors.ErrInvalidStandard, "bmi band %s for %s %s is empty", band.Label, table.Gender, table.Grade)
		}
		if i > 0 && band.LowerBound != table.Bands[i-1].UpperBound {
			return appErrors.Clonef(appErrors.ErrInvalidStandard, "bmi band %s for %s %s is not contiguous", band.Label, table.Gender, table.Grade)
		}
	}
	return nil
}

// thresholdEasier reports whether next is at least as easy to reach as prev.
func thresholdEasier(direction models.Direction, prev, next float64) bool {
	if direction == models.LowerIsBetter {
		return next >= prev
	}
	return next <= prev
}

func describeKey(key models.TableKey) string {
	if key.SchoolStage != "" {
		return fmt.Sprintf("%s/%s/%s/%s", key.ItemCode, key.Gender, key.Grade, key.SchoolStage)
	}
	return fmt.Sprintf("%s/%s/%s", key.ItemCode, key.Gender, key.Grade)
}
