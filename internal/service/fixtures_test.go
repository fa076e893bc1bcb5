package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jigu1688/sporttools-sub001/internal/models"
)

var fixtureGrades = []string{"一年级", "三年级"}

func fixtureItems() []models.TestItemDefinition {
	male := []models.Gender{models.GenderMale}
	return []models.TestItemDefinition{
		{Code: "height", Name: "身高", Unit: "cm", MinValue: 50, MaxValue: 250, DecimalPlaces: 1, RoundingRule: models.RoundHalfUp, ItemType: models.ItemAuxiliary, ApplicableGrades: fixtureGrades, ApplicableGenders: male},
		{Code: "weight", Name: "体重", Unit: "kg", MinValue: 10, MaxValue: 200, DecimalPlaces: 1, RoundingRule: models.RoundHalfUp, ItemType: models.ItemAuxiliary, ApplicableGrades: fixtureGrades, ApplicableGenders: male},
		{
			Code: models.ItemBMI, Name: "BMI", Unit: "kg/m2", MinValue: 5, MaxValue: 60, DecimalPlaces: 1, RoundingRule: models.RoundHalfUp,
			ItemType: models.ItemRequired, Weight: 30, ApplicableGrades: fixtureGrades, ApplicableGenders: male,
			DependsOn:  []string{"height", "weight"},
			BandScores: map[string]float64{"低体重": 80, "正常": 100, "超重": 80, "肥胖": 60},
		},
		{Code: "run_50m", Name: "50米跑", Unit: "s", MinValue: 5, MaxValue: 30, DecimalPlaces: 1, RoundingRule: models.RoundCeiling, Direction: models.LowerIsBetter, ItemType: models.ItemRequired, Weight: 40, ApplicableGrades: fixtureGrades, ApplicableGenders: male},
		{Code: "sit_ups", Name: "仰卧起坐", Unit: "次", MinValue: 0, MaxValue: 100, DecimalPlaces: 0, RoundingRule: models.RoundTruncate, Direction: models.HigherIsBetter, ItemType: models.ItemRequired, Weight: 30, ApplicableGrades: fixtureGrades, ApplicableGenders: male},
		{Code: "rope_skip", Name: "跳绳", Unit: "次", MinValue: 0, MaxValue: 300, DecimalPlaces: 0, RoundingRule: models.RoundTruncate, Direction: models.HigherIsBetter, ItemType: models.ItemOptional, Weight: 20, ApplicableGrades: fixtureGrades, ApplicableGenders: male},
		{Code: "endurance_bonus", Name: "耐力加分", Unit: "次", MinValue: 0, MaxValue: 100, DecimalPlaces: 0, RoundingRule: models.RoundTruncate, Direction: models.HigherIsBetter, ItemType: models.ItemBonusOnly, ApplicableGrades: fixtureGrades, ApplicableGenders: male},
	}
}

func fixtureSet() models.StandardSet {
	set := models.StandardSet{Version: "fixture-v1", Items: fixtureItems()}
	for _, grade := range fixtureGrades {
		set.Tables = append(set.Tables,
			models.GradingTable{
				Key:   models.TableKey{ItemCode: "run_50m", Gender: models.GenderMale, Grade: grade},
				Tiers: []models.ScoreTier{{Threshold: 8.0, Score: 100}, {Threshold: 9.5, Score: 80}, {Threshold: 11.0, Score: 60}},
			},
			models.GradingTable{
				Key:   models.TableKey{ItemCode: "sit_ups", Gender: models.GenderMale, Grade: grade},
				Tiers: []models.ScoreTier{{Threshold: 40, Score: 100}, {Threshold: 30, Score: 80}, {Threshold: 20, Score: 60}},
			},
			models.GradingTable{
				Key:   models.TableKey{ItemCode: "rope_skip", Gender: models.GenderMale, Grade: grade},
				Tiers: []models.ScoreTier{{Threshold: 120, Score: 100}, {Threshold: 100, Score: 80}, {Threshold: 80, Score: 60}},
			},
		)
		set.BonusTables = append(set.BonusTables,
			models.BonusTable{
				Key:   models.TableKey{ItemCode: "rope_skip", Gender: models.GenderMale, Grade: grade},
				Cap:   20,
				Tiers: []models.BonusTier{{Threshold: 160, BonusPoints: 20}, {Threshold: 140, BonusPoints: 10}, {Threshold: 128, BonusPoints: 4}},
			},
			models.BonusTable{
				Key:   models.TableKey{ItemCode: "endurance_bonus", Gender: models.GenderMale, Grade: grade},
				Cap:   10,
				Tiers: []models.BonusTier{{Threshold: 50, BonusPoints: 10}, {Threshold: 30, BonusPoints: 5}},
			},
		)
		set.BMIBands = append(set.BMIBands, models.BMIBandTable{
			Gender: models.GenderMale,
			Grade:  grade,
			Bands: []models.BMIBand{
				{Label: "低体重", LowerBound: 0, UpperBound: 14},
				{Label: "正常", LowerBound: 14, UpperBound: 18},
				{Label: "超重", LowerBound: 18, UpperBound: 20},
				{Label: "肥胖", LowerBound: 20, UpperBound: 99},
			},
		})
	}
	return set
}

func newFixtureReference(t testing.TB) *ReferenceData {
	t.Helper()
	ref, err := NewReferenceData(fixtureSet(), nil)
	require.NoError(t, err)
	return ref
}

func maleRecord(grade string, measurements map[string]float64) models.TestRecord {
	return models.TestRecord{StudentID: "s-1", ClassID: "c-1", Grade: grade, Gender: models.GenderMale, Measurements: measurements}
}
