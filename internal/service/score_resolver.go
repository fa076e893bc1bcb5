package service

import (
	"math"

	"github.com/jigu1688/sporttools-sub001/internal/models"
	appErrors "github.com/jigu1688/sporttools-sub001/pkg/errors"
)

// ResolveRequest carries one measurement and its cohort context. Measurements
// supplies prerequisite values for composite items such as BMI.
type ResolveRequest struct {
	ItemCode     string
	Value        float64
	Gender       models.Gender
	Grade        string
	SchoolStage  models.SchoolStage
	Measurements map[string]float64
}

// ScoreResolver turns a raw measurement into a bounded score. It is a pure
// function of its input and the reference data, safe for concurrent use.
type ScoreResolver struct {
	ref *ReferenceData
}

// NewScoreResolver constructs a resolver over frozen reference data.
func NewScoreResolver(ref *ReferenceData) *ScoreResolver {
	return &ScoreResolver{ref: ref}
}

// Resolve scores a single item.
func (r *ScoreResolver) Resolve(req ResolveRequest) (models.ItemScore, error) {
	item, err := r.ref.Catalog.Item(req.ItemCode)
	if err != nil {
		return models.ItemScore{}, err
	}
	if !item.Scored() {
		return models.ItemScore{}, appErrors.Clonef(appErrors.ErrNotFound, "item %s is not scored", item.Code)
	}
	if item.Code == models.ItemBMI {
		return r.resolveBMI(item, req)
	}

	value, err := r.normalise(item, req.Value)
	if err != nil {
		return models.ItemScore{}, err
	}
	result := models.ItemScore{ItemCode: item.Code, LookupValue: value}

	var maxBase float64
	if item.ItemType != models.ItemBonusOnly {
		table, err := r.ref.Tables.StandardTable(item.Code, req.Gender, req.Grade, req.SchoolStage)
		if err != nil {
			return models.ItemScore{}, err
		}
		result.BaseScore = lookupTier(item.Direction, table.Tiers, value)
		maxBase = table.MaxScore()
	}

	bonus, hasBonus := r.ref.Tables.BonusTable(item.Code, req.Gender, req.Grade, req.SchoolStage)
	if hasBonus && result.BaseScore == maxBase {
		result.BonusPoints = math.Min(lookupBonus(item.Direction, bonus.Tiers, value), bonus.Cap)
	}

	result.Score = result.BaseScore + result.BonusPoints
	if ceiling := scoreCeiling(item, maxBase, bonus, hasBonus); result.Score > ceiling {
		result.Score = ceiling
		result.BonusPoints = math.Max(ceiling-result.BaseScore, 0)
	}
	if item.ItemType != models.ItemBonusOnly {
		// bonus points alone are not on the 100-point scale
		result.Level = models.ClassifyScore(result.Score)
	}
	return result, nil
}

func (r *ScoreResolver) resolveBMI(item models.TestItemDefinition, req ResolveRequest) (models.ItemScore, error) {
	if len(item.DependsOn) != 2 {
		return models.ItemScore{}, appErrors.Clonef(appErrors.ErrInvalidStandard, "bmi must depend on height and weight")
	}
	heightDef, err := r.ref.Catalog.Item(item.DependsOn[0])
	if err != nil {
		return models.ItemScore{}, err
	}
	weightDef, err := r.ref.Catalog.Item(item.DependsOn[1])
	if err != nil {
		return models.ItemScore{}, err
	}
	rawHeight, okHeight := req.Measurements[heightDef.Code]
	rawWeight, okWeight := req.Measurements[weightDef.Code]
	if !okHeight || !okWeight {
		missing := heightDef.Code
		if okHeight {
			missing = weightDef.Code
		}
		return models.ItemScore{}, appErrors.Clonef(appErrors.ErrMissingDependency, "%s requires %s", item.Code, missing)
	}
	height, err := r.normalise(heightDef, rawHeight)
	if err != nil {
		return models.ItemScore{}, err
	}
	weight, err := r.normalise(weightDef, rawWeight)
	if err != nil {
		return models.ItemScore{}, err
	}
	meters := height
	if heightDef.Unit == "cm" {
		meters = height / 100
	}
	if meters <= 0 {
		return models.ItemScore{}, appErrors.Clonef(appErrors.ErrOutOfRange, "%s must be positive", heightDef.Code)
	}
	// bands are matched on the BMI rounded to the item's published precision
	bmi, err := r.normalise(item, weight/(meters*meters))
	if err != nil {
		return models.ItemScore{}, err
	}

	bands, err := r.ref.Tables.BMIBands(req.Gender, req.Grade)
	if err != nil {
		return models.ItemScore{}, err
	}
	for _, band := range bands.Bands {
		if !band.Contains(bmi) {
			continue
		}
		score, ok := item.BandScores[band.Label]
		if !ok {
			return models.ItemScore{}, appErrors.Clonef(appErrors.ErrNotFound, "bmi band %s has no score", band.Label)
		}
		return models.ItemScore{
			ItemCode:    item.Code,
			LookupValue: bmi,
			BaseScore:   score,
			Score:       score,
			Level:       models.ClassifyScore(score),
			BandLabel:   band.Label,
		}, nil
	}
	return models.ItemScore{}, appErrors.Clonef(appErrors.ErrOutOfRange, "bmi %.1f matches no band for %s %s", bmi, req.Gender, req.Grade)
}

// normalise rejects values outside the item's domain, then applies its rounding rule.
func (r *ScoreResolver) normalise(item models.TestItemDefinition, raw float64) (float64, error) {
	if math.IsNaN(raw) || raw < item.MinValue || raw > item.MaxValue {
		return 0, appErrors.Clonef(appErrors.ErrOutOfRange, "%s value %v outside [%v, %v]", item.Code, raw, item.MinValue, item.MaxValue)
	}
	return applyRounding(item.RoundingRule, raw, item.DecimalPlaces), nil
}

// lookupTier returns the score of the first qualifying tier, or 0.
func lookupTier(direction models.Direction, tiers []models.ScoreTier, value float64) float64 {
	for _, tier := range tiers {
		if qualifies(direction, value, tier.Threshold) {
			return tier.Score
		}
	}
	return 0
}

func lookupBonus(direction models.Direction, tiers []models.BonusTier, value float64) float64 {
	for _, tier := range tiers {
		if qualifies(direction, value, tier.Threshold) {
			return tier.BonusPoints
		}
	}
	return 0
}

// qualifies treats the threshold as inclusive in both directions.
func qualifies(direction models.Direction, value, threshold float64) bool {
	if direction == models.LowerIsBetter {
		return value <= threshold
	}
	return value >= threshold
}

func scoreCeiling(item models.TestItemDefinition, maxBase float64, bonus models.BonusTable, hasBonus bool) float64 {
	if item.MaxScore > 0 {
		return item.MaxScore
	}
	ceiling := maxBase
	if hasBonus {
		ceiling += bonus.Cap
	}
	return ceiling
}
