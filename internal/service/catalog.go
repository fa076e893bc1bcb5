package service

import (
	"fmt"

	"github.com/jigu1688/sporttools-sub001/internal/models"
	appErrors "github.com/jigu1688/sporttools-sub001/pkg/errors"
)

const weightTolerance = 0.001

// Catalog is the immutable set of test item definitions of one standard.
type Catalog struct {
	items map[string]models.TestItemDefinition
	order []string
}

func newCatalog(items []models.TestItemDefinition) (*Catalog, error) {
	c := &Catalog{items: make(map[string]models.TestItemDefinition, len(items))}
	for _, item := range items {
		if err := validateItem(item); err != nil {
			return nil, err
		}
		if _, dup := c.items[item.Code]; dup {
			return nil, appErrors.Clonef(appErrors.ErrInvalidStandard, "duplicate item %s", item.Code)
		}
		c.items[item.Code] = cloneItem(item)
		c.order = append(c.order, item.Code)
	}
	for _, item := range items {
		for _, dep := range item.DependsOn {
			if _, ok := c.items[dep]; !ok {
				return nil, appErrors.Clonef(appErrors.ErrNotFound, "item %s depends on unknown item %s", item.Code, dep)
			}
		}
	}
	return c, nil
}

// Item returns the definition for code.
func (c *Catalog) Item(code string) (models.TestItemDefinition, error) {
	item, ok := c.items[code]
	if !ok {
		return models.TestItemDefinition{}, appErrors.Clonef(appErrors.ErrNotFound, "test item %s not found", code)
	}
	return cloneItem(item), nil
}

// Items returns every definition in catalog order.
func (c *Catalog) Items() []models.TestItemDefinition {
	out := make([]models.TestItemDefinition, 0, len(c.order))
	for _, code := range c.order {
		out = append(out, cloneItem(c.items[code]))
	}
	return out
}

// ApplicableItems returns the scored items tested for the cohort in catalog order.
func (c *Catalog) ApplicableItems(grade string, gender models.Gender, stage models.SchoolStage) ([]models.TestItemDefinition, error) {
	var out []models.TestItemDefinition
	for _, code := range c.order {
		item := c.items[code]
		if !item.Scored() || !item.AppliesTo(grade, gender, stage) {
			continue
		}
		out = append(out, cloneItem(item))
	}
	if len(out) == 0 {
		return nil, appErrors.Clonef(appErrors.ErrEmptyResult, "no test items for grade %s, gender %s, stage %s", grade, gender, stage)
	}
	return out, nil
}

// validateWeights checks that required weights sum to 100 for every
// grade and gender the catalog declares.
func (c *Catalog) validateWeights() error {
	type cohort struct {
		grade  string
		gender models.Gender
	}
	sums := make(map[cohort]float64)
	var keys []cohort
	for _, code := range c.order {
		item := c.items[code]
		if item.ItemType != models.ItemRequired {
			continue
		}
		for _, grade := range item.ApplicableGrades {
			for _, gender := range item.ApplicableGenders {
				k := cohort{grade, gender}
				if _, seen := sums[k]; !seen {
					keys = append(keys, k)
				}
				sums[k] += item.WeightFor(grade)
			}
		}
	}
	for _, k := range keys {
		total := sums[k]
		if total < 100-weightTolerance || total > 100+weightTolerance {
			return appErrors.Clonef(appErrors.ErrInvalidWeights, "required weights for grade %s, gender %s sum to %.3f, want 100", k.grade, k.gender, total)
		}
	}
	return nil
}

func validateItem(item models.TestItemDefinition) error {
	fail := func(reason string) error {
		return appErrors.Clonef(appErrors.ErrInvalidStandard, "item %s: %s", item.Code, reason)
	}
	if item.Code == "" {
		return appErrors.Clone(appErrors.ErrInvalidStandard, "item code required")
	}
	if item.MinValue > item.MaxValue {
		return fail("min_value exceeds max_value")
	}
	if item.DecimalPlaces < 0 {
		return fail("negative decimal_places")
	}
	switch item.RoundingRule {
	case models.RoundHalfUp, models.RoundCeiling, models.RoundTruncate:
	default:
		return fail(fmt.Sprintf("unknown rounding rule %q", item.RoundingRule))
	}
	switch item.ItemType {
	case models.ItemRequired, models.ItemOptional, models.ItemBonusOnly, models.ItemAuxiliary:
	default:
		return fail(fmt.Sprintf("unknown item type %q", item.ItemType))
	}
	if item.Scored() && !item.Composite() && item.Direction != models.LowerIsBetter && item.Direction != models.HigherIsBetter {
		return fail(fmt.Sprintf("unknown direction %q", item.Direction))
	}
	if item.Composite() && (item.Code != models.ItemBMI || len(item.DependsOn) != 2) {
		return fail("only bmi may be composite, depending on height and weight")
	}
	weights := []float64{item.Weight}
	for _, w := range item.GradeWeights {
		weights = append(weights, w)
	}
	for _, w := range weights {
		if w < 0 {
			return fail("negative weight")
		}
		if item.ItemType == models.ItemBonusOnly && w != 0 {
			return fail("bonus-only items carry no weight")
		}
	}
	for _, g := range item.ApplicableGenders {
		if !g.Valid() {
			return fail(fmt.Sprintf("unknown gender %q", g))
		}
	}
	return nil
}

func cloneItem(item models.TestItemDefinition) models.TestItemDefinition {
	item.ApplicableGrades = append([]string(nil), item.ApplicableGrades...)
	item.ApplicableGenders = append([]models.Gender(nil), item.ApplicableGenders...)
	item.ApplicableStages = append([]models.SchoolStage(nil), item.ApplicableStages...)
	item.DependsOn = append([]string(nil), item.DependsOn...)
	if item.BandScores != nil {
		scores := make(map[string]float64, len(item.BandScores))
		for k, v := range item.BandScores {
			scores[k] = v
		}
		item.BandScores = scores
	}
	if item.GradeWeights != nil {
		weights := make(map[string]float64, len(item.GradeWeights))
		for k, v := range item.GradeWeights {
			weights[k] = v
		}
		item.GradeWeights = weights
	}
	return item
}
