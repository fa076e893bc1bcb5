package models

// Gender of the tested student.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// SchoolStage is the coarse schooling phase used alongside grade as a table key.
type SchoolStage string

const (
	StagePrimary SchoolStage = "primary"
	StageMiddle  SchoolStage = "middle"
	StageHigh    SchoolStage = "high"
)

// RoundingRule describes how a raw measurement is normalised before lookup.
type RoundingRule string

const (
	// RoundHalfUp rounds to the nearest unit at DecimalPlaces, halves away from zero.
	RoundHalfUp RoundingRule = "round_half_up"
	// RoundCeiling rounds up whenever any remainder exists past DecimalPlaces.
	RoundCeiling RoundingRule = "ceiling"
	// RoundTruncate drops digits past DecimalPlaces.
	RoundTruncate RoundingRule = "truncate"
)

// Direction tells whether a smaller or a larger raw value is the better performance.
type Direction string

const (
	LowerIsBetter  Direction = "lower_is_better"
	HigherIsBetter Direction = "higher_is_better"
)

// ItemType classifies how an item contributes to the record total.
type ItemType string

const (
	ItemRequired  ItemType = "required"
	ItemOptional  ItemType = "optional"
	ItemBonusOnly ItemType = "bonus_only"
	// ItemAuxiliary items are measured only to feed composite items such as BMI.
	ItemAuxiliary ItemType = "auxiliary"
)

// ItemBMI is the catalog code of the body-mass-index composite item.
const ItemBMI = "bmi"

// TestItemDefinition is the catalog entry of a measurable test item.
type TestItemDefinition struct {
	Code              string             `db:"code" json:"code" yaml:"code"`
	Name              string             `db:"name" json:"name" yaml:"name"`
	Unit              string             `db:"unit" json:"unit" yaml:"unit"`
	MinValue          float64            `db:"min_value" json:"min_value" yaml:"min_value"`
	MaxValue          float64            `db:"max_value" json:"max_value" yaml:"max_value"`
	DecimalPlaces     int32              `db:"decimal_places" json:"decimal_places" yaml:"decimal_places"`
	RoundingRule      RoundingRule       `db:"rounding_rule" json:"rounding_rule" yaml:"rounding_rule"`
	Direction         Direction          `db:"direction" json:"direction" yaml:"direction"`
	Weight            float64            `db:"weight" json:"weight" yaml:"weight"`
	ItemType          ItemType           `db:"item_type" json:"item_type" yaml:"item_type"`
	MaxScore          float64            `db:"max_score" json:"max_score" yaml:"max_score"`
	ApplicableGrades  []string           `db:"-" json:"applicable_grades" yaml:"applicable_grades"`
	ApplicableGenders []Gender           `db:"-" json:"applicable_genders" yaml:"applicable_genders"`
	ApplicableStages  []SchoolStage      `db:"-" json:"applicable_stages,omitempty" yaml:"applicable_stages"`
	DependsOn         []string           `db:"-" json:"depends_on,omitempty" yaml:"depends_on"`
	BandScores        map[string]float64 `db:"-" json:"band_scores,omitempty" yaml:"band_scores"`
	GradeWeights      map[string]float64 `db:"-" json:"grade_weights,omitempty" yaml:"grade_weights"`
}

// WeightFor returns the item weight for a grade, honouring per-grade overrides.
func (d TestItemDefinition) WeightFor(grade string) float64 {
	if w, ok := d.GradeWeights[grade]; ok {
		return w
	}
	return d.Weight
}

// Scored reports whether the item produces its own score.
func (d TestItemDefinition) Scored() bool {
	return d.ItemType != ItemAuxiliary
}

// Composite reports whether the item is derived from other measurements.
func (d TestItemDefinition) Composite() bool {
	return len(d.DependsOn) > 0
}

// AppliesTo reports whether the item is tested for the given cohort.
// An empty stage list means every stage.
func (d TestItemDefinition) AppliesTo(grade string, gender Gender, stage SchoolStage) bool {
	if !containsString(d.ApplicableGrades, grade) {
		return false
	}
	genderMatch := false
	for _, g := range d.ApplicableGenders {
		if g == gender {
			genderMatch = true
			break
		}
	}
	if !genderMatch {
		return false
	}
	if len(d.ApplicableStages) == 0 || stage == "" {
		return true
	}
	for _, s := range d.ApplicableStages {
		if s == stage {
			return true
		}
	}
	return false
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
