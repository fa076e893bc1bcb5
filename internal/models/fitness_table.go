package models

// TableKey identifies a grading table. SchoolStage is optional; an empty
// stage matches any stage for the grade.
type TableKey struct {
	ItemCode    string      `json:"item_code"`
	Gender      Gender      `json:"gender"`
	Grade       string      `json:"grade"`
	SchoolStage SchoolStage `json:"school_stage,omitempty"`
}

// ScoreTier is one row of a standard table.
type ScoreTier struct {
	Threshold float64 `db:"threshold" json:"threshold" yaml:"threshold"`
	Score     float64 `db:"score" json:"score" yaml:"score"`
}

// GradingTable holds score tiers ordered by score descending.
type GradingTable struct {
	Key   TableKey    `json:"key"`
	Tiers []ScoreTier `json:"tiers"`
}

// MaxScore returns the highest base score reachable through the table.
func (t GradingTable) MaxScore() float64 {
	if len(t.Tiers) == 0 {
		return 0
	}
	return t.Tiers[0].Score
}

// BonusTier grants extra points once the base score is maxed.
type BonusTier struct {
	Threshold   float64 `db:"threshold" json:"threshold" yaml:"threshold"`
	BonusPoints float64 `db:"bonus_points" json:"bonus_points" yaml:"bonus_points"`
}

// BonusTable holds bonus tiers ordered by points descending and the cap on them.
type BonusTable struct {
	Key   TableKey    `json:"key"`
	Cap   float64     `json:"cap"`
	Tiers []BonusTier `json:"tiers"`
}

// BMIBand is a qualitative band matched with inclusive lower and exclusive upper bounds.
type BMIBand struct {
	Label      string  `db:"label" json:"label" yaml:"label"`
	LowerBound float64 `db:"lower_bound" json:"lower_bound" yaml:"lower"`
	UpperBound float64 `db:"upper_bound" json:"upper_bound" yaml:"upper"`
}

// Contains reports whether v falls in [LowerBound, UpperBound).
func (b BMIBand) Contains(v float64) bool {
	return v >= b.LowerBound && v < b.UpperBound
}

// BMIBandTable lists the bands for a gender and grade in evaluation order.
type BMIBandTable struct {
	Gender Gender    `json:"gender"`
	Grade  string    `json:"grade"`
	Bands  []BMIBand `json:"bands"`
}

// StandardSet is a complete, versioned reference dataset. It is replaced as
// a unit whenever a new standard revision is published.
type StandardSet struct {
	Version     string               `json:"version"`
	Items       []TestItemDefinition `json:"items"`
	Tables      []GradingTable       `json:"tables"`
	BonusTables []BonusTable         `json:"bonus_tables"`
	BMIBands    []BMIBandTable       `json:"bmi_bands"`
}
