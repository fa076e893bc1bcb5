package models

// Dimension is a grouping axis for cohort statistics.
type Dimension string

const (
	DimensionGrade  Dimension = "grade"
	DimensionClass  Dimension = "class"
	DimensionGender Dimension = "gender"
	DimensionItem   Dimension = "item"
)

// Valid reports whether d is a supported dimension.
func (d Dimension) Valid() bool {
	switch d {
	case DimensionGrade, DimensionClass, DimensionGender, DimensionItem:
		return true
	}
	return false
}

// DistributionBucket counts scores falling in [Min, Max].
type DistributionBucket struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// CohortGroup holds the statistics of one group.
type CohortGroup struct {
	Key          map[Dimension]string   `json:"key"`
	Count        int                    `json:"count"`
	UnratedCount int                    `json:"unrated_count"`
	Average      float64                `json:"average"`
	Min          float64                `json:"min"`
	Max          float64                `json:"max"`
	LevelCounts  map[GradeLevel]int     `json:"level_counts"`
	Rates        map[GradeLevel]float64 `json:"rates"`
	Distribution []DistributionBucket   `json:"distribution"`
}

// CohortStatistics is the read-only aggregate over a set of scored records.
type CohortStatistics struct {
	Dimensions  []Dimension   `json:"dimensions"`
	RecordCount int           `json:"record_count"`
	Groups      []CohortGroup `json:"groups"`
}
