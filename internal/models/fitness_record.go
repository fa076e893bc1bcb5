package models

import "time"

// GradeLevel is the qualitative classification of a score.
type GradeLevel string

const (
	GradeExcellent GradeLevel = "excellent"
	GradeGood      GradeLevel = "good"
	GradePass      GradeLevel = "pass"
	GradeFail      GradeLevel = "fail"
	// GradeUnrated marks a record without any scored weighted item, and a
	// bonus-only item score.
	GradeUnrated GradeLevel = ""
)

// GradeLevels lists the rated levels in reporting order.
var GradeLevels = []GradeLevel{GradeExcellent, GradeGood, GradePass, GradeFail}

// ClassifyScore maps a score onto the 90/80/60 breakpoints.
func ClassifyScore(score float64) GradeLevel {
	switch {
	case score >= 90:
		return GradeExcellent
	case score >= 80:
		return GradeGood
	case score >= 60:
		return GradePass
	default:
		return GradeFail
	}
}

// TestRecord holds one student's raw measurements for a test session.
type TestRecord struct {
	StudentID    string             `json:"student_id"`
	ClassID      string             `json:"class_id"`
	Grade        string             `json:"grade"`
	Gender       Gender             `json:"gender"`
	SchoolStage  SchoolStage        `json:"school_stage"`
	Measurements map[string]float64 `json:"measurements"`
	TestDate     time.Time          `json:"test_date"`
}

// ItemScore is the resolved score of a single item.
type ItemScore struct {
	ItemCode    string     `json:"item_code"`
	LookupValue float64    `json:"lookup_value"`
	BaseScore   float64    `json:"base_score"`
	BonusPoints float64    `json:"bonus_points"`
	Score       float64    `json:"score"`
	Level       GradeLevel `json:"level"`
	BandLabel   string     `json:"band_label,omitempty"`
}

// ItemError records why a measured item could not be scored.
type ItemError struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// ScoredRecord is the immutable scoring result derived from a TestRecord.
type ScoredRecord struct {
	StudentID       string               `json:"student_id"`
	ClassID         string               `json:"class_id"`
	Grade           string               `json:"grade"`
	Gender          Gender               `json:"gender"`
	SchoolStage     SchoolStage          `json:"school_stage"`
	TestDate        time.Time            `json:"test_date"`
	StandardVersion string               `json:"standard_version"`
	PerItemScore    map[string]float64   `json:"per_item_score"`
	Items           map[string]ItemScore `json:"items"`
	Exempt          []string             `json:"exempt,omitempty"`
	Errors          map[string]ItemError `json:"errors,omitempty"`
	ScoredWeight    float64              `json:"scored_weight"`
	ExtraScore      float64              `json:"extra_score"`
	TotalScore      float64              `json:"total_score"`
	GradeLevel      GradeLevel           `json:"grade_level"`
}

// Rated reports whether the record received a grade level.
func (r ScoredRecord) Rated() bool {
	return r.GradeLevel != GradeUnrated
}

// BatchFailure captures a record of a batch that could not be scored at all.
type BatchFailure struct {
	Index     int    `json:"index"`
	StudentID string `json:"student_id"`
	Code      string `json:"code"`
	Reason    string `json:"reason"`
}
