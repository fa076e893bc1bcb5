package dto

import (
	"time"

	"github.com/jigu1688/sporttools-sub001/internal/models"
)

// MeasurementRecord is one student's raw test session as submitted by clients.
type MeasurementRecord struct {
	StudentID    string             `json:"student_id" validate:"required,max=64"`
	ClassID      string             `json:"class_id" validate:"omitempty,max=64"`
	Grade        string             `json:"grade" validate:"required,max=32"`
	Gender       string             `json:"gender" validate:"required,oneof=male female"`
	SchoolStage  string             `json:"school_stage" validate:"omitempty,oneof=primary middle high"`
	Measurements map[string]float64 `json:"measurements" validate:"required"`
	TestDate     *time.Time         `json:"test_date,omitempty"`
}

// ToModel converts the payload into the scoring input.
func (r MeasurementRecord) ToModel() models.TestRecord {
	record := models.TestRecord{
		StudentID:    r.StudentID,
		ClassID:      r.ClassID,
		Grade:        r.Grade,
		Gender:       models.Gender(r.Gender),
		SchoolStage:  models.SchoolStage(r.SchoolStage),
		Measurements: r.Measurements,
	}
	if r.TestDate != nil {
		record.TestDate = *r.TestDate
	}
	return record
}

// BatchScoreRequest scores many records in one call.
type BatchScoreRequest struct {
	Records []MeasurementRecord `json:"records" validate:"required,min=1,dive"`
}

// StatisticsRequest aggregates either pre-scored records or raw measurements,
// which are scored first. Exactly one of the two should be supplied.
type StatisticsRequest struct {
	Dimensions   []string              `json:"dimensions" validate:"required,min=1,max=4,unique,dive,oneof=grade class gender item"`
	Records      []models.ScoredRecord `json:"records,omitempty"`
	Measurements []MeasurementRecord   `json:"measurements,omitempty" validate:"omitempty,dive"`
}

// StatisticsResponse pairs the aggregate with records that could not be scored.
type StatisticsResponse struct {
	Statistics models.CohortStatistics `json:"statistics"`
	Failures   []models.BatchFailure   `json:"failures,omitempty"`
}

// ItemQuery filters the catalog listing. An empty query lists every item.
type ItemQuery struct {
	Grade  string `form:"grade"`
	Gender string `form:"gender" validate:"omitempty,oneof=male female"`
	Stage  string `form:"stage" validate:"omitempty,oneof=primary middle high"`
}
