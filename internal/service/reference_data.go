package service

import (
	"go.uber.org/zap"

	"github.com/jigu1688/sporttools-sub001/internal/models"
	appErrors "github.com/jigu1688/sporttools-sub001/pkg/errors"
)

// ReferenceData bundles the catalog and tables of one standard revision. It
// is built once, never mutated, and shared by every scorer and aggregator.
type ReferenceData struct {
	Version string
	Catalog *Catalog
	Tables  *TableStore
}

// NewReferenceData validates a standard set and freezes it. Any error here is
// a configuration defect and should abort start-up.
func NewReferenceData(set models.StandardSet, logger *zap.Logger) (*ReferenceData, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	catalog, err := newCatalog(set.Items)
	if err != nil {
		return nil, err
	}
	if err := catalog.validateWeights(); err != nil {
		return nil, err
	}
	tables, err := newTableStore(catalog, set)
	if err != nil {
		return nil, err
	}
	ref := &ReferenceData{Version: set.Version, Catalog: catalog, Tables: tables}
	if err := ref.validateCoverage(); err != nil {
		return nil, err
	}
	logger.Info("reference data loaded",
		zap.String("version", set.Version),
		zap.Int("items", len(set.Items)),
		zap.Int("tables", len(set.Tables)),
		zap.Int("bonus_tables", len(set.BonusTables)),
		zap.Int("bmi_tables", len(set.BMIBands)),
	)
	return ref, nil
}

// validateCoverage makes sure every scored item can be resolved for every
// cohort it declares, so a missing table fails at load instead of at scoring.
func (r *ReferenceData) validateCoverage() error {
	for _, item := range r.Catalog.Items() {
		if !item.Scored() {
			continue
		}
		for _, grade := range item.ApplicableGrades {
			for _, gender := range item.ApplicableGenders {
				if err := r.checkResolvable(item, gender, grade); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *ReferenceData) checkResolvable(item models.TestItemDefinition, gender models.Gender, grade string) error {
	if item.Code == models.ItemBMI {
		bands, err := r.Tables.BMIBands(gender, grade)
		if err != nil {
			return err
		}
		for _, band := range bands.Bands {
			if _, ok := item.BandScores[band.Label]; !ok {
				return appErrors.Clonef(appErrors.ErrNotFound, "bmi band %s has no score", band.Label)
			}
		}
		return nil
	}
	stages := item.ApplicableStages
	if len(stages) == 0 {
		stages = []models.SchoolStage{""}
	}
	for _, stage := range stages {
		if item.ItemType == models.ItemBonusOnly {
			if _, ok := r.Tables.BonusTable(item.Code, gender, grade, stage); !ok {
				return appErrors.Clonef(appErrors.ErrNotFound, "no bonus table for bonus-only item %s/%s/%s", item.Code, gender, grade)
			}
			continue
		}
		if _, err := r.Tables.StandardTable(item.Code, gender, grade, stage); err != nil {
			return err
		}
	}
	return nil
}
