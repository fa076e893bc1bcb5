package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jigu1688/sporttools-sub001/internal/models"
	appErrors "github.com/jigu1688/sporttools-sub001/pkg/errors"
)

// StandardRepository loads a published standard revision from PostgreSQL.
type StandardRepository struct {
	db *sqlx.DB
}

// NewStandardRepository creates a new repository instance.
func NewStandardRepository(db *sqlx.DB) *StandardRepository {
	return &StandardRepository{db: db}
}

type itemRow struct {
	models.TestItemDefinition
	DependsOn        pq.StringArray `db:"depends_on"`
	ApplicableStages pq.StringArray `db:"applicable_stages"`
}

type itemGradeRow struct {
	ItemCode string          `db:"item_code"`
	Grade    string          `db:"grade"`
	Gender   models.Gender   `db:"gender"`
	Weight   sql.NullFloat64 `db:"weight"`
}

type bandScoreRow struct {
	ItemCode string  `db:"item_code"`
	Label    string  `db:"label"`
	Score    float64 `db:"score"`
}

type tierRow struct {
	ItemCode    string             `db:"item_code"`
	Gender      models.Gender      `db:"gender"`
	Grade       string             `db:"grade"`
	SchoolStage models.SchoolStage `db:"school_stage"`
	Score       float64            `db:"score"`
	Threshold   float64            `db:"threshold"`
}

type bonusTierRow struct {
	ItemCode    string             `db:"item_code"`
	Gender      models.Gender      `db:"gender"`
	Grade       string             `db:"grade"`
	SchoolStage models.SchoolStage `db:"school_stage"`
	Cap         float64            `db:"cap"`
	BonusPoints float64            `db:"bonus_points"`
	Threshold   float64            `db:"threshold"`
}

type bandRow struct {
	Gender models.Gender `db:"gender"`
	Grade  string        `db:"grade"`
	models.BMIBand
}

// Load assembles the standard set stored under version. Semantic validation
// is left to the reference data builder.
func (r *StandardRepository) Load(ctx context.Context, version string) (models.StandardSet, error) {
	set := models.StandardSet{Version: version}

	items, err := r.loadItems(ctx, version)
	if err != nil {
		return set, err
	}
	if len(items) == 0 {
		return set, appErrors.Clonef(appErrors.ErrNotFound, "standard version %s not found", version)
	}
	set.Items = items

	if set.Tables, err = r.loadTables(ctx, version); err != nil {
		return set, err
	}
	if set.BonusTables, err = r.loadBonusTables(ctx, version); err != nil {
		return set, err
	}
	if set.BMIBands, err = r.loadBands(ctx, version); err != nil {
		return set, err
	}
	return set, nil
}

func (r *StandardRepository) loadItems(ctx context.Context, version string) ([]models.TestItemDefinition, error) {
	const query = `SELECT code, name, unit, min_value, max_value, decimal_places, rounding_rule, direction, weight, item_type, max_score, depends_on, applicable_stages
        FROM fitness_items WHERE version = $1 ORDER BY position`
	var rows []itemRow
	if err := r.db.SelectContext(ctx, &rows, query, version); err != nil {
		return nil, fmt.Errorf("list fitness items: %w", err)
	}

	items := make([]models.TestItemDefinition, len(rows))
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		item := row.TestItemDefinition
		item.DependsOn = []string(row.DependsOn)
		for _, stage := range row.ApplicableStages {
			item.ApplicableStages = append(item.ApplicableStages, models.SchoolStage(stage))
		}
		items[i] = item
		index[item.Code] = i
	}
	if len(items) == 0 {
		return items, nil
	}

	const gradesQuery = `SELECT item_code, grade, gender, weight FROM fitness_item_grades WHERE version = $1 ORDER BY item_code, position`
	var grades []itemGradeRow
	if err := r.db.SelectContext(ctx, &grades, gradesQuery, version); err != nil {
		return nil, fmt.Errorf("list fitness item grades: %w", err)
	}
	for _, g := range grades {
		i, ok := index[g.ItemCode]
		if !ok {
			return nil, appErrors.Clonef(appErrors.ErrInvalidStandard, "grade row for unknown item %s", g.ItemCode)
		}
		item := &items[i]
		if !containsGrade(item.ApplicableGrades, g.Grade) {
			item.ApplicableGrades = append(item.ApplicableGrades, g.Grade)
		}
		if !containsGender(item.ApplicableGenders, g.Gender) {
			item.ApplicableGenders = append(item.ApplicableGenders, g.Gender)
		}
		if g.Weight.Valid {
			if item.GradeWeights == nil {
				item.GradeWeights = make(map[string]float64)
			}
			item.GradeWeights[g.Grade] = g.Weight.Float64
		}
	}

	const bandScoreQuery = `SELECT item_code, label, score FROM fitness_item_band_scores WHERE version = $1`
	var scores []bandScoreRow
	if err := r.db.SelectContext(ctx, &scores, bandScoreQuery, version); err != nil {
		return nil, fmt.Errorf("list bmi band scores: %w", err)
	}
	for _, s := range scores {
		i, ok := index[s.ItemCode]
		if !ok {
			return nil, appErrors.Clonef(appErrors.ErrInvalidStandard, "band score for unknown item %s", s.ItemCode)
		}
		if items[i].BandScores == nil {
			items[i].BandScores = make(map[string]float64)
		}
		items[i].BandScores[s.Label] = s.Score
	}
	return items, nil
}

func (r *StandardRepository) loadTables(ctx context.Context, version string) ([]models.GradingTable, error) {
	const query = `SELECT item_code, gender, grade, school_stage, score, threshold
        FROM fitness_score_tiers WHERE version = $1 ORDER BY item_code, gender, grade, school_stage, score DESC`
	var rows []tierRow
	if err := r.db.SelectContext(ctx, &rows, query, version); err != nil {
		return nil, fmt.Errorf("list score tiers: %w", err)
	}
	var tables []models.GradingTable
	index := make(map[models.TableKey]int)
	for _, row := range rows {
		key := models.TableKey{ItemCode: row.ItemCode, Gender: row.Gender, Grade: row.Grade, SchoolStage: row.SchoolStage}
		i, ok := index[key]
		if !ok {
			i = len(tables)
			index[key] = i
			tables = append(tables, models.GradingTable{Key: key})
		}
		tables[i].Tiers = append(tables[i].Tiers, models.ScoreTier{Threshold: row.Threshold, Score: row.Score})
	}
	return tables, nil
}

func (r *StandardRepository) loadBonusTables(ctx context.Context, version string) ([]models.BonusTable, error) {
	const query = `SELECT item_code, gender, grade, school_stage, cap, bonus_points, threshold
        FROM fitness_bonus_tiers WHERE version = $1 ORDER BY item_code, gender, grade, school_stage, bonus_points DESC`
	var rows []bonusTierRow
	if err := r.db.SelectContext(ctx, &rows, query, version); err != nil {
		return nil, fmt.Errorf("list bonus tiers: %w", err)
	}
	var tables []models.BonusTable
	index := make(map[models.TableKey]int)
	for _, row := range rows {
		key := models.TableKey{ItemCode: row.ItemCode, Gender: row.Gender, Grade: row.Grade, SchoolStage: row.SchoolStage}
		i, ok := index[key]
		if !ok {
			i = len(tables)
			index[key] = i
			tables = append(tables, models.BonusTable{Key: key, Cap: row.Cap})
		}
		tables[i].Tiers = append(tables[i].Tiers, models.BonusTier{Threshold: row.Threshold, BonusPoints: row.BonusPoints})
	}
	return tables, nil
}

func (r *StandardRepository) loadBands(ctx context.Context, version string) ([]models.BMIBandTable, error) {
	const query = `SELECT gender, grade, label, lower_bound, upper_bound
        FROM fitness_bmi_bands WHERE version = $1 ORDER BY gender, grade, lower_bound`
	var rows []bandRow
	if err := r.db.SelectContext(ctx, &rows, query, version); err != nil {
		return nil, fmt.Errorf("list bmi bands: %w", err)
	}
	type cohort struct {
		gender models.Gender
		grade  string
	}
	var tables []models.BMIBandTable
	index := make(map[cohort]int)
	for _, row := range rows {
		k := cohort{row.Gender, row.Grade}
		i, ok := index[k]
		if !ok {
			i = len(tables)
			index[k] = i
			tables = append(tables, models.BMIBandTable{Gender: row.Gender, Grade: row.Grade})
		}
		tables[i].Bands = append(tables[i].Bands, row.BMIBand)
	}
	return tables, nil
}

func containsGrade(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func containsGender(values []models.Gender, target models.Gender) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
