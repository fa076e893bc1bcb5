// Package standards decodes versioned fitness-standard datasets from YAML.
package standards

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jigu1688/sporttools-sub001/internal/models"
)

//go:embed data/national_primary_2014.yaml
var nationalPrimary2014 []byte

type document struct {
	Version     string                      `yaml:"version" validate:"required"`
	Items       []models.TestItemDefinition `yaml:"items" validate:"required,min=1"`
	Tables      []tableDoc                  `yaml:"tables" validate:"dive"`
	BonusTables []bonusTableDoc             `yaml:"bonus_tables" validate:"dive"`
	BMIBands    []bmiBandsDoc               `yaml:"bmi_bands" validate:"dive"`
}

type tableDoc struct {
	Item   string             `yaml:"item" validate:"required"`
	Gender models.Gender      `yaml:"gender" validate:"required,oneof=male female"`
	Grade  string             `yaml:"grade" validate:"required"`
	Stage  models.SchoolStage `yaml:"stage" validate:"omitempty,oneof=primary middle high"`
	// Tiers are [score, threshold] pairs.
	Tiers [][]float64 `yaml:"tiers" validate:"required,min=1,dive,len=2"`
}

type bonusTableDoc struct {
	Item   string             `yaml:"item" validate:"required"`
	Gender models.Gender      `yaml:"gender" validate:"required,oneof=male female"`
	Grade  string             `yaml:"grade" validate:"required"`
	Stage  models.SchoolStage `yaml:"stage" validate:"omitempty,oneof=primary middle high"`
	Cap    float64            `yaml:"cap" validate:"gt=0"`
	// Tiers are [bonus points, threshold] pairs.
	Tiers [][]float64 `yaml:"tiers" validate:"required,min=1,dive,len=2"`
}

type bmiBandsDoc struct {
	Gender models.Gender    `yaml:"gender" validate:"required,oneof=male female"`
	Grade  string           `yaml:"grade" validate:"required"`
	Bands  []models.BMIBand `yaml:"bands" validate:"required,min=1"`
}

var validate = validator.New()

// Default returns the built-in national primary-school standard.
func Default() (models.StandardSet, error) {
	return Decode(nationalPrimary2014)
}

// LoadFile reads and decodes a standard dataset from disk.
func LoadFile(path string) (models.StandardSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.StandardSet{}, fmt.Errorf("read standard %s: %w", path, err)
	}
	set, err := Decode(raw)
	if err != nil {
		return models.StandardSet{}, fmt.Errorf("standard %s: %w", path, err)
	}
	return set, nil
}

// Decode parses a YAML dataset. Structural checks happen here; semantic
// checks such as weight sums and tier ordering are left to the reference data
// builder so every source goes through the same rules.
func Decode(raw []byte) (models.StandardSet, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return models.StandardSet{}, fmt.Errorf("decode standard: %w", err)
	}
	if err := validate.Struct(doc); err != nil {
		return models.StandardSet{}, fmt.Errorf("validate standard: %w", err)
	}

	set := models.StandardSet{Version: doc.Version, Items: doc.Items}
	for _, t := range doc.Tables {
		table := models.GradingTable{
			Key:   models.TableKey{ItemCode: t.Item, Gender: t.Gender, Grade: t.Grade, SchoolStage: t.Stage},
			Tiers: make([]models.ScoreTier, 0, len(t.Tiers)),
		}
		for _, pair := range t.Tiers {
			table.Tiers = append(table.Tiers, models.ScoreTier{Score: pair[0], Threshold: pair[1]})
		}
		set.Tables = append(set.Tables, table)
	}
	for _, t := range doc.BonusTables {
		table := models.BonusTable{
			Key:   models.TableKey{ItemCode: t.Item, Gender: t.Gender, Grade: t.Grade, SchoolStage: t.Stage},
			Cap:   t.Cap,
			Tiers: make([]models.BonusTier, 0, len(t.Tiers)),
		}
		for _, pair := range t.Tiers {
			table.Tiers = append(table.Tiers, models.BonusTier{BonusPoints: pair[0], Threshold: pair[1]})
		}
		set.BonusTables = append(set.BonusTables, table)
	}
	for _, b := range doc.BMIBands {
		set.BMIBands = append(set.BMIBands, models.BMIBandTable{Gender: b.Gender, Grade: b.Grade, Bands: b.Bands})
	}
	return set, nil
}
