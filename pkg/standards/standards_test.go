package standards

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jigu1688/sporttools-sub001/internal/models"
)

func TestDefaultDecodesEmbeddedStandard(t *testing.T) {
	set, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "national-2014-primary", set.Version)
	assert.NotEmpty(t, set.Items)
	assert.Len(t, set.BMIBands, 12)
	assert.Len(t, set.BonusTables, 12)

	var run *models.GradingTable
	for i := range set.Tables {
		k := set.Tables[i].Key
		if k.ItemCode == "run_50m" && k.Gender == models.GenderMale && k.Grade == "一年级" {
			run = &set.Tables[i]
		}
	}
	require.NotNil(t, run)
	assert.Equal(t, models.ScoreTier{Score: 100, Threshold: 10.2}, run.Tiers[0])
	assert.Equal(t, float64(100), run.MaxScore())
}

func TestDecodeMapsBonusPairs(t *testing.T) {
	raw := []byte(`
version: v1
items:
  - code: rope_skip
    item_type: required
bonus_tables:
  - item: rope_skip
    gender: female
    grade: 一年级
    stage: primary
    cap: 20
    tiers: [[2, 120], [1, 110]]
`)
	set, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, set.BonusTables, 1)

	table := set.BonusTables[0]
	assert.Equal(t, models.TableKey{ItemCode: "rope_skip", Gender: models.GenderFemale, Grade: "一年级", SchoolStage: models.StagePrimary}, table.Key)
	assert.Equal(t, float64(20), table.Cap)
	assert.Equal(t, []models.BonusTier{{BonusPoints: 2, Threshold: 120}, {BonusPoints: 1, Threshold: 110}}, table.Tiers)
}

func TestDecodeRejectsMalformedDocuments(t *testing.T) {
	cases := map[string]string{
		"missing version": "items: [{code: a}]",
		"no items":        "version: v1",
		"bad pair": `
version: v1
items: [{code: a}]
tables:
  - {item: a, gender: male, grade: g, tiers: [[100]]}
`,
		"bad gender": `
version: v1
items: [{code: a}]
tables:
  - {item: a, gender: other, grade: g, tiers: [[100, 1]]}
`,
		"not yaml": "version: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standard.yaml")
	require.NoError(t, os.WriteFile(path, nationalPrimary2014, 0o600))

	set, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "national-2014-primary", set.Version)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
