package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jigu1688/sporttools-sub001/internal/dto"
	"github.com/jigu1688/sporttools-sub001/internal/service"
)

const sampleRecords = `[
  {"student_id": "a", "class_id": "1-1", "grade": "一年级", "gender": "male", "measurements": {"run_50m": 10.2}},
  {"student_id": "b", "class_id": "1-1", "grade": "一年级", "gender": "male", "measurements": {"run_50m": 11.05}}
]`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateEmbeddedStandard(t *testing.T) {
	out, err := run(t, "", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "standard national-2014-primary")
}

func TestValidateRejectsMissingFile(t *testing.T) {
	_, err := run(t, "", "validate", "--standard", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestScoreFromStdin(t *testing.T) {
	out, err := run(t, sampleRecords, "score", "--workers", "2")
	require.NoError(t, err)

	var result service.BatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Records, 2)
	assert.Equal(t, float64(100), result.Records[0].TotalScore)
	assert.Equal(t, float64(80), result.Records[1].TotalScore)
}

func TestStatsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleRecords), 0o600))

	out, err := run(t, "", "stats", "--input", path, "--dims", "class,gender")
	require.NoError(t, err)

	var resp dto.StatisticsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Statistics.Groups, 1)
	assert.Equal(t, float64(90), resp.Statistics.Groups[0].Average)
}

func TestStatsRejectsUnknownDimension(t *testing.T) {
	_, err := run(t, sampleRecords, "stats", "--dims", "school")
	assert.Error(t, err)
}
