package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jigu1688/sporttools-sub001/internal/dto"
	"github.com/jigu1688/sporttools-sub001/internal/models"
	"github.com/jigu1688/sporttools-sub001/internal/service"
	"github.com/jigu1688/sporttools-sub001/pkg/standards"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that a grading standard loads",
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := loadReference(cmd)
			if err != nil {
				return err
			}
			items := ref.Catalog.Items()
			scored := 0
			for _, item := range items {
				if item.Scored() {
					scored++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "standard %s: %d items (%d scored)\n", ref.Version, len(items), scored)
			return nil
		},
	}
}

func newScoreCmd() *cobra.Command {
	var (
		input   string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a JSON array of measurement records",
		RunE: func(cmd *cobra.Command, args []string) error {
			scoring, err := newScoring(cmd, workers)
			if err != nil {
				return err
			}
			records, err := readRecords(cmd, input)
			if err != nil {
				return err
			}
			result, err := scoring.ScoreBatch(cmd.Context(), dto.BatchScoreRequest{Records: records})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&input, "input", "-", "Measurement records file, - for stdin")
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent scoring workers")
	return cmd
}

func newStatsCmd() *cobra.Command {
	var (
		input   string
		dims    string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Score measurement records and aggregate cohort statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			scoring, err := newScoring(cmd, workers)
			if err != nil {
				return err
			}
			records, err := readRecords(cmd, input)
			if err != nil {
				return err
			}
			resp, _, err := scoring.Statistics(cmd.Context(), dto.StatisticsRequest{
				Dimensions:   strings.Split(dims, ","),
				Measurements: records,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&input, "input", "-", "Measurement records file, - for stdin")
	cmd.Flags().StringVar(&dims, "dims", "grade", "Comma separated dimensions: grade, class, gender, item")
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent scoring workers")
	return cmd
}

func loadReference(cmd *cobra.Command) (*service.ReferenceData, error) {
	path, _ := cmd.Flags().GetString("standard")
	var (
		set models.StandardSet
		err error
	)
	if path == "" {
		set, err = standards.Default()
	} else {
		set, err = standards.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return service.NewReferenceData(set, zap.NewNop())
}

func newScoring(cmd *cobra.Command, workers int) (*service.ScoringService, error) {
	ref, err := loadReference(cmd)
	if err != nil {
		return nil, err
	}
	scorer := service.NewRecordScorer(ref, nil, zap.NewNop(), workers)
	stats := service.NewStatisticsService(service.NewAggregator(workers), nil, nil, zap.NewNop(), ref.Version)
	return service.NewScoringService(scorer, stats, validator.New(), 1<<20, zap.NewNop()), nil
}

func readRecords(cmd *cobra.Command, input string) ([]dto.MeasurementRecord, error) {
	var r io.Reader = cmd.InOrStdin()
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return nil, fmt.Errorf("open records: %w", err)
		}
		defer f.Close()
		r = f
	}
	var records []dto.MeasurementRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
