package service

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jigu1688/sporttools-sub001/internal/models"
	appErrors "github.com/jigu1688/sporttools-sub001/pkg/errors"
)

// parallelThreshold is the record count above which aggregation fans out.
const parallelThreshold = 2048

var bucketBounds = []struct {
	label    string
	min, max float64
}{
	{"0-59", 0, 59},
	{"60-69", 60, 69},
	{"70-79", 70, 79},
	{"80-89", 80, 89},
	{"90-100", 90, 100},
}

// Aggregator folds scored records into cohort statistics. It never retains or
// mutates its input.
type Aggregator struct {
	workers int
}

// NewAggregator constructs an aggregator; workers bounds the map phase.
func NewAggregator(workers int) *Aggregator {
	if workers <= 0 {
		workers = 1
	}
	return &Aggregator{workers: workers}
}

// partial is a mergeable aggregate; count, sum, min, max and the level and
// bucket counters are all associative.
type partial struct {
	values  []string
	count   int
	unrated int
	sum     float64
	min     float64
	max     float64
	levels  map[models.GradeLevel]int
	buckets [5]int
}

func newPartial(values []string) *partial {
	return &partial{values: values, min: math.Inf(1), max: math.Inf(-1), levels: make(map[models.GradeLevel]int, len(models.GradeLevels))}
}

func (p *partial) add(score float64, level models.GradeLevel, rated bool) {
	if !rated {
		p.unrated++
		return
	}
	p.count++
	p.sum += score
	p.min = math.Min(p.min, score)
	p.max = math.Max(p.max, score)
	p.levels[level]++
	p.buckets[bucketIndex(score)]++
}

func (p *partial) merge(other *partial) {
	p.count += other.count
	p.unrated += other.unrated
	p.sum += other.sum
	p.min = math.Min(p.min, other.min)
	p.max = math.Max(p.max, other.max)
	for level, n := range other.levels {
		p.levels[level] += n
	}
	for i := range p.buckets {
		p.buckets[i] += other.buckets[i]
	}
}

type partials map[string]*partial

func (ps partials) merge(other partials) {
	for key, p := range other {
		if existing, ok := ps[key]; ok {
			existing.merge(p)
			continue
		}
		ps[key] = p
	}
}

// Aggregate groups records by the given dimensions. With the item dimension
// each scored item of a record is an entry and per-item scores and levels
// are used; otherwise the record total is.
func (a *Aggregator) Aggregate(records []models.ScoredRecord, dims ...models.Dimension) (models.CohortStatistics, error) {
	if len(dims) == 0 {
		return models.CohortStatistics{}, appErrors.Clone(appErrors.ErrValidation, "at least one dimension required")
	}
	seen := make(map[models.Dimension]bool, len(dims))
	for _, d := range dims {
		if !d.Valid() {
			return models.CohortStatistics{}, appErrors.Clonef(appErrors.ErrValidation, "unsupported dimension %q", d)
		}
		if seen[d] {
			return models.CohortStatistics{}, appErrors.Clonef(appErrors.ErrValidation, "duplicate dimension %q", d)
		}
		seen[d] = true
	}
	dims = append([]models.Dimension(nil), dims...)

	var merged partials
	if a.workers == 1 || len(records) < parallelThreshold {
		merged = foldRecords(records, dims)
	} else {
		merged = a.foldParallel(records, dims)
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	stats := models.CohortStatistics{Dimensions: dims, RecordCount: len(records), Groups: make([]models.CohortGroup, 0, len(keys))}
	for _, k := range keys {
		stats.Groups = append(stats.Groups, finalizeGroup(dims, merged[k]))
	}
	return stats, nil
}

func (a *Aggregator) foldParallel(records []models.ScoredRecord, dims []models.Dimension) partials {
	chunk := (len(records) + a.workers - 1) / a.workers
	results := make([]partials, (len(records)+chunk-1)/chunk)

	var g errgroup.Group
	for i := range results {
		part := records[i*chunk : min(len(records), (i+1)*chunk)]
		idx := i
		g.Go(func() error {
			results[idx] = foldRecords(part, dims)
			return nil
		})
	}
	_ = g.Wait()

	merged := make(partials)
	for _, r := range results {
		merged.merge(r)
	}
	return merged
}

func foldRecords(records []models.ScoredRecord, dims []models.Dimension) partials {
	out := make(partials)
	byItem := false
	for _, d := range dims {
		if d == models.DimensionItem {
			byItem = true
		}
	}
	for _, rec := range records {
		if !byItem {
			values := groupValues(rec, dims, "")
			entry(out, values).add(rec.TotalScore, rec.GradeLevel, rec.Rated())
			continue
		}
		for code, item := range rec.Items {
			values := groupValues(rec, dims, code)
			entry(out, values).add(item.Score, item.Level, item.Level != models.GradeUnrated)
		}
	}
	return out
}

func entry(out partials, values []string) *partial {
	key := strings.Join(values, "\x1f")
	p, ok := out[key]
	if !ok {
		p = newPartial(values)
		out[key] = p
	}
	return p
}

func groupValues(rec models.ScoredRecord, dims []models.Dimension, itemCode string) []string {
	values := make([]string, len(dims))
	for i, d := range dims {
		switch d {
		case models.DimensionGrade:
			values[i] = rec.Grade
		case models.DimensionClass:
			values[i] = rec.ClassID
		case models.DimensionGender:
			values[i] = string(rec.Gender)
		case models.DimensionItem:
			values[i] = itemCode
		}
	}
	return values
}

func finalizeGroup(dims []models.Dimension, p *partial) models.CohortGroup {
	group := models.CohortGroup{
		Key:          make(map[models.Dimension]string, len(dims)),
		Count:        p.count,
		UnratedCount: p.unrated,
		LevelCounts:  make(map[models.GradeLevel]int, len(models.GradeLevels)),
		Rates:        make(map[models.GradeLevel]float64, len(models.GradeLevels)),
		Distribution: make([]models.DistributionBucket, len(bucketBounds)),
	}
	for i, d := range dims {
		group.Key[d] = p.values[i]
	}
	for _, level := range models.GradeLevels {
		n := p.levels[level]
		group.LevelCounts[level] = n
		group.Rates[level] = 0
		if p.count > 0 {
			group.Rates[level] = roundTo(float64(n)/float64(p.count)*100, 1)
		}
	}
	for i, b := range bucketBounds {
		group.Distribution[i] = models.DistributionBucket{Label: b.label, Min: b.min, Max: b.max, Count: p.buckets[i]}
	}
	if p.count > 0 {
		group.Average = roundTo(p.sum/float64(p.count), 2)
		group.Min = p.min
		group.Max = p.max
	}
	return group
}

// bucketIndex places a score in a fixed-width bucket; bonus-inflated scores
// above 100 land in the top bucket.
func bucketIndex(score float64) int {
	switch {
	case score >= 90:
		return 4
	case score >= 80:
		return 3
	case score >= 70:
		return 2
	case score >= 60:
		return 1
	default:
		return 0
	}
}
