// Package deviation compares trained k-mer models against reference models.
package deviation

import (
	"fmt"
	"math"

	"github.com/verte-zerg/kmerdiff/internal/model"
)

// Lookuper resolves reference models by identity.
type Lookuper interface {
	Lookup(identity string) (model.ReferenceModel, error)
}

// ConsistencyError reports a trained model that cannot belong to the
// reference model it was paired with.
type ConsistencyError struct {
	Summary        string
	Model          string
	Identity       string
	ReferenceKmers int
	TrainedKmers   int
	Kmer           string
}

func (e *ConsistencyError) Error() string {
	if e.Kmer != "" {
		return fmt.Sprintf("%s: model %s trained kmer %s missing from reference %s",
			e.Summary, e.Model, e.Kmer, e.Identity)
	}
	return fmt.Sprintf("%s: model %s has %d trained kmers but reference %s has %d",
		e.Summary, e.Model, e.TrainedKmers, e.Identity, e.ReferenceKmers)
}

// Aggregate builds one row per model trained in s. Any lookup or
// consistency failure aborts the whole summary.
func Aggregate(s model.TrainingSummary, refs Lookuper) ([]model.Row, error) {
	rows := make([]model.Row, 0, len(s.Models))
	for _, short := range s.ModelNames() {
		row, err := aggregateModel(s, short, refs)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Result holds the rows aggregated from one training summary.
type Result struct {
	Summary model.TrainingSummary
	Rows    []model.Row
}

// AggregateAll aggregates every summary in input order. The first failing
// summary aborts the whole batch.
func AggregateAll(summaries []model.TrainingSummary, refs Lookuper) ([]Result, error) {
	results := make([]Result, 0, len(summaries))
	for _, s := range summaries {
		rows, err := Aggregate(s, refs)
		if err != nil {
			return nil, err
		}
		results = append(results, Result{Summary: s, Rows: rows})
	}
	return results, nil
}

// Flatten concatenates the rows of results in order.
func Flatten(results []Result) []model.Row {
	var rows []model.Row
	for _, r := range results {
		rows = append(rows, r.Rows...)
	}
	return rows
}

func aggregateModel(s model.TrainingSummary, short string, refs Lookuper) (model.Row, error) {
	identity, err := s.ReferenceIdentity(short)
	if err != nil {
		return model.Row{}, fmt.Errorf("%s: %w", s.Path, err)
	}
	ref, err := refs.Lookup(identity)
	if err != nil {
		return model.Row{}, fmt.Errorf("%s: model %s: %w", s.Path, short, err)
	}
	trained := s.Models[short]
	if ref.NumKmers() != len(trained) {
		return model.Row{}, &ConsistencyError{
			Summary:        s.Path,
			Model:          short,
			Identity:       identity,
			ReferenceKmers: ref.NumKmers(),
			TrainedKmers:   len(trained),
		}
	}

	row := model.Row{
		Sample:     s.Run.Sample,
		Treatment:  s.Run.Treatment,
		Pore:       s.Run.Pore,
		Lab:        s.Run.Lab,
		Date:       s.Run.Date,
		Model:      short,
		Alphabet:   s.Run.ShortAlphabet,
		TotalKmers: ref.NumKmers(),
	}
	for kmer, stat := range trained {
		params, ok := ref.Kmers[kmer]
		if !ok {
			return model.Row{}, &ConsistencyError{Summary: s.Path, Model: short, Identity: identity, Kmer: kmer}
		}
		row.TotalEvents += stat.NumTrainingEvents
		if stat.WasTrained {
			row.TrainedKmers++
		}
		tally(&row.DeviationCounts, math.Abs(stat.TrainedLevelMean-params.LevelMean))
	}
	return row, nil
}

// tally counts d against every threshold it meets; the buckets are
// cumulative.
func tally(counts *[model.NumThresholds]int, d float64) {
	for i, cut := range model.Thresholds {
		if d >= cut {
			counts[i]++
		}
	}
}
