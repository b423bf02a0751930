// Package model defines shared data structures.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// Thresholds are the deviation cut-offs in pA, ascending.
var Thresholds = [NumThresholds]float64{0.1, 0.5, 1.0, 2.0, 4.0}

// NumThresholds is the number of deviation cut-offs.
const NumThresholds = 5

// GaussianParams holds the reference parameters for one k-mer.
type GaussianParams struct {
	LevelMean float64
	LevelStdv float64
	SDMean    float64
	SDStdv    float64
}

// ReferenceModel is a canonical per-k-mer model for one pore/alphabet/strand.
type ReferenceModel struct {
	Name     string
	Pore     string
	Alphabet Alphabet
	Strand   string
	Order    int
	Kmers    map[string]GaussianParams
}

// Identity returns the key the model is indexed under.
func (m ReferenceModel) Identity() string {
	return Identity(m.Pore, m.Alphabet.Name, m.Strand)
}

// NumKmers returns the number of k-mers in the model.
func (m ReferenceModel) NumKmers() int {
	return len(m.Kmers)
}

// Identity builds a reference model identity string. Identities are
// lower case.
func Identity(pore, alphabet, strand string) string {
	return strings.ToLower(pore + "." + alphabet + "." + strand)
}

// TrainedKmerStat is what a training run learned for one k-mer.
type TrainedKmerStat struct {
	TrainedLevelMean  float64
	TrainedLevelStdv  float64
	NumTrainingEvents int
	WasTrained        bool
}

// RunInfo describes a training run.
type RunInfo struct {
	Sample        string
	Treatment     string
	Pore          string
	Lab           string
	Date          string
	ShortAlphabet string
}

// TrainingSummary is the parsed output of one training run.
type TrainingSummary struct {
	Path   string
	Run    RunInfo
	Models map[string]map[string]TrainedKmerStat
}

// NumKmers returns the number of trained k-mers for a model.
func (s TrainingSummary) NumKmers(short string) int {
	return len(s.Models[short])
}

// ModelNames returns the short model names in sorted order.
func (s TrainingSummary) ModelNames() []string {
	names := make([]string, 0, len(s.Models))
	for name := range s.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReferenceIdentity resolves the reference model identity a short model
// name refers to for this run.
func (s TrainingSummary) ReferenceIdentity(short string) (string, error) {
	fam := ClassifyModel(short)
	if fam == FamilyUnknown {
		return "", fmt.Errorf("unrecognized model name %q", short)
	}
	return Identity(s.Run.Pore, s.Run.ShortAlphabet, fam.Strand()), nil
}

// Row is the aggregated comparison of one trained model against its reference.
type Row struct {
	Sample          string
	Treatment       string
	Pore            string
	Lab             string
	Date            string
	Model           string
	Alphabet        string
	TotalEvents     int
	TotalKmers      int
	TrainedKmers    int
	DeviationCounts [NumThresholds]int
}
