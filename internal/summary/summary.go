// Package summary parses per-run model training summaries.
package summary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/verte-zerg/kmerdiff/internal/model"
)

// MalformedSummaryError reports a summary that is missing required data or
// cannot be parsed.
type MalformedSummaryError struct {
	Path   string
	Line   int
	Reason string
}

func (e *MalformedSummaryError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed training summary %s:%d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed training summary %s: %s", e.Path, e.Reason)
}

const (
	alphabetPrefix = "alphabet_"
	numNameFields  = 5
)

var requiredColumns = []string{
	"model_short_name",
	"kmer",
	"num_events_for_training",
	"was_trained",
	"trained_level_mean",
}

// Parse reads the training summary at path.
func Parse(path string) (model.TrainingSummary, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.TrainingSummary{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only summary.
			_ = cerr
		}
	}()
	return ParseReader(path, file)
}

// ParseReader reads a training summary from r. Run metadata is derived from
// the file name <sample>.<treatment>.<pore>.<lab>.<date>.alphabet_<name>...
// and may be overridden by "#key<TAB>value" header lines.
func ParseReader(path string, r io.Reader) (model.TrainingSummary, error) {
	run, nameErr := RunInfoFromName(filepath.Base(path))
	models := map[string]map[string]model.TrainedKmerStat{}

	var cols map[string]int
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if key, value, ok := strings.Cut(strings.TrimPrefix(line, "#"), "\t"); ok {
				applyHeader(&run, strings.TrimSpace(key), strings.TrimSpace(value))
			}
			continue
		}
		fields := strings.Split(line, "\t")
		if cols == nil {
			cols = map[string]int{}
			for i, name := range fields {
				cols[strings.TrimSpace(name)] = i
			}
			for _, name := range requiredColumns {
				if _, ok := cols[name]; !ok {
					return model.TrainingSummary{}, &MalformedSummaryError{Path: path, Line: lineNo, Reason: "missing column " + name}
				}
			}
			continue
		}
		short, kmer, stat, err := parseRow(fields, cols)
		if err != nil {
			return model.TrainingSummary{}, &MalformedSummaryError{Path: path, Line: lineNo, Reason: err.Error()}
		}
		kmers, ok := models[short]
		if !ok {
			kmers = map[string]model.TrainedKmerStat{}
			models[short] = kmers
		}
		if _, dup := kmers[kmer]; dup {
			return model.TrainingSummary{}, &MalformedSummaryError{Path: path, Line: lineNo, Reason: fmt.Sprintf("duplicate kmer %s for model %s", kmer, short)}
		}
		kmers[kmer] = stat
	}
	if err := scanner.Err(); err != nil {
		return model.TrainingSummary{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if missing := missingRunFields(run); len(missing) > 0 {
		reason := "missing run metadata: " + strings.Join(missing, ", ")
		if nameErr != nil {
			reason = nameErr.Error() + "; " + reason
		}
		return model.TrainingSummary{}, &MalformedSummaryError{Path: path, Reason: reason}
	}
	alphabet, err := model.LookupAlphabet(run.ShortAlphabet)
	if err != nil {
		return model.TrainingSummary{}, &MalformedSummaryError{Path: path, Reason: err.Error()}
	}
	run.ShortAlphabet = alphabet.Name
	if len(models) == 0 {
		return model.TrainingSummary{}, &MalformedSummaryError{Path: path, Reason: "no trained models"}
	}
	return model.TrainingSummary{Path: path, Run: run, Models: models}, nil
}

// RunInfoFromName extracts run metadata from a summary file name of the
// form <sample>.<treatment>.<pore>.<lab>.<date>.alphabet_<name>... A name
// without the alphabet marker yields an empty RunInfo. A name with the
// marker but the wrong number of fields before it yields only the alphabet
// and an error, so that header lines must supply the rest.
func RunInfoFromName(name string) (model.RunInfo, error) {
	parts := strings.Split(name, ".")
	marker := -1
	for i, part := range parts {
		if strings.HasPrefix(part, alphabetPrefix) {
			marker = i
			break
		}
	}
	if marker < 0 {
		return model.RunInfo{}, nil
	}
	run := model.RunInfo{ShortAlphabet: strings.TrimPrefix(parts[marker], alphabetPrefix)}
	if marker != numNameFields {
		return run, fmt.Errorf("file name has %d fields before %s, expected %d", marker, alphabetPrefix, numNameFields)
	}
	run.Sample, run.Treatment, run.Pore, run.Lab, run.Date = parts[0], parts[1], parts[2], parts[3], parts[4]
	return run, nil
}

func applyHeader(run *model.RunInfo, key, value string) {
	switch strings.ToLower(key) {
	case "sample":
		run.Sample = value
	case "treatment":
		run.Treatment = value
	case "pore":
		run.Pore = value
	case "lab":
		run.Lab = value
	case "date":
		run.Date = value
	case "alphabet":
		run.ShortAlphabet = value
	}
}

func missingRunFields(run model.RunInfo) []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"sample", run.Sample},
		{"treatment", run.Treatment},
		{"pore", run.Pore},
		{"lab", run.Lab},
		{"date", run.Date},
		{"alphabet", run.ShortAlphabet},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func parseRow(fields []string, cols map[string]int) (string, string, model.TrainedKmerStat, error) {
	get := func(name string) (string, error) {
		i, ok := cols[name]
		if !ok || i >= len(fields) {
			return "", fmt.Errorf("missing %s", name)
		}
		return strings.TrimSpace(fields[i]), nil
	}

	var stat model.TrainedKmerStat
	short, err := get("model_short_name")
	if err != nil {
		return "", "", stat, err
	}
	kmer, err := get("kmer")
	if err != nil {
		return "", "", stat, err
	}
	if short == "" || kmer == "" {
		return "", "", stat, fmt.Errorf("empty model or kmer")
	}

	raw, err := get("num_events_for_training")
	if err != nil {
		return "", "", stat, err
	}
	if stat.NumTrainingEvents, err = strconv.Atoi(raw); err != nil || stat.NumTrainingEvents < 0 {
		return "", "", stat, fmt.Errorf("invalid num_events_for_training %q", raw)
	}

	raw, err = get("was_trained")
	if err != nil {
		return "", "", stat, err
	}
	if stat.WasTrained, err = parseFlag(raw); err != nil {
		return "", "", stat, err
	}

	raw, err = get("trained_level_mean")
	if err != nil {
		return "", "", stat, err
	}
	if stat.TrainedLevelMean, err = strconv.ParseFloat(raw, 64); err != nil {
		return "", "", stat, fmt.Errorf("invalid trained_level_mean %q", raw)
	}

	if _, ok := cols["trained_level_stdv"]; ok {
		raw, err = get("trained_level_stdv")
		if err != nil {
			return "", "", stat, err
		}
		if stat.TrainedLevelStdv, err = strconv.ParseFloat(raw, 64); err != nil {
			return "", "", stat, fmt.Errorf("invalid trained_level_stdv %q", raw)
		}
	}
	return short, kmer, stat, nil
}

func parseFlag(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid was_trained %q", raw)
}
