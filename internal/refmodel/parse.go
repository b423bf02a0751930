// Package refmodel loads canonical per-k-mer reference models.
package refmodel

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/verte-zerg/kmerdiff/internal/model"
)

// ParseFile reads a reference model file.
func ParseFile(path string) (model.ReferenceModel, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.ReferenceModel{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only model file.
			_ = cerr
		}
	}()
	m, err := Parse(file)
	if err != nil {
		return model.ReferenceModel{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse reads a model from r. Header lines are "#key<TAB>value" and must
// name the pore, alphabet, strand and k; data lines are
// "kmer level_mean level_stdv [sd_mean sd_stdv]".
func Parse(r io.Reader) (model.ReferenceModel, error) {
	header := map[string]string{}
	kmers := map[string]model.GaussianParams{}

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
				header[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
			}
			continue
		}
		fields := strings.Fields(line)
		if fields[0] == "kmer" {
			continue
		}
		if len(fields) < 3 {
			return model.ReferenceModel{}, fmt.Errorf("line %d: expected at least 3 fields, got %d", lineNo, len(fields))
		}
		vals := make([]float64, len(fields)-1)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return model.ReferenceModel{}, fmt.Errorf("line %d: invalid number %q", lineNo, f)
			}
			vals[i] = v
		}
		params := model.GaussianParams{LevelMean: vals[0], LevelStdv: vals[1]}
		if len(vals) >= 4 {
			params.SDMean = vals[2]
			params.SDStdv = vals[3]
		}
		if _, dup := kmers[fields[0]]; dup {
			return model.ReferenceModel{}, fmt.Errorf("line %d: duplicate kmer %s", lineNo, fields[0])
		}
		kmers[fields[0]] = params
	}
	if err := scanner.Err(); err != nil {
		return model.ReferenceModel{}, err
	}

	for _, key := range []string{"pore", "alphabet", "strand", "k"} {
		if header[key] == "" {
			return model.ReferenceModel{}, fmt.Errorf("missing #%s header", key)
		}
	}
	alphabet, err := model.LookupAlphabet(header["alphabet"])
	if err != nil {
		return model.ReferenceModel{}, err
	}
	k, err := strconv.Atoi(header["k"])
	if err != nil || k <= 0 {
		return model.ReferenceModel{}, fmt.Errorf("invalid #k header %q", header["k"])
	}

	m := model.ReferenceModel{
		Name:     header["model_name"],
		Pore:     strings.ToLower(header["pore"]),
		Alphabet: alphabet,
		Strand:   strings.ToLower(header["strand"]),
		Order:    k,
		Kmers:    kmers,
	}
	if err := Validate(m); err != nil {
		return model.ReferenceModel{}, err
	}
	return m, nil
}

// Validate checks that the model holds exactly the full k-mer enumeration
// of its alphabet.
func Validate(m model.ReferenceModel) error {
	if want := m.Alphabet.NumKmers(m.Order); len(m.Kmers) != want {
		return fmt.Errorf("model %s has %d kmers, expected %d for %s k=%d",
			m.Identity(), len(m.Kmers), want, m.Alphabet.Name, m.Order)
	}
	for kmer := range m.Kmers {
		if len(kmer) != m.Order {
			return fmt.Errorf("model %s: kmer %q has length %d, expected %d", m.Identity(), kmer, len(kmer), m.Order)
		}
		if !m.Alphabet.Contains(kmer) {
			return fmt.Errorf("model %s: kmer %q not over alphabet %s", m.Identity(), kmer, m.Alphabet.Name)
		}
	}
	return nil
}
