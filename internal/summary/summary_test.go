package summary

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/kmerdiff/internal/model"
)

const header = "model_short_name\tkmer\tnum_matches\tnum_skips\tnum_stays\tnum_events_for_training\twas_trained\ttrained_level_mean\ttrained_level_stdv\n"

const body = header +
	"t.002\tAA\t10\t0\t1\t10\t1\t80.05\t1.2\n" +
	"t.002\tAC\t20\t1\t0\t20\t1\t85.0\t1.4\n" +
	"c.p1.002\tAA\t3\t0\t0\t3\t0\t70.0\t1.0\n"

func TestParseFromFileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "NA12878.none.r9.oicr.020316.alphabet_nucleotide.summary.tsv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := Parse(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	wantRun := model.RunInfo{
		Sample:        "NA12878",
		Treatment:     "none",
		Pore:          "r9",
		Lab:           "oicr",
		Date:          "020316",
		ShortAlphabet: "nucleotide",
	}
	if diff := cmp.Diff(wantRun, s.Run); diff != "" {
		t.Fatalf("run mismatch (-want +got):\n%s", diff)
	}
	if got := s.ModelNames(); !cmp.Equal(got, []string{"c.p1.002", "t.002"}) {
		t.Fatalf("unexpected models %v", got)
	}
	if s.NumKmers("t.002") != 2 {
		t.Fatalf("expected 2 template kmers, got %d", s.NumKmers("t.002"))
	}
	want := model.TrainedKmerStat{TrainedLevelMean: 85.0, TrainedLevelStdv: 1.4, NumTrainingEvents: 20, WasTrained: true}
	if diff := cmp.Diff(want, s.Models["t.002"]["AC"]); diff != "" {
		t.Fatalf("stat mismatch (-want +got):\n%s", diff)
	}
	if s.Models["c.p1.002"]["AA"].WasTrained {
		t.Fatalf("expected untrained kmer")
	}
	id, err := s.ReferenceIdentity("c.p1.002")
	if err != nil || id != "r9.nucleotide.complement.pop1" {
		t.Fatalf("unexpected identity %q (%v)", id, err)
	}
}

func TestParseHeaderOverridesName(t *testing.T) {
	text := "#sample\tNA19240\n#treatment\tM.SssI\n#pore\tr7\n#lab\tucsc\n#date\t150116\n#alphabet\tcpg\n" + body
	s, err := ParseReader("summary.tsv", strings.NewReader(text))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Run.Sample != "NA19240" || s.Run.Treatment != "M.SssI" || s.Run.ShortAlphabet != "cpg" {
		t.Fatalf("unexpected run %+v", s.Run)
	}
}

func TestParseMalformed(t *testing.T) {
	name := "s.none.r9.oicr.020316.alphabet_nucleotide.tsv"
	tests := []struct {
		name string
		path string
		text string
	}{
		{"missing metadata", "summary.tsv", body},
		{"missing column", name, "model_short_name\tkmer\twas_trained\n"},
		{"bad number", name, header + "t.002\tAA\t1\t0\t0\tx\t1\t80\t1\n"},
		{"bad flag", name, header + "t.002\tAA\t1\t0\t0\t1\tmaybe\t80\t1\n"},
		{"duplicate kmer", name, header + "t.002\tAA\t1\t0\t0\t1\t1\t80\t1\nt.002\tAA\t1\t0\t0\t1\t1\t80\t1\n"},
		{"no models", name, header},
	}
	for _, tt := range tests {
		_, err := ParseReader(tt.path, strings.NewReader(tt.text))
		var malformed *MalformedSummaryError
		if !errors.As(err, &malformed) {
			t.Fatalf("%s: expected MalformedSummaryError, got %v", tt.name, err)
		}
	}
}

func TestRunInfoFromName(t *testing.T) {
	run, err := RunInfoFromName("no-convention.tsv")
	if err != nil || run != (model.RunInfo{}) {
		t.Fatalf("expected empty run info, got %+v (%v)", run, err)
	}

	for _, name := range []string{
		"ecoli.er2925.none.r9.oicr.020316.alphabet_cpg.summary.tsv",
		"ecoli.none.r9.020316.alphabet_cpg.summary.tsv",
	} {
		run, err := RunInfoFromName(name)
		if err == nil {
			t.Fatalf("%s: expected field count error", name)
		}
		if want := (model.RunInfo{ShortAlphabet: "cpg"}); run != want {
			t.Fatalf("%s: expected only the alphabet, got %+v", name, run)
		}
	}
}

func TestParseRejectsWrongFieldCount(t *testing.T) {
	for _, name := range []string{
		"ecoli.er2925.none.r9.oicr.020316.alphabet_nucleotide.summary.tsv",
		"ecoli.none.r9.020316.alphabet_nucleotide.summary.tsv",
	} {
		_, err := ParseReader(name, strings.NewReader(body))
		var malformed *MalformedSummaryError
		if !errors.As(err, &malformed) {
			t.Fatalf("%s: expected MalformedSummaryError, got %v", name, err)
		}
		if !strings.Contains(malformed.Reason, "fields before alphabet_") {
			t.Fatalf("%s: unexpected reason %q", name, malformed.Reason)
		}
	}
}

func TestParseHeadersCompleteShortName(t *testing.T) {
	text := "#sample\tecoli\n#treatment\tnone\n#pore\tr9\n#lab\toicr\n#date\t020316\n" + body
	s, err := ParseReader("ecoli.none.r9.020316.alphabet_nucleotide.summary.tsv", strings.NewReader(text))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := model.RunInfo{Sample: "ecoli", Treatment: "none", Pore: "r9", Lab: "oicr", Date: "020316", ShortAlphabet: "nucleotide"}
	if diff := cmp.Diff(want, s.Run); diff != "" {
		t.Fatalf("run mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNormalizesAlphabet(t *testing.T) {
	s, err := ParseReader("NA12878.none.r9.oicr.020316.alphabet_Nucleotide.summary.tsv", strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Run.ShortAlphabet != "nucleotide" {
		t.Fatalf("expected canonical alphabet, got %q", s.Run.ShortAlphabet)
	}
	id, err := s.ReferenceIdentity("t.002")
	if err != nil || id != "r9.nucleotide.template" {
		t.Fatalf("unexpected identity %q (%v)", id, err)
	}

	_, err = ParseReader("NA12878.none.r9.oicr.020316.alphabet_rna.summary.tsv", strings.NewReader(body))
	var malformed *MalformedSummaryError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedSummaryError for unknown alphabet, got %v", err)
	}
}

func TestParseHeaderValueWithSpaces(t *testing.T) {
	text := "#sample\tE. coli K12\n" + body
	s, err := ParseReader("NA12878.none.r9.oicr.020316.alphabet_nucleotide.summary.tsv", strings.NewReader(text))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Run.Sample != "E. coli K12" {
		t.Fatalf("expected full header value, got %q", s.Run.Sample)
	}
}
