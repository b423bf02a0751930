package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/kmerdiff/internal/model"
)

type fixture struct {
	dir     string
	fofn    string
	summary string
	config  string
	db      string
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	kmers := model.Nucleotide.Enumerate(2)

	var ref strings.Builder
	ref.WriteString("#pore\tr9\n#alphabet\tnucleotide\n#strand\ttemplate\n#k\t2\n")
	ref.WriteString("kmer\tlevel_mean\tlevel_stdv\n")
	means := map[string]float64{}
	for i, kmer := range kmers {
		means[kmer] = 60 + float64(i)*0.5
		fmt.Fprintf(&ref, "%s\t%.2f\t1.5\n", kmer, means[kmer])
	}
	writeFile(t, filepath.Join(dir, "template.model"), ref.String())
	fofn := filepath.Join(dir, "ont.alphabet_nucleotide.fofn")
	writeFile(t, fofn, "# reference models\ntemplate.model\n")

	var sum strings.Builder
	sum.WriteString("model_short_name\tkmer\tnum_events_for_training\twas_trained\ttrained_level_mean\ttrained_level_stdv\n")
	for _, kmer := range kmers {
		events, trained, mean := 0, 0, means[kmer]
		switch kmer {
		case "AA":
			events, trained = 10, 1
		case "AC":
			events, trained, mean = 20, 1, mean+3.0
		}
		fmt.Fprintf(&sum, "t.002\t%s\t%d\t%d\t%.2f\t1.0\n", kmer, events, trained, mean)
	}
	summaryPath := filepath.Join(dir, "NA12878.none.r9.oicr.020316.alphabet_nucleotide.summary.tsv")
	writeFile(t, summaryPath, sum.String())

	return fixture{
		dir:     dir,
		fofn:    fofn,
		summary: summaryPath,
		config:  filepath.Join(dir, "missing-config.toml"),
		db:      filepath.Join(dir, "history.db"),
	}
}

func (f fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", f.config, "--db", f.db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestReportTextTable(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "report", "--treatment", "none", "--alphabet", "nucleotide",
		"--models", f.fofn, "--format", "text", f.summary)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	lines := strings.Split(out, "\n")
	if len(lines) < 3 || lines[1] != "template (1)" {
		t.Fatalf("unexpected output:\n%s", out)
	}
	fields := strings.Fields(lines[2])
	want := []string{"NA12878", "(untreated)", "R9", "oicr", "020316", "30", "2", "1", "1", "1", "1", "0"}
	if strings.Join(fields, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected row %q", lines[2])
	}
	if !strings.Contains(out, "Model training results for untreated DNA over the nucleotide alphabet.") {
		t.Fatalf("expected caption in output:\n%s", out)
	}
}

func TestReportLaTeXDefault(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "report", "--treatment", "none", "--alphabet", "nucleotide",
		"--models", f.fofn, f.summary)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	for _, want := range []string{`\begin{table}`, `\multirow{1}{*}{template}`, `\end{table}`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestReportRejectsUnknownAlphabet(t *testing.T) {
	f := newFixture(t)
	_, err := f.run(t, "report", "--treatment", "none", "--alphabet", "rna",
		"--models", f.fofn, f.summary)
	if err == nil || !strings.Contains(err.Error(), "--alphabet") {
		t.Fatalf("expected alphabet error, got %v", err)
	}
}

func TestSaveThenHistory(t *testing.T) {
	f := newFixture(t)
	if _, err := f.run(t, "report", "--treatment", "none", "--alphabet", "nucleotide",
		"--models", f.fofn, "--format", "text", "--save", f.summary); err != nil {
		t.Fatalf("report --save: %v", err)
	}
	out, err := f.run(t, "history", "--treatment", "none", "--alphabet", "nucleotide", "--format", "text")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "NA12878 (untreated)") || !strings.Contains(out, "template (1)") {
		t.Fatalf("expected saved row in history:\n%s", out)
	}

	out, err = f.run(t, "history", "--treatment", "M.SssI", "--alphabet", "nucleotide", "--format", "text")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if strings.Contains(out, "NA12878") {
		t.Fatalf("expected no rows for other treatment:\n%s", out)
	}
}

func TestModelsListing(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "models", "--models", f.fofn)
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	if !strings.HasPrefix(out, "r9.nucleotide.template\tk=2\tkmers=16\t") {
		t.Fatalf("unexpected listing %q", out)
	}
}

func TestConfigSuppliesFofns(t *testing.T) {
	f := newFixture(t)
	f.config = filepath.Join(f.dir, "config.toml")
	writeFile(t, f.config, fmt.Sprintf("[reference]\nfofns = [%q]\n\n[report]\nformat = \"text\"\n", f.fofn))
	out, err := f.run(t, "report", "--treatment", "none", "--alphabet", "nucleotide", f.summary)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, "template (1)") {
		t.Fatalf("expected text table from config format:\n%s", out)
	}
}

func TestReportAlphabetFlagIgnoresCase(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "report", "--treatment", "none", "--alphabet", "Nucleotide",
		"--models", f.fofn, "--format", "text", f.summary)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, "NA12878 (untreated)") {
		t.Fatalf("expected row for mixed-case alphabet:\n%s", out)
	}
}

func TestReportSummaryAlphabetIgnoresCase(t *testing.T) {
	f := newFixture(t)
	renamed := filepath.Join(f.dir, "NA12878.none.r9.oicr.020316.alphabet_Nucleotide.summary.tsv")
	if err := os.Rename(f.summary, renamed); err != nil {
		t.Fatalf("rename: %v", err)
	}
	out, err := f.run(t, "report", "--treatment", "none", "--alphabet", "nucleotide",
		"--models", f.fofn, "--format", "text", renamed)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, "NA12878 (untreated)") {
		t.Fatalf("expected row for mixed-case summary alphabet:\n%s", out)
	}
}

func TestSaveSummariesWithSameRun(t *testing.T) {
	f := newFixture(t)
	content, err := os.ReadFile(f.summary)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	copyDir := filepath.Join(f.dir, "rerun")
	if err := os.MkdirAll(copyDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	second := filepath.Join(copyDir, filepath.Base(f.summary))
	writeFile(t, second, string(content))

	if _, err := f.run(t, "report", "--treatment", "none", "--alphabet", "nucleotide",
		"--models", f.fofn, "--format", "text", "--save", f.summary, second); err != nil {
		t.Fatalf("report --save: %v", err)
	}
	out, err := f.run(t, "history", "--treatment", "none", "--alphabet", "nucleotide", "--format", "text")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "template (1)") {
		t.Fatalf("expected the later save to replace the earlier one:\n%s", out)
	}
}
