package report

import (
	"strings"

	"github.com/dustin/go-humanize"
)

var treatmentNames = map[string]string{
	"none":   "untreated",
	"pcr":    "PCR",
	"mssssi": "M.SssI",
	"m.sssi": "M.SssI",
}

var sampleNames = map[string]string{
	"ecoli":        "E. coli",
	"ecoli_er2925": "E. coli",
	"na12878":      "NA12878",
	"human":        "Human",
}

// DisplayTreatment returns the report name for a treatment code.
func DisplayTreatment(treatment string) string {
	if name, ok := treatmentNames[strings.ToLower(treatment)]; ok {
		return name
	}
	return treatment
}

// DisplaySample returns the report name for a sample code.
func DisplaySample(sample string) string {
	if name, ok := sampleNames[strings.ToLower(sample)]; ok {
		return name
	}
	return sample
}

// DisplayNumber formats a count with thousands separators.
func DisplayNumber(n int) string {
	return humanize.Comma(int64(n))
}

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"_", `\_`,
	"%", `\%`,
	"&", `\&`,
	"#", `\#`,
	"$", `\$`,
	"{", `\{`,
	"}", `\}`,
)

func escapeLaTeX(s string) string {
	return latexEscaper.Replace(s)
}
