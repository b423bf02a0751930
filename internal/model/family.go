package model

import "strings"

// Family groups trained models by strand and complement population.
type Family int

const (
	// FamilyUnknown marks a short model name that fits no known form.
	FamilyUnknown Family = iota
	// FamilyTemplate is the template strand model ("t.<k>").
	FamilyTemplate
	// FamilyComplementPop1 is the first complement population ("c.p1.<k>").
	FamilyComplementPop1
	// FamilyComplementPop2 is the second complement population ("c.p2.<k>").
	FamilyComplementPop2
)

// Families returns the known families in display order.
func Families() []Family {
	return []Family{FamilyTemplate, FamilyComplementPop1, FamilyComplementPop2}
}

// ClassifyModel maps a short model name ("t.006", "c.p1.006", "c.p2.006")
// to its family. Names that fit none of the forms are FamilyUnknown.
func ClassifyModel(short string) Family {
	parts := strings.Split(strings.TrimSpace(short), ".")
	switch {
	case len(parts) >= 1 && parts[0] == "t":
		return FamilyTemplate
	case len(parts) >= 2 && parts[0] == "c" && parts[1] == "p1":
		return FamilyComplementPop1
	case len(parts) >= 2 && parts[0] == "c" && parts[1] == "p2":
		return FamilyComplementPop2
	default:
		return FamilyUnknown
	}
}

// Label is the short group marker used in short model names.
func (f Family) Label() string {
	switch f {
	case FamilyTemplate:
		return "t"
	case FamilyComplementPop1:
		return "c.p1"
	case FamilyComplementPop2:
		return "c.p2"
	default:
		return "?"
	}
}

// Strand is the strand part of a reference identity.
func (f Family) Strand() string {
	switch f {
	case FamilyTemplate:
		return "template"
	case FamilyComplementPop1:
		return "complement.pop1"
	case FamilyComplementPop2:
		return "complement.pop2"
	default:
		return ""
	}
}

// DisplayName is the human-readable family name used in reports.
func (f Family) DisplayName() string {
	switch f {
	case FamilyTemplate:
		return "template"
	case FamilyComplementPop1:
		return "complement.pop1"
	case FamilyComplementPop2:
		return "complement.pop2"
	default:
		return "unknown"
	}
}

func (f Family) String() string {
	return f.DisplayName()
}
