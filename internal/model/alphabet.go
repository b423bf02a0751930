package model

import (
	"fmt"
	"strings"
)

// Alphabet is a named set of symbols k-mers are drawn from.
type Alphabet struct {
	Name    string
	Symbols string
}

var (
	// Nucleotide is the plain DNA alphabet.
	Nucleotide = Alphabet{Name: "nucleotide", Symbols: "ACGT"}
	// CpG adds M for 5-methylcytosine in a CpG context.
	CpG = Alphabet{Name: "cpg", Symbols: "ACGMT"}
)

var alphabets = map[string]Alphabet{
	Nucleotide.Name: Nucleotide,
	CpG.Name:        CpG,
}

// LookupAlphabet returns the alphabet with the given name.
func LookupAlphabet(name string) (Alphabet, error) {
	a, ok := alphabets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Alphabet{}, fmt.Errorf("unknown alphabet %q", name)
	}
	return a, nil
}

// Len returns the number of symbols.
func (a Alphabet) Len() int {
	return len(a.Symbols)
}

// Contains reports whether every byte of kmer is in the alphabet.
func (a Alphabet) Contains(kmer string) bool {
	for i := 0; i < len(kmer); i++ {
		if strings.IndexByte(a.Symbols, kmer[i]) < 0 {
			return false
		}
	}
	return true
}

// NumKmers returns Len()^k.
func (a Alphabet) NumKmers(k int) int {
	if k < 0 {
		return 0
	}
	n := 1
	for i := 0; i < k; i++ {
		n *= a.Len()
	}
	return n
}

// Enumerate lists every k-mer over the alphabet in lexicographic order.
func (a Alphabet) Enumerate(k int) []string {
	if k <= 0 || a.Len() == 0 {
		return nil
	}
	out := make([]string, 0, a.NumKmers(k))
	buf := make([]byte, k)
	var rec func(pos int)
	rec = func(pos int) {
		if pos == k {
			out = append(out, string(buf))
			return
		}
		for i := 0; i < a.Len(); i++ {
			buf[pos] = a.Symbols[i]
			rec(pos + 1)
		}
	}
	rec(0)
	return out
}
