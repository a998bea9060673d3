// Package genotype provides genotype file parsing and core variant types.
package genotype

import (
	"fmt"
	"strings"
)

// complements maps each nucleotide to its complement on the opposite strand.
var complements = map[byte]byte{
	'A': 'T',
	'T': 'A',
	'C': 'G',
	'G': 'C',
}

// ComplementAllele returns the reverse-strand form of an allele.
// Characters without a defined complement (e.g. "D", "I") pass through.
func ComplementAllele(allele string) string {
	b := []byte(allele)
	for i := range b {
		if c, ok := complements[b[i]]; ok {
			b[i] = c
		}
	}
	return string(b)
}

// Genotype is the observed allele pair at a variant position.
// Most positions are diploid, so Alleles usually has two elements.
type Genotype struct {
	Alleles []string
}

// ParseGenotype parses SNPedia's "(A;G)" notation.
func ParseGenotype(s string) (Genotype, error) {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return Genotype{}, fmt.Errorf("invalid genotype %q: expected (A;B) notation", s)
	}
	return Genotype{Alleles: strings.Split(s[1:len(s)-1], ";")}, nil
}

// NewGenotype builds a Genotype from raw alleles.
func NewGenotype(alleles ...string) Genotype {
	return Genotype{Alleles: alleles}
}

// String renders the genotype in SNPedia's "(A;G)" notation.
func (g Genotype) String() string {
	return "(" + strings.Join(g.Alleles, ";") + ")"
}

// IsCalled reports whether the genotype carries at least one observed allele.
// Microarray no-calls are reported as "-" per allele.
func (g Genotype) IsCalled() bool {
	if len(g.Alleles) == 0 {
		return false
	}
	for _, a := range g.Alleles {
		if a != "" && a != "-" && a != "." {
			return true
		}
	}
	return false
}

// Complement returns the genotype with every allele complemented.
// Used when the remote annotation is reported on the minus strand.
func (g Genotype) Complement() Genotype {
	out := make([]string, len(g.Alleles))
	for i, a := range g.Alleles {
		out[i] = ComplementAllele(a)
	}
	return Genotype{Alleles: out}
}

// UnorderedEqual compares two genotypes ignoring allele order. Consumer
// files and SNPedia do not agree on allele ordering, so (A;G) matches (G;A).
func (g Genotype) UnorderedEqual(other Genotype) bool {
	if len(g.Alleles) != len(other.Alleles) {
		return false
	}

	switch len(g.Alleles) {
	case 1:
		return g.Alleles[0] == other.Alleles[0]
	case 2:
		return (g.Alleles[0] == other.Alleles[0] && g.Alleles[1] == other.Alleles[1]) ||
			(g.Alleles[0] == other.Alleles[1] && g.Alleles[1] == other.Alleles[0])
	}

	counts := make(map[string]int, len(g.Alleles))
	for _, a := range g.Alleles {
		counts[a]++
	}
	for _, a := range other.Alleles {
		counts[a]--
		if counts[a] < 0 {
			return false
		}
	}
	return true
}

// Zygosity classifies an allele pair as homozygous or heterozygous.
// Genotypes with fewer than two alleles (hemizygous calls) report "hemizygous".
func (g Genotype) Zygosity() string {
	if len(g.Alleles) < 2 {
		return "hemizygous"
	}
	if g.Alleles[0] == g.Alleles[1] {
		return "homozygous"
	}
	return "heterozygous"
}
