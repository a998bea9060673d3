// Package snpedia fetches and parses per-variant annotation pages from the
// SNPedia wiki.
package snpedia

import "github.com/snpcrawl/snpcrawl/internal/genotype"

// Orientation is the strand orientation a SNPedia page reports genotypes in.
type Orientation string

const (
	OrientationPlus  Orientation = "plus"
	OrientationMinus Orientation = "minus"
)


// GenotypeSummary is one row of a page's genotype table: a possible allele
// pair with its interpretation and magnitude.
type GenotypeSummary struct {
	Genotype     genotype.Genotype
	Magnitude    float64
	HasMagnitude bool
	Description  string
}

// Annotation is the structured content of one SNPedia variant page.
type Annotation struct {
	Rsid                  string
	Description           string // reputation/summary text from the page banner
	Summaries             []GenotypeSummary
	Orientation           Orientation // zero value when the page omits it
	StabilizedOrientation Orientation
	ReferenceBuild        string // build name as printed on the page, e.g. "GRCh38"
}

// EffectiveOrientation is the strand the page's genotype table is written
// in. Pages re-checked against a newer dbSNP build carry a stabilized
// orientation that supersedes the plain orientation row.
func (a *Annotation) EffectiveOrientation() Orientation {
	if a.StabilizedOrientation != "" {
		return a.StabilizedOrientation
	}
	return a.Orientation
}

// Build returns the page's reference build, defaulting to GRCh38 when the
// page does not state one. SNPedia sometimes prints a more specific name
// ("GRCh38.p2"); ParseBuild ignores the patch suffix.
func (a *Annotation) Build() genotype.Build {
	if a.ReferenceBuild == "" {
		return genotype.Build38
	}
	b, err := genotype.ParseBuild(a.ReferenceBuild)
	if err != nil {
		return genotype.Build38
	}
	return b
}
