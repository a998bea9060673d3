package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/snpcrawl/snpcrawl/internal/genotype"
	"github.com/snpcrawl/snpcrawl/internal/snpedia"
)

func matchCall(alleles ...string) *genotype.VariantCall {
	return &genotype.VariantCall{
		Rsid:     "rs4680",
		Chrom:    "chr22",
		Pos:      19963748,
		Genotype: genotype.NewGenotype(alleles...),
	}
}

func matchAnnotation(orientation snpedia.Orientation) *snpedia.Annotation {
	return &snpedia.Annotation{
		Rsid:           "rs4680",
		Orientation:    orientation,
		ReferenceBuild: "GRCh37",
		Summaries: []snpedia.GenotypeSummary{
			{Genotype: genotype.NewGenotype("A", "A"), Magnitude: 2.5, HasMagnitude: true, Description: "worrier"},
			{Genotype: genotype.NewGenotype("A", "G"), Magnitude: 2.5, HasMagnitude: true, Description: "intermediate"},
			{Genotype: genotype.NewGenotype("G", "G"), Magnitude: 2.5, HasMagnitude: true, Description: "warrior"},
		},
	}
}

func TestMatchGenotype_Plus(t *testing.T) {
	m := matchGenotype(matchCall("G", "A"), genotype.Build37, matchAnnotation(snpedia.OrientationPlus), zap.NewNop())
	assert.True(t, m.Found)
	assert.Equal(t, "intermediate", m.Summary.Description, "allele order must not matter")
}

func TestMatchGenotype_MinusComplements(t *testing.T) {
	// Observed (T;C) complements to (A;G) on the page's minus strand.
	m := matchGenotype(matchCall("T", "C"), genotype.Build37, matchAnnotation(snpedia.OrientationMinus), zap.NewNop())
	assert.True(t, m.Found)
	assert.Equal(t, "intermediate", m.Summary.Description)
}

func TestMatchGenotype_StabilizedOrientationWins(t *testing.T) {
	// The page says minus but was re-checked as plus against a newer dbSNP
	// build; the stabilized value governs matching.
	ann := matchAnnotation(snpedia.OrientationMinus)
	ann.StabilizedOrientation = snpedia.OrientationPlus

	m := matchGenotype(matchCall("A", "G"), genotype.Build37, ann, zap.NewNop())
	assert.True(t, m.Found)
	assert.Equal(t, "intermediate", m.Summary.Description)

	// Observed (A;G) complements to (T;C), which is not in the table.
	ann.StabilizedOrientation = snpedia.OrientationMinus
	m = matchGenotype(matchCall("A", "G"), genotype.Build37, ann, zap.NewNop())
	assert.False(t, m.Found)
}

func TestMatchGenotype_NoOrientation(t *testing.T) {
	ann := matchAnnotation("")
	m := matchGenotype(matchCall("A", "G"), genotype.Build37, ann, zap.NewNop())
	assert.False(t, m.Found, "pages without orientation cannot be matched safely")
}

func TestMatchGenotype_BuildMismatch(t *testing.T) {
	ann := matchAnnotation(snpedia.OrientationPlus)
	ann.ReferenceBuild = "GRCh38"
	m := matchGenotype(matchCall("A", "G"), genotype.Build37, ann, zap.NewNop())
	assert.False(t, m.Found)
}

func TestMatchGenotype_NoRowMatches(t *testing.T) {
	m := matchGenotype(matchCall("C", "C"), genotype.Build37, matchAnnotation(snpedia.OrientationPlus), zap.NewNop())
	assert.False(t, m.Found)
}

func TestMatchGenotype_EmptyTable(t *testing.T) {
	ann := &snpedia.Annotation{Rsid: "rs1", Orientation: snpedia.OrientationPlus, ReferenceBuild: "GRCh37"}
	m := matchGenotype(matchCall("A", "G"), genotype.Build37, ann, zap.NewNop())
	assert.False(t, m.Found)
}
