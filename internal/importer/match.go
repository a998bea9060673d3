package importer

import (
	"go.uber.org/zap"

	"github.com/snpcrawl/snpcrawl/internal/genotype"
	"github.com/snpcrawl/snpcrawl/internal/snpedia"
	"github.com/snpcrawl/snpcrawl/internal/store"
)

// matchGenotype resolves the user's observed genotype against a page's
// genotype table. SNPedia reports genotypes on its own strand orientation:
// minus-oriented pages need the user's alleles complemented before lookup.
// Pages without an orientation row, or whose reference build differs from
// the input file's, yield no match; the annotation is still stored.
func matchGenotype(call *genotype.VariantCall, fileBuild genotype.Build, ann *snpedia.Annotation, logger *zap.Logger) store.Match {
	if len(ann.Summaries) == 0 {
		return store.Match{}
	}

	if ann.Build() != fileBuild {
		logger.Warn("reference build mismatch, skipping genotype match",
			zap.String("rsid", call.Rsid),
			zap.String("file_build", string(fileBuild)),
			zap.String("page_build", string(ann.Build())))
		return store.Match{}
	}

	var oriented genotype.Genotype
	switch ann.EffectiveOrientation() {
	case snpedia.OrientationPlus:
		oriented = call.Genotype
	case snpedia.OrientationMinus:
		oriented = call.Genotype.Complement()
	default:
		return store.Match{}
	}

	for _, summary := range ann.Summaries {
		if oriented.UnorderedEqual(summary.Genotype) {
			return store.Match{Summary: summary, Found: true}
		}
	}

	// A three-row table usually enumerates every possible genotype, so a
	// miss there points at an orientation or build problem worth surfacing.
	if len(ann.Summaries) == 3 {
		logger.Warn("genotype not found in page table",
			zap.String("rsid", call.Rsid),
			zap.Stringer("genotype", call.Genotype),
			zap.String("orientation", string(ann.EffectiveOrientation())))
	}
	return store.Match{}
}
