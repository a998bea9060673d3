package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snpcrawl/snpcrawl/internal/genotype"
	"github.com/snpcrawl/snpcrawl/internal/snpedia"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleCall() *genotype.VariantCall {
	return &genotype.VariantCall{
		Rsid:     "rs1815739",
		Chrom:    "chr11",
		Pos:      66560624,
		Genotype: genotype.NewGenotype("C", "T"),
	}
}

func sampleAnnotation() *snpedia.Annotation {
	return &snpedia.Annotation{
		Rsid:        "rs1815739",
		Description: "Muscle performance variant.",
		Orientation: snpedia.OrientationPlus,
		Summaries: []snpedia.GenotypeSummary{
			{Genotype: genotype.NewGenotype("C", "C"), Magnitude: 2.5, HasMagnitude: true, Description: "likely sprinter"},
			{Genotype: genotype.NewGenotype("C", "T"), Magnitude: 2, HasMagnitude: true, Description: "mixed type"},
			{Genotype: genotype.NewGenotype("T", "T"), Description: "likely endurance type"},
		},
	}
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
}

func TestUpsertAndQuery(t *testing.T) {
	s := openInMemory(t)
	ann := sampleAnnotation()

	match := Match{Summary: ann.Summaries[1], Found: true}
	require.NoError(t, s.Upsert(sampleCall(), ann, match))

	entries, err := s.Query(Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "rs1815739", e.Rsid)
	assert.Equal(t, "chr11", e.Chrom)
	assert.Equal(t, int64(66560624), e.Pos)
	assert.Equal(t, "(C;T)", e.Genotype)
	assert.Equal(t, StatusAnnotated, e.Status)
	assert.Equal(t, "Muscle performance variant.", e.Description)
	assert.Equal(t, "(C;T)", e.MatchedGenotype)
	assert.Equal(t, 2.0, e.Magnitude)
	assert.True(t, e.HasMagnitude)
	assert.Equal(t, "mixed type", e.MatchedSummary)
	assert.Equal(t, "plus", e.Orientation)
}

func TestUpsertIdempotent(t *testing.T) {
	s := openInMemory(t)
	ann := sampleAnnotation()
	match := Match{Summary: ann.Summaries[1], Found: true}

	require.NoError(t, s.Upsert(sampleCall(), ann, match))
	require.NoError(t, s.Upsert(sampleCall(), ann, match))

	count, err := s.EntryCount()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	summaries, err := s.Summaries("rs1815739")
	require.NoError(t, err)
	assert.Len(t, summaries, 3)
}

func TestUpsertDropsStaleSummaries(t *testing.T) {
	s := openInMemory(t)
	ann := sampleAnnotation()

	require.NoError(t, s.Upsert(sampleCall(), ann, Match{}))

	// A re-fetched page without the (T;T) row replaces the stored table.
	ann.Summaries = ann.Summaries[:2]
	require.NoError(t, s.Upsert(sampleCall(), ann, Match{}))

	summaries, err := s.Summaries("rs1815739")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "(C;C)", summaries[0].Genotype.String())
	assert.Equal(t, "(C;T)", summaries[1].Genotype.String())
}

func TestUpsertUpgradesPendingEntry(t *testing.T) {
	s := openInMemory(t)
	call := sampleCall()

	require.NoError(t, s.MarkAttempted(call, StatusPending))

	status, err := s.GetStatus(call.Rsid)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)

	ann := sampleAnnotation()
	require.NoError(t, s.Upsert(call, ann, Match{}))

	status, err = s.GetStatus(call.Rsid)
	require.NoError(t, err)
	assert.Equal(t, StatusAnnotated, status)

	// Upgraded in place, never duplicated.
	count, err := s.EntryCount()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMarkAttemptedNotFoundRetained(t *testing.T) {
	s := openInMemory(t)
	call := sampleCall()

	require.NoError(t, s.MarkAttempted(call, StatusNotFound))

	entries, err := s.Query(Filter{Status: StatusNotFound})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "rs1815739", entries[0].Rsid)
}

func TestGetStatusMissing(t *testing.T) {
	s := openInMemory(t)

	status, err := s.GetStatus("rs404")
	require.NoError(t, err)
	assert.Equal(t, Status(""), status)
}

func TestQueryFilters(t *testing.T) {
	s := openInMemory(t)
	ann := sampleAnnotation()

	require.NoError(t, s.Upsert(sampleCall(), ann, Match{Summary: ann.Summaries[0], Found: true}))
	require.NoError(t, s.MarkAttempted(&genotype.VariantCall{
		Rsid: "rs999", Chrom: "chr1", Pos: 100,
		Genotype: genotype.NewGenotype("A", "A"),
	}, StatusNotFound))

	entries, err := s.Query(Filter{Status: StatusAnnotated})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	entries, err = s.Query(Filter{MinMagnitude: 2.0})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "rs1815739", entries[0].Rsid)

	entries, err = s.Query(Filter{MinMagnitude: 3.0})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
