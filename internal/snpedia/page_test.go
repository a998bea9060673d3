package snpedia

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageFixture = `<html><body>
<table style="border: 1px; background-color: #FFFFC0; border-style: solid; margin:1em; width:90%;">
<tr><td>A well-studied variant associated with muscle performance.</td></tr>
</table>
<table class="sortable smwtable">
<tr><th>Genotype</th><th>Magnitude</th><th>Summary</th></tr>
<tr><td>(C;C)</td><td>2.5</td><td>likely sprinter</td></tr>
<tr><td>(C;T)</td><td>2</td><td>mixed type</td></tr>
<tr><td>(T;T)</td><td></td><td>likely endurance type</td></tr>
</table>
<table>
<tr><td><a href="/index.php/Orientation" title="Orientation">Orientation</a></td><td>minus</td></tr>
<tr><td>Rs_StabilizedOrientation</td><td>plus</td></tr>
<tr><td>Reference</td><td><a href="/index.php/GRCh38">GRCh38</a></td></tr>
</table>
</body></html>`

func TestParsePage(t *testing.T) {
	ann, err := ParsePage("rs1815739", strings.NewReader(pageFixture))
	require.NoError(t, err)

	assert.Equal(t, "rs1815739", ann.Rsid)
	assert.Equal(t, "A well-studied variant associated with muscle performance.", ann.Description)
	assert.Equal(t, OrientationMinus, ann.Orientation)
	assert.Equal(t, OrientationPlus, ann.StabilizedOrientation)
	assert.Equal(t, "GRCh38", ann.ReferenceBuild)

	require.Len(t, ann.Summaries, 3)
	assert.Equal(t, "(C;C)", ann.Summaries[0].Genotype.String())
	assert.Equal(t, 2.5, ann.Summaries[0].Magnitude)
	assert.True(t, ann.Summaries[0].HasMagnitude)
	assert.Equal(t, "likely sprinter", ann.Summaries[0].Description)

	// Empty magnitude cell stays unset rather than zero-with-meaning.
	assert.False(t, ann.Summaries[2].HasMagnitude)
	assert.Equal(t, "likely endurance type", ann.Summaries[2].Description)
}

func TestParsePage_SparsePage(t *testing.T) {
	// Markup drift or stub pages must degrade to zero values, not errors.
	ann, err := ParsePage("rs999", strings.NewReader("<html><body><p>stub</p></body></html>"))
	require.NoError(t, err)

	assert.Empty(t, ann.Description)
	assert.Empty(t, ann.Summaries)
	assert.Empty(t, string(ann.Orientation))
	assert.Empty(t, ann.ReferenceBuild)
}

func TestAnnotationBuild_Default(t *testing.T) {
	ann := &Annotation{Rsid: "rs1"}
	assert.Equal(t, "GRCh38", string(ann.Build()))

	ann.ReferenceBuild = "GRCh37"
	assert.Equal(t, "GRCh37", string(ann.Build()))

	// Patch suffixes are ignored.
	ann.ReferenceBuild = "GRCh38.p2"
	assert.Equal(t, "GRCh38", string(ann.Build()))
}

func TestIsMissingPage(t *testing.T) {
	assert.True(t, IsMissingPage([]byte(`<div class="noarticletext">...</div>`)))
	assert.True(t, IsMissingPage([]byte("There is currently no text in this page.")))
	assert.False(t, IsMissingPage([]byte(pageFixture)))
}
