package genotype

import "testing"

func TestParseGenotype(t *testing.T) {
	gt, err := ParseGenotype("(A;G)")
	if err != nil {
		t.Fatalf("ParseGenotype failed: %v", err)
	}
	if len(gt.Alleles) != 2 || gt.Alleles[0] != "A" || gt.Alleles[1] != "G" {
		t.Errorf("Expected alleles [A G], got %v", gt.Alleles)
	}
	if gt.String() != "(A;G)" {
		t.Errorf("Expected round-trip (A;G), got %s", gt.String())
	}
}

func TestParseGenotype_Invalid(t *testing.T) {
	for _, input := range []string{"", "AG", "(A;G", "A;G)"} {
		if _, err := ParseGenotype(input); err == nil {
			t.Errorf("Expected error for %q", input)
		}
	}
}

func TestGenotype_Complement(t *testing.T) {
	gt := NewGenotype("A", "C")
	comp := gt.Complement()
	if comp.String() != "(T;G)" {
		t.Errorf("Expected (T;G), got %s", comp.String())
	}

	// Insertion/deletion markers have no complement and pass through.
	gt = NewGenotype("D", "I")
	if got := gt.Complement().String(); got != "(D;I)" {
		t.Errorf("Expected (D;I), got %s", got)
	}
}

func TestGenotype_UnorderedEqual(t *testing.T) {
	tests := []struct {
		a, b  Genotype
		equal bool
	}{
		{NewGenotype("A", "G"), NewGenotype("A", "G"), true},
		{NewGenotype("A", "G"), NewGenotype("G", "A"), true},
		{NewGenotype("A", "G"), NewGenotype("A", "A"), false},
		{NewGenotype("A"), NewGenotype("A"), true},
		{NewGenotype("A"), NewGenotype("A", "A"), false},
		{NewGenotype("A", "A"), NewGenotype("A", "G"), false},
	}

	for _, tt := range tests {
		if got := tt.a.UnorderedEqual(tt.b); got != tt.equal {
			t.Errorf("%s UnorderedEqual %s = %v, want %v", tt.a, tt.b, got, tt.equal)
		}
	}
}

func TestGenotype_IsCalled(t *testing.T) {
	if NewGenotype("-", "-").IsCalled() {
		t.Error("(-;-) should not count as called")
	}
	if !NewGenotype("A", "-").IsCalled() {
		t.Error("(A;-) should count as called")
	}
	if NewGenotype().IsCalled() {
		t.Error("empty genotype should not count as called")
	}
}

func TestGenotype_Zygosity(t *testing.T) {
	if got := NewGenotype("A", "A").Zygosity(); got != "homozygous" {
		t.Errorf("Expected homozygous, got %s", got)
	}
	if got := NewGenotype("A", "G").Zygosity(); got != "heterozygous" {
		t.Errorf("Expected heterozygous, got %s", got)
	}
	if got := NewGenotype("A").Zygosity(); got != "hemizygous" {
		t.Errorf("Expected hemizygous, got %s", got)
	}
}

func TestNormalizeChrom(t *testing.T) {
	tests := []struct{ in, want string }{
		{"1", "chr1"},
		{"MT", "chrM"},
		{"X", "chrX"},
		{"chr7", "chr7"},
	}
	for _, tt := range tests {
		if got := NormalizeChrom(tt.in); got != tt.want {
			t.Errorf("NormalizeChrom(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
