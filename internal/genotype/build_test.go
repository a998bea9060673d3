package genotype

import (
	"errors"
	"testing"
)

func TestParseBuild(t *testing.T) {
	tests := []struct {
		name string
		want Build
	}{
		{"GRCh38", Build38},
		{"GRCh38.p2", Build38},
		{"hg38", Build38},
		{"GRCh37", Build37},
		{"hg19", Build37},
	}
	for _, tt := range tests {
		got, err := ParseBuild(tt.name)
		if err != nil {
			t.Errorf("ParseBuild(%q) failed: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBuild(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestParseBuild_Unknown(t *testing.T) {
	_, err := ParseBuild("NCBI36")
	var unknownErr *UnknownBuildError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("Expected UnknownBuildError, got %v", err)
	}
	if unknownErr.Name != "NCBI36" {
		t.Errorf("Expected build name NCBI36 in error, got %q", unknownErr.Name)
	}
}

func TestResolveBuild_ReferenceLine(t *testing.T) {
	header := []string{
		"##fileformat=VCFv4.2",
		"##reference=file:///refs/GRCh38.fa",
	}
	build, err := ResolveBuild(header)
	if err != nil {
		t.Fatalf("ResolveBuild failed: %v", err)
	}
	if build != Build38 {
		t.Errorf("Expected GRCh38, got %s", build)
	}
}

func TestResolveBuild_ContigAssembly(t *testing.T) {
	header := []string{
		"##fileformat=VCFv4.2",
		"##contig=<ID=1,length=249250621,assembly=GRCh37>",
	}
	build, err := ResolveBuild(header)
	if err != nil {
		t.Fatalf("ResolveBuild failed: %v", err)
	}
	if build != Build37 {
		t.Errorf("Expected GRCh37, got %s", build)
	}
}

func TestResolveBuild_NoMetadataDefaults(t *testing.T) {
	build, err := ResolveBuild([]string{"##fileformat=VCFv4.2"})
	if err != nil {
		t.Fatalf("ResolveBuild failed: %v", err)
	}
	if build != DefaultVCFBuild {
		t.Errorf("Expected default %s, got %s", DefaultVCFBuild, build)
	}
}

func TestResolveBuild_UnknownIsFatal(t *testing.T) {
	header := []string{"##reference=file:///refs/T2T-CHM13.fa"}
	_, err := ResolveBuild(header)
	var unknownErr *UnknownBuildError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("Expected UnknownBuildError, got %v", err)
	}
}
