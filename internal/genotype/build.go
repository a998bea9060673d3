package genotype

import (
	"fmt"
	"strings"
)

// Build identifies the reference genome coordinate system of an input file.
type Build string

const (
	Build37 Build = "GRCh37"
	Build38 Build = "GRCh38"
)

// DefaultVCFBuild is assumed when a VCF carries no recognizable reference
// metadata. Historically consumer VCF exports have been GRCh38.
const DefaultVCFBuild = Build38

// MicroarrayBuild is the coordinate system of 23andMe raw exports.
const MicroarrayBuild = Build37

// UnknownBuildError reports reference metadata naming a build this tool has
// no coordinate mapping for. Fatal for the affected file.
type UnknownBuildError struct {
	Name string
}

func (e *UnknownBuildError) Error() string {
	return fmt.Sprintf("unknown reference build %q (supported: GRCh37, GRCh38)", e.Name)
}

// ParseBuild maps a declared build name to a supported Build.
// SNPedia and VCF headers are sometimes more specific (e.g. "GRCh38.p2");
// the patch suffix is ignored.
func ParseBuild(name string) (Build, error) {
	switch {
	case name == "":
		return "", &UnknownBuildError{Name: name}
	case strings.HasPrefix(name, "GRCh38"), hasFold(name, "hg38"), hasFold(name, "b38"):
		return Build38, nil
	case strings.HasPrefix(name, "GRCh37"), hasFold(name, "hg19"), hasFold(name, "b37"):
		return Build37, nil
	}
	return "", &UnknownBuildError{Name: name}
}

// ResolveBuild inspects VCF header lines and returns the build the file's
// coordinates use. It recognizes ##reference= lines and assembly= fields on
// ##contig lines. Files without any build metadata get DefaultVCFBuild.
func ResolveBuild(headerLines []string) (Build, error) {
	for _, line := range headerLines {
		if name, ok := strings.CutPrefix(line, "##reference="); ok {
			return ParseBuild(referenceName(name))
		}
		if strings.HasPrefix(line, "##contig=") {
			if name := contigAssembly(line); name != "" {
				return ParseBuild(name)
			}
		}
	}
	return DefaultVCFBuild, nil
}

// referenceName strips URI scheme and path from a ##reference value, keeping
// the file stem ("file:///refs/GRCh38.fa" -> "GRCh38").
func referenceName(value string) string {
	if i := strings.LastIndexByte(value, '/'); i >= 0 {
		value = value[i+1:]
	}
	for _, suffix := range []string{".fa.gz", ".fasta.gz", ".fa", ".fasta"} {
		if s, ok := strings.CutSuffix(value, suffix); ok {
			return s
		}
	}
	return value
}

// contigAssembly extracts the assembly= field from a ##contig header line.
func contigAssembly(line string) string {
	start := strings.Index(line, "assembly=")
	if start < 0 {
		return ""
	}
	rest := line[start+len("assembly="):]
	end := strings.IndexAny(rest, ",>")
	if end < 0 {
		return rest
	}
	return rest[:end]
}

func hasFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), sub)
}
