package genotype

import (
	"fmt"
	"os"
	"strings"
)

// VariantCall is one genotype observation from an input file.
type VariantCall struct {
	Rsid     string   // stable external key, lowercase (e.g. "rs1815739")
	Chrom    string   // chromosome in "chr1".."chr22", "chrX", "chrY", "chrM" form
	Pos      int64    // 1-based position in the file's reference build
	Genotype Genotype // observed allele pair
}

// NormalizeChrom converts the short chromosome form used by consumer files
// ("1", "MT") into the "chr"-prefixed convention used everywhere else.
func NormalizeChrom(chrom string) string {
	if strings.HasPrefix(chrom, "chr") {
		return chrom
	}
	if chrom == "MT" {
		return "chrM"
	}
	return "chr" + chrom
}

// Format names a supported input file format.
type Format string

const (
	FormatMicroarray Format = "23andme"
	FormatVCF        Format = "vcf"
)

// UnsupportedFormatError reports a file whose declared or detected format
// cannot be parsed at all. Fatal for the run.
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported input format for %s: %s", e.Path, e.Reason)
}

// CallReader produces VariantCalls in file order.
// Both the 23andMe and VCF readers implement this interface.
type CallReader interface {
	// Next reads the next call. Returns nil, nil when the file is exhausted.
	Next() (*VariantCall, error)

	// Build returns the reference build the file's coordinates use.
	Build() Build

	// LineNumber returns the current line number being processed.
	LineNumber() int

	// Close releases the underlying file handles.
	Close() error
}

// DetectFormat determines the input format from the file extension, falling
// back to sniffing the first bytes of content.
func DetectFormat(path string) (Format, error) {
	lower := strings.ToLower(path)
	if s, ok := strings.CutSuffix(lower, ".gz"); ok {
		lower = s
	}
	if strings.HasSuffix(lower, ".vcf") {
		return FormatVCF, nil
	}
	if strings.HasSuffix(lower, ".txt") {
		return FormatMicroarray, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open input file: %w", err)
	}
	defer file.Close()

	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil || n == 0 {
		return "", &UnsupportedFormatError{Path: path, Reason: "file is empty or unreadable"}
	}
	content := string(buf[:n])

	// Gzipped content is only expected for VCF input.
	if buf[0] == 0x1f && n > 1 && buf[1] == 0x8b {
		return FormatVCF, nil
	}
	if strings.HasPrefix(content, "##fileformat=VCF") || strings.HasPrefix(content, "#CHROM") {
		return FormatVCF, nil
	}
	// 23andMe raw exports open with a commented banner mentioning the format,
	// or go straight into rsid-keyed rows.
	if strings.Contains(content, "# rsid") || strings.HasPrefix(content, "rs") {
		return FormatMicroarray, nil
	}

	return "", &UnsupportedFormatError{Path: path, Reason: "neither VCF nor 23andMe header present"}
}

// NewReader opens a CallReader for the given path and format. An empty
// format triggers auto-detection. declaredBuild overrides the build that
// would otherwise be resolved from the file; pass "" to auto-resolve.
func NewReader(path string, format Format, declaredBuild Build) (CallReader, error) {
	if format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	switch format {
	case FormatMicroarray:
		return NewMicroarrayReader(path, declaredBuild)
	case FormatVCF:
		return NewVCFReader(path, declaredBuild)
	default:
		return nil, &UnsupportedFormatError{Path: path, Reason: fmt.Sprintf("unknown format %q", format)}
	}
}
