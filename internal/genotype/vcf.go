package genotype

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// VCFReader reads genotype calls from a VCF file, plain or gzipped.
// It consumes the first sample column; multi-sample files are not split.
type VCFReader struct {
	file       *os.File
	gzipReader *gzip.Reader
	reader     *bufio.Reader
	header     []string
	build      Build
	lineNumber int
	logger     *zap.Logger
}

// NewVCFReader opens a VCF file, transparently decompressing gzip content.
// The reference build is resolved from header metadata unless declaredBuild
// overrides it.
func NewVCFReader(path string, declaredBuild Build) (*VCFReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	r := &VCFReader{file: file, logger: zap.NewNop()}

	// Check for gzip magic bytes, then rewind.
	buf := make([]byte, 2)
	if _, err := io.ReadFull(file, buf); err != nil {
		file.Close()
		return nil, &UnsupportedFormatError{Path: path, Reason: "file too short to be a VCF"}
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek vcf file: %w", err)
	}

	if buf[0] == 0x1f && buf[1] == 0x8b {
		r.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r.reader = bufio.NewReader(r.gzipReader)
	} else {
		r.reader = bufio.NewReader(file)
	}

	if err := r.parseHeader(path); err != nil {
		r.Close()
		return nil, err
	}

	if declaredBuild != "" {
		r.build = declaredBuild
	} else {
		build, err := ResolveBuild(r.header)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.build = build
	}

	return r, nil
}

// SetLogger sets the logger used for skipped-record warnings.
func (r *VCFReader) SetLogger(l *zap.Logger) {
	r.logger = l
}

// parseHeader consumes ## and #CHROM header lines.
func (r *VCFReader) parseHeader(path string) error {
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("read vcf header: %w", err)
		}
		r.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(line, "##") {
			r.header = append(r.header, line)
			continue
		}
		if strings.HasPrefix(line, "#CHROM") {
			r.header = append(r.header, line)
			return nil
		}
		return &UnsupportedFormatError{Path: path, Reason: "expected #CHROM header line"}
	}
	return &UnsupportedFormatError{Path: path, Reason: "no #CHROM header line found"}
}

// Next reads the next called variant. Records without an rs identifier or
// without a called genotype are skipped. Returns nil, nil at EOF.
func (r *VCFReader) Next() (*VariantCall, error) {
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read vcf line: %w", err)
		}
		if line == "" && err == io.EOF {
			return nil, nil
		}
		r.lineNumber++

		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed != "" {
			call, ok := r.parseLine(trimmed)
			if ok {
				return call, nil
			}
		}
		if err == io.EOF {
			return nil, nil
		}
	}
}

func (r *VCFReader) parseLine(line string) (*VariantCall, bool) {
	fields := strings.Split(line, "\t")
	if len(fields) < 10 {
		r.logger.Warn("skipping vcf line without sample column",
			zap.Int("line", r.lineNumber),
			zap.Int("fields", len(fields)))
		return nil, false
	}

	id := fields[2]
	if id == "." {
		return nil, false
	}
	// Multiple IDs may be semicolon- or comma-separated; keep the rs one.
	rsid := ""
	for _, candidate := range strings.FieldsFunc(id, func(c rune) bool { return c == ';' || c == ',' }) {
		if strings.HasPrefix(strings.ToLower(candidate), "rs") {
			rsid = strings.ToLower(candidate)
			break
		}
	}
	if rsid == "" {
		return nil, false
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		r.logger.Warn("skipping vcf line with invalid position",
			zap.Int("line", r.lineNumber),
			zap.String("position", fields[1]))
		return nil, false
	}

	gt, ok := resolveGenotype(fields[3], fields[4], fields[8], fields[9])
	if !ok {
		return nil, false
	}

	return &VariantCall{
		Rsid:     rsid,
		Chrom:    NormalizeChrom(fields[0]),
		Pos:      pos,
		Genotype: gt,
	}, true
}

// resolveGenotype translates the GT field of the first sample into observed
// alleles using REF and ALT. No-calls ("./.") report ok=false.
func resolveGenotype(ref, alt, format, sample string) (Genotype, bool) {
	gtIndex := -1
	for i, key := range strings.Split(format, ":") {
		if key == "GT" {
			gtIndex = i
			break
		}
	}
	if gtIndex < 0 {
		return Genotype{}, false
	}

	sampleFields := strings.Split(sample, ":")
	if gtIndex >= len(sampleFields) {
		return Genotype{}, false
	}
	gt := sampleFields[gtIndex]

	options := append([]string{ref}, strings.Split(alt, ",")...)

	var out []string
	for _, idx := range strings.FieldsFunc(gt, func(c rune) bool { return c == '/' || c == '|' }) {
		if idx == "." {
			return Genotype{}, false
		}
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 || n >= len(options) {
			return Genotype{}, false
		}
		out = append(out, options[n])
	}
	if len(out) == 0 {
		return Genotype{}, false
	}
	return NewGenotype(out...), true
}

// Build returns the reference build of the file's coordinates.
func (r *VCFReader) Build() Build {
	return r.build
}

// Header returns the raw VCF header lines.
func (r *VCFReader) Header() []string {
	return r.header
}

// LineNumber returns the current line number being processed.
func (r *VCFReader) LineNumber() int {
	return r.lineNumber
}

// Close closes the reader and underlying file.
func (r *VCFReader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
