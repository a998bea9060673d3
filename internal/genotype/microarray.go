package genotype

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// MicroarrayReader reads 23andMe raw data exports: tab-separated lines of
// rsid, chromosome, position and genotype, with a commented banner on top.
type MicroarrayReader struct {
	file       *os.File
	reader     *bufio.Reader
	build      Build
	lineNumber int
	logger     *zap.Logger
}

// NewMicroarrayReader opens a 23andMe raw data file. 23andMe exports use
// GRCh37 coordinates unless the caller declares otherwise.
func NewMicroarrayReader(path string, declaredBuild Build) (*MicroarrayReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open 23andme file: %w", err)
	}

	build := MicroarrayBuild
	if declaredBuild != "" {
		build = declaredBuild
	}

	return &MicroarrayReader{
		file:   file,
		reader: bufio.NewReader(file),
		build:  build,
		logger: zap.NewNop(),
	}, nil
}

// SetLogger sets the logger used for skipped-line warnings.
func (r *MicroarrayReader) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Next reads the next genotype call. Comments, malformed lines, non-rsid
// rows and no-calls are skipped, not fatal. Returns nil, nil at EOF.
func (r *MicroarrayReader) Next() (*VariantCall, error) {
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read 23andme line: %w", err)
		}
		if line == "" && err == io.EOF {
			return nil, nil
		}
		r.lineNumber++

		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			if err == io.EOF {
				return nil, nil
			}
			continue
		}

		call, ok := r.parseLine(trimmed)
		if ok {
			return call, nil
		}
		if err == io.EOF {
			return nil, nil
		}
	}
}

func (r *MicroarrayReader) parseLine(line string) (*VariantCall, bool) {
	fields := strings.Split(line, "\t")
	if len(fields) != 4 {
		r.logger.Warn("skipping malformed 23andme line",
			zap.Int("line", r.lineNumber),
			zap.Int("fields", len(fields)))
		return nil, false
	}

	rsid := strings.ToLower(fields[0])
	if !strings.HasPrefix(rsid, "rs") {
		// Internal 23andMe markers (i-prefixed) have no public pages.
		return nil, false
	}

	pos, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		r.logger.Warn("skipping 23andme line with invalid position",
			zap.Int("line", r.lineNumber),
			zap.String("rsid", rsid),
			zap.String("position", fields[2]))
		return nil, false
	}

	raw := fields[3]
	gt := NewGenotype(alleles(raw)...)
	if !gt.IsCalled() {
		return nil, false
	}

	return &VariantCall{
		Rsid:     rsid,
		Chrom:    NormalizeChrom(fields[1]),
		Pos:      pos,
		Genotype: gt,
	}, true
}

// alleles splits a 23andMe genotype column ("AG", "A", "--") into alleles.
func alleles(raw string) []string {
	out := make([]string, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		out = append(out, string(raw[i]))
	}
	return out
}

// Build returns the reference build of the file's coordinates.
func (r *MicroarrayReader) Build() Build {
	return r.build
}

// LineNumber returns the current line number being processed.
func (r *MicroarrayReader) LineNumber() int {
	return r.lineNumber
}

// Close closes the underlying file.
func (r *MicroarrayReader) Close() error {
	return r.file.Close()
}
