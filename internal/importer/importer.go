// Package importer drives the incremental import: it walks a genotype file
// from the persisted cursor position, fetches SNPedia annotation for each
// unprocessed call under the per-run batch cap, and merges the results into
// the local store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/snpcrawl/snpcrawl/internal/genotype"
	"github.com/snpcrawl/snpcrawl/internal/snpedia"
	"github.com/snpcrawl/snpcrawl/internal/store"
)

// Fetcher retrieves annotation for one variant identifier.
// *snpedia.Client implements it; tests substitute fakes.
type Fetcher interface {
	Fetch(ctx context.Context, rsid string) (*snpedia.Annotation, error)
}

// Config are the parameters of one import run.
type Config struct {
	Path       string          // input file path (required)
	Format     genotype.Format // empty = auto-detect
	Build      genotype.Build  // empty = resolve from file
	DatasetKey string          // empty = absolute input path
	Refresh    bool            // re-fetch identifiers previously marked not-found
}

// Report is the user-visible outcome of one run.
type Report struct {
	RunID     string
	Seen      int64 // calls walked this run
	Fetched   int64 // fetch attempts issued this run
	Annotated int64 // newly annotated this run
	NotFound  int64 // newly marked not-found this run
	Skipped   int64 // already-complete entries passed without a fetch
	Deferred  bool  // a transient fetch failure pushed work to the next run
	Done      bool  // the whole file has been processed
	Position  int64 // cursor position after the run
}

// runState tracks the orchestrator's progress through its loop. A run ends
// in stateDone (file exhausted), stateIdle (batch cap or deferral, resumed
// next invocation) or aborts with an error before mutating anything.
type runState int

const (
	stateIdle runState = iota
	stateReadingSlice
	stateFetching
	stateMerging
	stateAdvancing
	stateDone
)

// Importer owns cursor mutation for its runs. The store and cursor are
// single-writer; concurrent runs against one dataset must be serialized
// externally.
type Importer struct {
	store   *store.Store
	fetcher Fetcher
	index   *snpedia.Index
	logger  *zap.Logger
}

// New creates an Importer writing to st and fetching through f.
func New(st *store.Store, f Fetcher) *Importer {
	return &Importer{store: st, fetcher: f, logger: zap.NewNop()}
}

// SetIndex installs the SNPedia page index used to pre-filter calls that
// have no page. Without an index every call is eligible for fetching.
func (imp *Importer) SetIndex(idx *snpedia.Index) {
	imp.index = idx
}

// SetLogger sets the logger for run progress and per-variant warnings.
func (imp *Importer) SetLogger(l *zap.Logger) {
	imp.logger = l
}

// Run executes one import invocation. File-level errors (unsupported
// format, unknown build, changed input file) abort before any store or
// cursor mutation; per-variant fetch outcomes never abort the run.
func (imp *Importer) Run(ctx context.Context, cfg Config) (Report, error) {
	report := Report{RunID: uuid.NewString()}

	fingerprint, err := store.StatFile(cfg.Path)
	if err != nil {
		return report, fmt.Errorf("stat input file: %w", err)
	}

	reader, err := genotype.NewReader(cfg.Path, cfg.Format, cfg.Build)
	if err != nil {
		return report, err
	}
	defer reader.Close()

	key := cfg.DatasetKey
	if key == "" {
		if key, err = filepath.Abs(cfg.Path); err != nil {
			return report, fmt.Errorf("resolve dataset key: %w", err)
		}
	}

	cursor, found, err := imp.store.LoadCursor(key)
	if err != nil {
		return report, err
	}
	if found && (cursor.File.Size != fingerprint.Size || !cursor.File.ModTime.Equal(fingerprint.ModTime)) {
		return report, fmt.Errorf("input file %s changed since the last run; reset the cursor to re-import", cfg.Path)
	}
	// Positions are counted over the filtered stream, so they only mean the
	// same thing across runs with the same index mode.
	indexed := imp.index != nil
	if found && cursor.Indexed != indexed {
		return report, fmt.Errorf("dataset %s was previously imported with a different page-index mode; reset the cursor to switch", cfg.Path)
	}
	cursor.File = fingerprint
	cursor.Indexed = indexed

	imp.logger.Info("import run starting",
		zap.String("run_id", report.RunID),
		zap.String("dataset", key),
		zap.String("build", string(reader.Build())),
		zap.Int64("resume_position", cursor.Position))

	stream := newCallStream(reader, imp.index)
	if err := stream.Skip(cursor.Position); err != nil {
		return report, err
	}

	state := stateReadingSlice
	for state != stateDone && state != stateIdle {
		// ReadingSlice: pull the next unprocessed call.
		call, err := stream.Next()
		if err != nil {
			return report, err
		}
		if call == nil {
			state = stateDone
			break
		}
		report.Seen++

		// Completed entries pass without a fetch; re-import is a no-op.
		status, err := imp.store.GetStatus(call.Rsid)
		if err != nil {
			return report, err
		}
		if status == store.StatusAnnotated || (status == store.StatusNotFound && !cfg.Refresh) {
			report.Skipped++
			if cursor, err = imp.advance(key, cursor, status); err != nil {
				return report, err
			}
			continue
		}

		// Fetching.
		state = stateFetching
		ann, fetchErr := imp.fetcher.Fetch(ctx, call.Rsid)

		switch {
		case errors.Is(fetchErr, snpedia.ErrBatchLimit):
			// Clean backpressure end; the call was not attempted, so the
			// cursor stays before it.
			imp.logger.Info("batch cap reached", zap.Int64("position", cursor.Position))
			state = stateIdle
			continue

		case errors.Is(fetchErr, snpedia.ErrNotFound):
			report.Fetched++
			report.NotFound++
			state = stateMerging
			if err := imp.store.MarkAttempted(call, store.StatusNotFound); err != nil {
				return report, err
			}

		case fetchErr != nil:
			// Transient failure after bounded retries: record the call as
			// pending, then defer it and everything behind it to the next
			// run. The cursor stays before it so the retry comes first.
			report.Fetched++
			report.Deferred = true
			imp.logger.Warn("deferring variant after transient fetch failure",
				zap.String("rsid", call.Rsid), zap.Error(fetchErr))
			if err := imp.store.MarkAttempted(call, store.StatusPending); err != nil {
				return report, err
			}
			state = stateIdle
			continue

		default:
			report.Fetched++
			report.Annotated++
			state = stateMerging
			match := matchGenotype(call, reader.Build(), ann, imp.logger)
			if err := imp.store.Upsert(call, ann, match); err != nil {
				return report, err
			}
		}

		// Advancing: the store write above is durable before the cursor
		// moves past this identifier.
		state = stateAdvancing
		outcome := store.StatusAnnotated
		if errors.Is(fetchErr, snpedia.ErrNotFound) {
			outcome = store.StatusNotFound
		}
		if cursor, err = imp.advance(key, cursor, outcome); err != nil {
			return report, err
		}
		state = stateReadingSlice

		if report.Fetched%100 == 0 {
			imp.logger.Info("import progress",
				zap.Int64("fetched", report.Fetched),
				zap.Int64("annotated", report.Annotated),
				zap.Int64("position", cursor.Position))
		}
	}

	if state == stateDone {
		report.Done = true
	}
	report.Position = cursor.Position

	imp.logger.Info("import run finished",
		zap.String("run_id", report.RunID),
		zap.Int64("seen", report.Seen),
		zap.Int64("fetched", report.Fetched),
		zap.Int64("annotated", report.Annotated),
		zap.Int64("notfound", report.NotFound),
		zap.Int64("skipped", report.Skipped),
		zap.Bool("deferred", report.Deferred),
		zap.Bool("done", report.Done))

	return report, nil
}

// advance persists the cursor one position forward, bumping the cumulative
// counters for the outcome of the call just attempted (or skipped).
func (imp *Importer) advance(key string, cursor store.CursorState, outcome store.Status) (store.CursorState, error) {
	cursor.Position++
	cursor.Seen++
	switch outcome {
	case store.StatusAnnotated:
		cursor.Annotated++
	case store.StatusNotFound:
		cursor.NotFound++
	}
	if err := imp.store.AdvanceCursor(key, cursor); err != nil {
		return cursor, err
	}
	return cursor, nil
}

// callStream wraps a CallReader with the import-order semantics the cursor
// counts positions in: duplicate rsids collapse to their first occurrence
// and, when an index is present, calls without a SNPedia page are dropped.
type callStream struct {
	reader genotype.CallReader
	index  *snpedia.Index
	seen   map[string]struct{}
}

func newCallStream(reader genotype.CallReader, index *snpedia.Index) *callStream {
	return &callStream{
		reader: reader,
		index:  index,
		seen:   make(map[string]struct{}),
	}
}

// Next returns the next positional call, nil at end of file.
func (s *callStream) Next() (*genotype.VariantCall, error) {
	for {
		call, err := s.reader.Next()
		if err != nil {
			return nil, fmt.Errorf("read call at line %d: %w", s.reader.LineNumber(), err)
		}
		if call == nil {
			return nil, nil
		}
		if _, dup := s.seen[call.Rsid]; dup {
			continue
		}
		s.seen[call.Rsid] = struct{}{}
		if s.index != nil && !s.index.Has(call.Rsid) {
			continue
		}
		return call, nil
	}
}

// Skip advances the stream past n positions already attempted in prior runs.
func (s *callStream) Skip(n int64) error {
	for i := int64(0); i < n; i++ {
		call, err := s.Next()
		if err != nil {
			return err
		}
		if call == nil {
			return nil
		}
	}
	return nil
}
