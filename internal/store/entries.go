package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/snpcrawl/snpcrawl/internal/genotype"
	"github.com/snpcrawl/snpcrawl/internal/snpedia"
)

// Status is the annotation state of a store entry.
type Status string

const (
	// StatusPending means the call is stored but annotation has not
	// succeeded yet (fetch failed or was never reached).
	StatusPending Status = "pending"
	// StatusAnnotated means remote annotation is attached.
	StatusAnnotated Status = "annotated"
	// StatusNotFound means the identifier has no remote page. Retained so
	// later runs skip re-fetching it.
	StatusNotFound Status = "notfound"
)

// Entry is the join of one genotype call with its fetched annotation, the
// unit the viewer queries.
type Entry struct {
	Rsid            string
	Chrom           string
	Pos             int64
	Genotype        string
	Status          Status
	Description     string // page summary text
	MatchedGenotype string // summary row matching the user's oriented genotype
	Magnitude       float64
	HasMagnitude    bool
	MatchedSummary  string // interpretation text of the matched row
	Orientation     string
	FetchedAt       time.Time
}

// Match is the genotype-table row resolved against the user's call, if any.
type Match struct {
	Summary snpedia.GenotypeSummary
	Found   bool
}

// Upsert writes the joined entry for a successfully annotated call, along
// with the page's full genotype table. Re-upserting the same rsid replaces
// the previous row, so the operation is idempotent and never duplicates.
func (s *Store) Upsert(call *genotype.VariantCall, ann *snpedia.Annotation, match Match) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	var matchedGenotype, matchedSummary string
	var magnitude float64
	var hasMagnitude bool
	if match.Found {
		matchedGenotype = match.Summary.Genotype.String()
		matchedSummary = match.Summary.Description
		magnitude = match.Summary.Magnitude
		hasMagnitude = match.Summary.HasMagnitude
	}

	if _, err := tx.Exec(`INSERT OR REPLACE INTO entries
		(rsid, chrom, pos, genotype, status, description, matched_genotype,
		 magnitude, has_magnitude, matched_summary, orientation, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		call.Rsid, call.Chrom, call.Pos, call.Genotype.String(),
		string(StatusAnnotated), ann.Description, matchedGenotype,
		magnitude, hasMagnitude, matchedSummary, string(ann.EffectiveOrientation()),
		time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("upsert entry %s: %w", call.Rsid, err)
	}

	// Drop only summary rows whose genotype is absent from the new table;
	// deleting and reinserting the same keys in one transaction would lose
	// the rows.
	if len(ann.Summaries) == 0 {
		if _, err := tx.Exec(`DELETE FROM genotype_summaries WHERE rsid = ?`, call.Rsid); err != nil {
			return fmt.Errorf("clear summaries for %s: %w", call.Rsid, err)
		}
	} else {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ann.Summaries)), ", ")
		args := []any{call.Rsid}
		for _, summary := range ann.Summaries {
			args = append(args, summary.Genotype.String())
		}
		if _, err := tx.Exec(fmt.Sprintf(
			`DELETE FROM genotype_summaries WHERE rsid = ? AND genotype NOT IN (%s)`,
			placeholders), args...); err != nil {
			return fmt.Errorf("clear stale summaries for %s: %w", call.Rsid, err)
		}
	}
	for _, summary := range ann.Summaries {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO genotype_summaries
			(rsid, genotype, magnitude, has_magnitude, description)
			VALUES (?, ?, ?, ?, ?)`,
			call.Rsid, summary.Genotype.String(), summary.Magnitude,
			summary.HasMagnitude, summary.Description,
		); err != nil {
			return fmt.Errorf("insert summary for %s: %w", call.Rsid, err)
		}
	}

	return tx.Commit()
}

// MarkAttempted records a call whose fetch terminated without annotation:
// StatusNotFound for identifiers with no page, StatusPending for calls
// stored ahead of a successful fetch.
func (s *Store) MarkAttempted(call *genotype.VariantCall, status Status) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO entries
		(rsid, chrom, pos, genotype, status, description, matched_genotype,
		 magnitude, has_magnitude, matched_summary, orientation, fetched_at)
		VALUES (?, ?, ?, ?, ?, '', '', 0, FALSE, '', '', ?)`,
		call.Rsid, call.Chrom, call.Pos, call.Genotype.String(),
		string(status), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark %s %s: %w", call.Rsid, status, err)
	}
	return nil
}

// GetStatus returns the stored status for an rsid, or "" when the rsid has
// no entry.
func (s *Store) GetStatus(rsid string) (Status, error) {
	var status string
	err := s.db.QueryRow(`SELECT status FROM entries WHERE rsid = ?`, rsid).Scan(&status)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get status for %s: %w", rsid, err)
	}
	return Status(status), nil
}

// Filter narrows a Query scan. Zero values mean no constraint.
type Filter struct {
	Status       Status
	MinMagnitude float64
}

// Query scans entries matching the filter, ordered by descending magnitude
// then rsid so the most notable results come first. This is the viewer's
// read boundary; it issues no writes.
func (s *Store) Query(f Filter) ([]Entry, error) {
	query := `SELECT rsid, chrom, pos, genotype, status, description,
		matched_genotype, magnitude, has_magnitude, matched_summary,
		orientation, fetched_at
		FROM entries WHERE 1=1`
	var args []any
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, string(f.Status))
	}
	if f.MinMagnitude > 0 {
		query += " AND has_magnitude AND magnitude >= ?"
		args = append(args, f.MinMagnitude)
	}
	query += " ORDER BY magnitude DESC, rsid"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var status string
		if err := rows.Scan(
			&e.Rsid, &e.Chrom, &e.Pos, &e.Genotype, &status, &e.Description,
			&e.MatchedGenotype, &e.Magnitude, &e.HasMagnitude,
			&e.MatchedSummary, &e.Orientation, &e.FetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Status = Status(status)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Summaries returns the stored genotype table for an rsid.
func (s *Store) Summaries(rsid string) ([]snpedia.GenotypeSummary, error) {
	rows, err := s.db.Query(`SELECT genotype, magnitude, has_magnitude, description
		FROM genotype_summaries WHERE rsid = ? ORDER BY genotype`, rsid)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []snpedia.GenotypeSummary
	for rows.Next() {
		var gtText string
		var summary snpedia.GenotypeSummary
		if err := rows.Scan(&gtText, &summary.Magnitude, &summary.HasMagnitude, &summary.Description); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		gt, err := genotype.ParseGenotype(gtText)
		if err != nil {
			return nil, fmt.Errorf("stored summary for %s: %w", rsid, err)
		}
		summary.Genotype = gt
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// EntryCount returns the total number of store entries.
func (s *Store) EntryCount() (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}
