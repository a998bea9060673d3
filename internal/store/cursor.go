package store

import (
	"database/sql"
	"fmt"
	"time"
)

// CursorState is the persisted resume marker for one dataset. Position is
// the number of deduplicated calls already attempted; it only ever grows
// across successful advances. Indexed records whether positions were
// counted over the page-index-filtered stream, which changes what a
// position means.
type CursorState struct {
	Position  int64
	Seen      int64
	Annotated int64
	NotFound  int64
	Indexed   bool
	File      FileFingerprint
}

// LoadCursor returns the cursor for a dataset key and whether one exists.
// The file mtime is stored as Unix nanoseconds so the round trip keeps the
// full precision os.Stat reports.
func (s *Store) LoadCursor(datasetKey string) (CursorState, bool, error) {
	var state CursorState
	var mtimeNS int64
	err := s.db.QueryRow(`SELECT position, seen, annotated, notfound, indexed, file_size, file_mtime_ns
		FROM cursors WHERE dataset_key = ?`, datasetKey).Scan(
		&state.Position, &state.Seen, &state.Annotated, &state.NotFound,
		&state.Indexed, &state.File.Size, &mtimeNS)
	if err == sql.ErrNoRows {
		return CursorState{}, false, nil
	}
	if err != nil {
		return CursorState{}, false, fmt.Errorf("load cursor %s: %w", datasetKey, err)
	}
	state.File.ModTime = time.Unix(0, mtimeNS)
	return state, true, nil
}

// AdvanceCursor persists a new cursor state in one statement, so a crash
// can never leave a partially written cursor. Position must not move
// backwards; the orchestrator only advances past attempted calls.
func (s *Store) AdvanceCursor(datasetKey string, state CursorState) error {
	prev, found, err := s.LoadCursor(datasetKey)
	if err != nil {
		return err
	}
	if found && state.Position < prev.Position {
		return fmt.Errorf("cursor %s would move backwards (%d -> %d)",
			datasetKey, prev.Position, state.Position)
	}

	_, err = s.db.Exec(`INSERT OR REPLACE INTO cursors
		(dataset_key, position, seen, annotated, notfound, indexed, file_size, file_mtime_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		datasetKey, state.Position, state.Seen, state.Annotated,
		state.NotFound, state.Indexed, state.File.Size, state.File.ModTime.UnixNano())
	if err != nil {
		return fmt.Errorf("advance cursor %s: %w", datasetKey, err)
	}
	return nil
}

// ResetCursor deletes a dataset's cursor. Destructive: the next import run
// walks the file from the beginning. Only invoked on explicit user intent.
func (s *Store) ResetCursor(datasetKey string) error {
	_, err := s.db.Exec(`DELETE FROM cursors WHERE dataset_key = ?`, datasetKey)
	if err != nil {
		return fmt.Errorf("reset cursor %s: %w", datasetKey, err)
	}
	return nil
}
