package request

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Archive snapshots an active request into the archive and deletes it from
// the active store. Both writes happen inside one transaction so a reader
// never observes the request in both stores or in neither.
func (s *Store) Archive(ctx context.Context, contentID string, complete, removed bool, reason string) (*Archived, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin archive tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE content_id = ?`, contentID)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load request for archive: %w", err)
	}

	rows, err := tx.QueryContext(
		ctx,
		`SELECT user_id FROM request_users WHERE content_id = ? ORDER BY requested_at, rowid`,
		contentID,
	)
	if err != nil {
		return nil, fmt.Errorf("load requesters for archive: %w", err)
	}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			rows.Close()
			return nil, err
		}
		req.Requesters = append(req.Requesters, userID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	refRows, err := tx.QueryContext(
		ctx,
		`SELECT target_id, acquisition_id FROM acquisition_refs WHERE content_id = ?`,
		contentID,
	)
	if err != nil {
		return nil, fmt.Errorf("load acquisition refs for archive: %w", err)
	}
	req.AcquisitionRefs = make(map[string]string)
	for refRows.Next() {
		var targetID, acquisitionID string
		if err := refRows.Scan(&targetID, &acquisitionID); err != nil {
			refRows.Close()
			return nil, err
		}
		req.AcquisitionRefs[targetID] = acquisitionID
	}
	if err := refRows.Err(); err != nil {
		refRows.Close()
		return nil, err
	}
	refRows.Close()

	archived := &Archived{
		Request:       *req,
		Removed:       removed,
		RemovedReason: reason,
		Complete:      complete,
		ArchivedAt:    time.Now().UTC(),
	}

	requestersJSON, err := json.Marshal(archived.Requesters)
	if err != nil {
		return nil, fmt.Errorf("marshal requesters: %w", err)
	}
	refsJSON, err := json.Marshal(archived.AcquisitionRefs)
	if err != nil {
		return nil, fmt.Errorf("marshal acquisition refs: %w", err)
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO archived_requests (
            content_id, content_class, title, thumb, imdb_id, tmdb_id, tvdb_id,
            approved, requesters_json, acquisition_refs_json,
            removed, removed_reason, complete, archived_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		archived.ContentID,
		string(archived.Class),
		archived.Title,
		nullableString(archived.Thumb),
		nullableString(archived.IMDBID),
		nullableString(archived.TMDBID),
		nullableString(archived.TVDBID),
		boolToInt(archived.Approved),
		string(requestersJSON),
		string(refsJSON),
		boolToInt(archived.Removed),
		nullableString(archived.RemovedReason),
		boolToInt(archived.Complete),
		archived.ArchivedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert archive snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM requests WHERE content_id = ?`, contentID); err != nil {
		return nil, fmt.Errorf("delete active request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit archive: %w", err)
	}
	return archived, nil
}

// FindArchived fetches an archived snapshot by content id. A missing
// snapshot returns (nil, nil).
func (s *Store) FindArchived(ctx context.Context, contentID string) (*Archived, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+archiveColumns+` FROM archived_requests WHERE content_id = ?`,
		contentID,
	)
	archived, err := scanArchived(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find archived request: %w", err)
	}
	return archived, nil
}

// ListArchive returns archived snapshots ordered by archive time, newest
// first.
func (s *Store) ListArchive(ctx context.Context) ([]*Archived, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+archiveColumns+` FROM archived_requests ORDER BY archived_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	defer rows.Close()

	var archive []*Archived
	for rows.Next() {
		archived, err := scanArchived(rows)
		if err != nil {
			return nil, err
		}
		archive = append(archive, archived)
	}
	return archive, rows.Err()
}

// ReconcileArchives deletes active requests that already have an archive
// snapshot. The archive transaction makes this unreachable in normal
// operation; it heals databases written by older two-phase versions.
func (s *Store) ReconcileArchives(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM requests WHERE content_id IN (SELECT content_id FROM archived_requests)`,
	)
	if err != nil {
		return 0, fmt.Errorf("reconcile archives: %w", err)
	}
	return res.RowsAffected()
}

const archiveColumns = "content_id, content_class, title, thumb, imdb_id, tmdb_id, tvdb_id, approved, requesters_json, acquisition_refs_json, removed, removed_reason, complete, archived_at"

func scanArchived(scanner interface{ Scan(dest ...any) error }) (*Archived, error) {
	var (
		contentID   string
		classStr    string
		title       string
		thumb       sql.NullString
		imdbID      sql.NullString
		tmdbID      sql.NullString
		tvdbID      sql.NullString
		approved    int
		requesters  string
		refs        string
		removed     int
		reason      sql.NullString
		complete    int
		archivedRaw string
	)
	if err := scanner.Scan(
		&contentID,
		&classStr,
		&title,
		&thumb,
		&imdbID,
		&tmdbID,
		&tvdbID,
		&approved,
		&requesters,
		&refs,
		&removed,
		&reason,
		&complete,
		&archivedRaw,
	); err != nil {
		return nil, err
	}

	archived := &Archived{
		Request: Request{
			ContentID: contentID,
			Class:     ContentClass(classStr),
			Title:     title,
			Thumb:     thumb.String,
			IMDBID:    imdbID.String,
			TMDBID:    tmdbID.String,
			TVDBID:    tvdbID.String,
			Approved:  approved != 0,
		},
		Removed:       removed != 0,
		RemovedReason: reason.String,
		Complete:      complete != 0,
	}
	if err := json.Unmarshal([]byte(requesters), &archived.Requesters); err != nil {
		return nil, fmt.Errorf("unmarshal requesters: %w", err)
	}
	if err := json.Unmarshal([]byte(refs), &archived.AcquisitionRefs); err != nil {
		return nil, fmt.Errorf("unmarshal acquisition refs: %w", err)
	}
	if archivedAt, err := parseTimeString(archivedRaw); err == nil {
		archived.ArchivedAt = archivedAt
	}
	return archived, nil
}
