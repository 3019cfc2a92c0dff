package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"marquee/internal/config"
)

// Store manages request persistence backed by SQLite. It holds the active
// requests, the archive, and the identity records (users, admins, profiles).
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the request database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "marquee.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Create inserts a new active request together with its first requester.
// ErrDuplicate is returned when an active request with the same content id
// already exists, so concurrent creators can fall back to the merge path.
func (s *Store) Create(ctx context.Context, req *Request) error {
	if req == nil {
		return errors.New("request is nil")
	}
	if strings.TrimSpace(req.ContentID) == "" {
		return errors.New("content id is required")
	}
	if len(req.Requesters) == 0 {
		return errors.New("request needs at least one requester")
	}

	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	timestamp := now.Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO requests (
            content_id, content_class, title, thumb, imdb_id, tmdb_id, tvdb_id,
            approved, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ContentID,
		string(req.Class),
		req.Title,
		nullableString(req.Thumb),
		nullableString(req.IMDBID),
		nullableString(req.TMDBID),
		nullableString(req.TVDBID),
		boolToInt(req.Approved),
		timestamp,
		timestamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert request: %w", err)
	}

	for _, userID := range req.Requesters {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT OR IGNORE INTO request_users (content_id, user_id, requested_at) VALUES (?, ?, ?)`,
			req.ContentID, userID, timestamp,
		); err != nil {
			return fmt.Errorf("insert requester: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create: %w", err)
	}
	return nil
}

// AddRequester appends a user to an active request's requester set. Adding a
// user that is already present is a no-op, not an error.
func (s *Store) AddRequester(ctx context.Context, contentID, userID string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO request_users (content_id, user_id, requested_at)
         SELECT content_id, ?, ? FROM requests WHERE content_id = ?`,
		userID, timestamp, contentID,
	)
	if err != nil {
		return fmt.Errorf("add requester: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		_, err = s.db.ExecContext(ctx, `UPDATE requests SET updated_at = ? WHERE content_id = ?`, timestamp, contentID)
		if err != nil {
			return fmt.Errorf("touch request: %w", err)
		}
	}
	return nil
}

// Approve flips an active request to approved. The transition is one-way;
// approving an already approved request is a no-op.
func (s *Store) Approve(ctx context.Context, contentID string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE requests SET approved = 1, updated_at = ? WHERE content_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		contentID,
	)
	if err != nil {
		return fmt.Errorf("approve request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAcquisitionRef records the downstream id returned by an acquisition
// target. Re-submitting to the same target overwrites the previous ref.
func (s *Store) SetAcquisitionRef(ctx context.Context, contentID, targetID, acquisitionID string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO acquisition_refs (content_id, target_id, acquisition_id)
         VALUES (?, ?, ?)
         ON CONFLICT (content_id, target_id) DO UPDATE SET acquisition_id = excluded.acquisition_id`,
		contentID, targetID, acquisitionID,
	)
	if err != nil {
		return fmt.Errorf("set acquisition ref: %w", err)
	}
	return nil
}

// FindActive fetches an active request by content id. A missing request
// returns (nil, nil).
func (s *Store) FindActive(ctx context.Context, contentID string) (*Request, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+requestColumns+` FROM requests WHERE content_id = ?`,
		contentID,
	)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active request: %w", err)
	}
	if err := s.loadRelations(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// List returns all active requests ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*Request, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+requestColumns+` FROM requests ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, req := range requests {
		if err := s.loadRelations(ctx, req); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

// Stats returns summary counts for the status surface.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1), COALESCE(SUM(approved), 0) FROM requests`)
	if err := row.Scan(&stats.Active, &stats.Approved); err != nil {
		return Stats{}, fmt.Errorf("request stats: %w", err)
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM archived_requests`)
	if err := row.Scan(&stats.Archived); err != nil {
		return Stats{}, fmt.Errorf("archive stats: %w", err)
	}
	return stats, nil
}

// Stats aggregates request counts for diagnostics.
type Stats struct {
	Active   int
	Approved int
	Archived int
}

func (s *Store) loadRelations(ctx context.Context, req *Request) error {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT user_id FROM request_users WHERE content_id = ? ORDER BY requested_at, rowid`,
		req.ContentID,
	)
	if err != nil {
		return fmt.Errorf("load requesters: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return err
		}
		req.Requesters = append(req.Requesters, userID)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	refRows, err := s.db.QueryContext(
		ctx,
		`SELECT target_id, acquisition_id FROM acquisition_refs WHERE content_id = ?`,
		req.ContentID,
	)
	if err != nil {
		return fmt.Errorf("load acquisition refs: %w", err)
	}
	defer refRows.Close()
	req.AcquisitionRefs = make(map[string]string)
	for refRows.Next() {
		var targetID, acquisitionID string
		if err := refRows.Scan(&targetID, &acquisitionID); err != nil {
			return err
		}
		req.AcquisitionRefs[targetID] = acquisitionID
	}
	return refRows.Err()
}

const requestColumns = "content_id, content_class, title, thumb, imdb_id, tmdb_id, tvdb_id, approved, created_at, updated_at"

func scanRequest(scanner interface{ Scan(dest ...any) error }) (*Request, error) {
	var (
		contentID  string
		classStr   string
		title      string
		thumb      sql.NullString
		imdbID     sql.NullString
		tmdbID     sql.NullString
		tvdbID     sql.NullString
		approved   int
		createdRaw string
		updatedRaw string
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
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	req := &Request{
		ContentID: contentID,
		Class:     ContentClass(classStr),
		Title:     title,
		Thumb:     thumb.String,
		IMDBID:    imdbID.String,
		TMDBID:    tmdbID.String,
		TVDBID:    tvdbID.String,
		Approved:  approved != 0,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		req.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		req.UpdatedAt = updated
	}
	return req, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
