package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrSessionNotFound reports an unknown session ID.
var ErrSessionNotFound = errors.New("journal session not found")

// SessionInfo describes one journalled session.
type SessionInfo struct {
	ID          string
	Annotator   string
	Variant     string
	DatasetRoot string
	OutputFile  string
	TotalImages int
	StartedAt   time.Time
	// EndedAt is zero while the session is open.
	EndedAt time.Time
	// Labels is filled by queries that count label rows.
	Labels int
}

// Finished reports whether the session has been closed.
func (s SessionInfo) Finished() bool { return !s.EndedAt.IsZero() }

// BeginSession records a new open session.
func (s *Store) BeginSession(ctx context.Context, info SessionInfo) error {
	if strings.TrimSpace(info.ID) == "" {
		return errors.New("begin session: id is required")
	}
	_, err := s.exec(ctx,
		`INSERT INTO sessions (
            id, annotator, variant, dataset_root, output_file, total_images, started_at, ended_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		info.ID,
		info.Annotator,
		info.Variant,
		info.DatasetRoot,
		info.OutputFile,
		info.TotalImages,
		formatTime(info.StartedAt),
		nullableTime(info.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", info.ID, err)
	}
	return nil
}

// UpdateTotal stores a new catalog size for a resumed session.
func (s *Store) UpdateTotal(ctx context.Context, sessionID string, total int) error {
	res, err := s.exec(ctx,
		`UPDATE sessions SET total_images = ? WHERE id = ?`,
		total, sessionID,
	)
	if err != nil {
		return fmt.Errorf("update session %s: %w", sessionID, err)
	}
	return requireRow(res, sessionID)
}

// FinishSession stamps the session's end time. A session that already has an
// end time keeps it.
func (s *Store) FinishSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	res, err := s.exec(ctx,
		`UPDATE sessions SET ended_at = COALESCE(ended_at, ?) WHERE id = ?`,
		formatTime(endedAt), sessionID,
	)
	if err != nil {
		return fmt.Errorf("finish session %s: %w", sessionID, err)
	}
	return requireRow(res, sessionID)
}

// Session fetches one session with its label count.
func (s *Store) Session(ctx context.Context, sessionID string) (*SessionInfo, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), sessionSelect+` WHERE s.id = ?`, sessionID)
	info, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return info, nil
}

// FindResumable returns the most recent open session that wrote to output
// with the same variant and dataset root, or nil when there is none.
func (s *Store) FindResumable(ctx context.Context, output, variant, root string) (*SessionInfo, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		sessionSelect+` WHERE s.output_file = ? AND s.variant = ? AND s.dataset_root = ? AND s.ended_at IS NULL
        ORDER BY s.started_at DESC LIMIT 1`,
		output, variant, root,
	)
	info, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find resumable session: %w", err)
	}
	return info, nil
}

// ListSessions returns every journalled session, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), sessionSelect+` ORDER BY s.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		info, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

const sessionSelect = `SELECT s.id, s.annotator, s.variant, s.dataset_root, s.output_file,
        s.total_images, s.started_at, s.ended_at,
        (SELECT COUNT(1) FROM labels l WHERE l.session_id = s.id)
    FROM sessions s`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*SessionInfo, error) {
	var (
		info      SessionInfo
		startedAt string
		endedAt   sql.NullString
	)
	if err := row.Scan(
		&info.ID,
		&info.Annotator,
		&info.Variant,
		&info.DatasetRoot,
		&info.OutputFile,
		&info.TotalImages,
		&startedAt,
		&endedAt,
		&info.Labels,
	); err != nil {
		return nil, err
	}
	var err error
	if info.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if endedAt.Valid && endedAt.String != "" {
		if info.EndedAt, err = parseTime(endedAt.String); err != nil {
			return nil, fmt.Errorf("parse ended_at: %w", err)
		}
	}
	return &info, nil
}

func requireRow(res sql.Result, sessionID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}
