package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"labeller/internal/catalog"
	"labeller/internal/labelstore"
	"labeller/internal/taxonomy"
)

// groupSeparator joins group segments. Segments are directory names and
// cannot contain it.
const groupSeparator = "/"

// RecordLabel upserts the journal row for rec.
func (s *Store) RecordLabel(ctx context.Context, sessionID string, rec labelstore.Record) error {
	img := rec.Image
	_, err := s.exec(ctx,
		`INSERT INTO labels (
            session_id, image_key, case_id, visit_id, groups, mag_value, filename,
            image_path, position, category, subtype, comment, time_spent_ms, labelled_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(session_id, image_key) DO UPDATE SET
            case_id = excluded.case_id,
            visit_id = excluded.visit_id,
            groups = excluded.groups,
            mag_value = excluded.mag_value,
            filename = excluded.filename,
            image_path = excluded.image_path,
            position = excluded.position,
            category = excluded.category,
            subtype = excluded.subtype,
            comment = excluded.comment,
            time_spent_ms = excluded.time_spent_ms,
            labelled_at = excluded.labelled_at`,
		sessionID,
		img.Key,
		img.CaseID,
		img.VisitID,
		strings.Join(img.Groups, groupSeparator),
		img.MagValue,
		img.Filename,
		img.Path,
		img.Position,
		string(rec.Category),
		taxonomy.SubtypeOrNone(rec.Subtype).String(),
		rec.Comment,
		rec.TimeSpent.Milliseconds(),
		formatTime(rec.LabelledAt),
	)
	if err != nil {
		return fmt.Errorf("record label %s: %w", img.Key, err)
	}
	return nil
}

// DeleteLabel removes the journal row for key. Deleting a missing row is not
// an error.
func (s *Store) DeleteLabel(ctx context.Context, sessionID, key string) error {
	if _, err := s.exec(ctx,
		`DELETE FROM labels WHERE session_id = ? AND image_key = ?`,
		sessionID, key,
	); err != nil {
		return fmt.Errorf("delete label %s: %w", key, err)
	}
	return nil
}

// Labels returns the session's label records in catalog position order. The
// image fields are those captured when the label was recorded; callers
// resuming against a fresh catalog should match records by key.
func (s *Store) Labels(ctx context.Context, sessionID string, variant *taxonomy.Variant) ([]labelstore.Record, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT image_key, case_id, visit_id, groups, mag_value, filename, image_path,
            position, category, subtype, comment, time_spent_ms, labelled_at
        FROM labels WHERE session_id = ? ORDER BY position, image_key`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query labels: %w", err)
	}
	defer rows.Close()

	var records []labelstore.Record
	for rows.Next() {
		var (
			img        catalog.ImageRecord
			groups     string
			category   string
			subtype    string
			comment    string
			spentMS    int64
			labelledAt string
		)
		if err := rows.Scan(
			&img.Key,
			&img.CaseID,
			&img.VisitID,
			&groups,
			&img.MagValue,
			&img.Filename,
			&img.Path,
			&img.Position,
			&category,
			&subtype,
			&comment,
			&spentMS,
			&labelledAt,
		); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		if groups != "" {
			img.Groups = strings.Split(groups, groupSeparator)
		}
		cat, ok := variant.ParseCategory(category)
		if !ok {
			return nil, fmt.Errorf("label %s: unknown category %q for %s variant", img.Key, category, variant.Name)
		}
		sub, err := taxonomy.ParseSubtype(cat, subtype)
		if err != nil {
			return nil, fmt.Errorf("label %s: %w", img.Key, err)
		}
		at, err := parseTime(labelledAt)
		if err != nil {
			return nil, fmt.Errorf("label %s: parse labelled_at: %w", img.Key, err)
		}
		records = append(records, labelstore.Record{
			Image:      img,
			Category:   cat,
			Subtype:    sub,
			Comment:    comment,
			TimeSpent:  time.Duration(spentMS) * time.Millisecond,
			LabelledAt: at,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate labels: %w", err)
	}
	return records, nil
}

// Reposition rewrites the stored catalog position of each key in positions.
// Keys without a row are ignored.
func (s *Store) Reposition(ctx context.Context, sessionID string, positions map[string]int) error {
	if len(positions) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`UPDATE labels SET position = ? WHERE session_id = ? AND image_key = ?`)
		if err != nil {
			return fmt.Errorf("prepare reposition: %w", err)
		}
		defer stmt.Close()
		for key, pos := range positions {
			if _, err := stmt.ExecContext(ctx, pos, sessionID, key); err != nil {
				return fmt.Errorf("reposition label %s: %w", key, err)
			}
		}
		return nil
	})
}
