package sqlite

import (
	"database/sql"
	"fmt"

	"surveillance/internal/models"
)

// EvidenceRepository implements repository.EvidenceRepository for SQLite.
type EvidenceRepository struct {
	db *DB
}

func NewEvidenceRepository(db *DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

const evidenceColumns = `id, filename, kind, subtype, camera, track_id, confidence, timestamp, filepath, filesize`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEvidence(s scanner) (*models.EvidenceRecord, error) {
	var rec models.EvidenceRecord
	var kind string
	err := s.Scan(&rec.ID, &rec.Filename, &kind, &rec.Subtype, &rec.Camera, &rec.TrackID,
		&rec.Confidence, &rec.Timestamp, &rec.FilePath, &rec.FileSize)
	if err != nil {
		return nil, err
	}
	rec.Kind = models.AlertKind(kind)
	return &rec, nil
}

// Insert adds a record. Re-inserting a known filename updates it in place.
func (r *EvidenceRepository) Insert(rec *models.EvidenceRecord) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO evidence (filename, kind, subtype, camera, track_id, confidence, timestamp, filepath, filesize)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			kind = excluded.kind,
			subtype = excluded.subtype,
			camera = excluded.camera,
			track_id = excluded.track_id,
			confidence = excluded.confidence,
			timestamp = excluded.timestamp,
			filepath = excluded.filepath,
			filesize = excluded.filesize
	`, rec.Filename, string(rec.Kind), rec.Subtype, rec.Camera, rec.TrackID, rec.Confidence,
		rec.Timestamp.UTC(), rec.FilePath, rec.FileSize)
	if err != nil {
		return 0, fmt.Errorf("failed to insert evidence: %w", err)
	}

	// LastInsertId is not reliable for the update branch of an upsert
	var id int64
	if err := r.db.Conn().QueryRow(`SELECT id FROM evidence WHERE filename = ?`, rec.Filename).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read evidence id: %w", err)
	}
	return id, nil
}

// GetByFilename returns nil when the file is not catalogued.
func (r *EvidenceRepository) GetByFilename(filename string) (*models.EvidenceRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rec, err := scanEvidence(r.db.Conn().QueryRow(
		`SELECT `+evidenceColumns+` FROM evidence WHERE filename = ?`, filename))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evidence: %w", err)
	}
	return rec, nil
}

func whereClause(filter *models.EvidenceFilter) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter == nil {
		return where, args
	}

	if filter.Kind != "" {
		where += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	if filter.Camera != nil {
		where += " AND camera = ?"
		args = append(args, *filter.Camera)
	}
	if !filter.Since.IsZero() {
		where += " AND timestamp >= ?"
		args = append(args, filter.Since.UTC())
	}
	return where, args
}

// GetAll returns matching records, newest first.
func (r *EvidenceRepository) GetAll(filter *models.EvidenceFilter) ([]models.EvidenceRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)
	query := `SELECT ` + evidenceColumns + ` FROM evidence` + where + ` ORDER BY timestamp DESC, id DESC`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query evidence: %w", err)
	}
	defer rows.Close()

	records := []models.EvidenceRecord{}
	for rows.Next() {
		rec, err := scanEvidence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evidence: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *EvidenceRepository) Count(filter *models.EvidenceFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)
	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM evidence`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count evidence: %w", err)
	}
	return count, nil
}

func (r *EvidenceRepository) GetStats() (*models.EvidenceStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &models.EvidenceStats{
		PerKind:   make(map[models.AlertKind]int),
		PerCamera: make(map[int]int),
	}

	if err := r.db.Conn().QueryRow(`SELECT COUNT(*), COALESCE(SUM(filesize), 0) FROM evidence`).
		Scan(&stats.Total, &stats.TotalSizeBytes); err != nil {
		return nil, fmt.Errorf("failed to read totals: %w", err)
	}

	kindRows, err := r.db.Conn().Query(`SELECT kind, COUNT(*) FROM evidence GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to group by kind: %w", err)
	}
	defer kindRows.Close()
	for kindRows.Next() {
		var kind string
		var count int
		if err := kindRows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		stats.PerKind[models.AlertKind(kind)] = count
	}

	camRows, err := r.db.Conn().Query(`SELECT camera, COUNT(*) FROM evidence GROUP BY camera`)
	if err != nil {
		return nil, fmt.Errorf("failed to group by camera: %w", err)
	}
	defer camRows.Close()
	for camRows.Next() {
		var camera, count int
		if err := camRows.Scan(&camera, &count); err != nil {
			return nil, err
		}
		stats.PerCamera[camera] = count
	}

	return stats, nil
}

func (r *EvidenceRepository) DeleteByFilename(filename string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM evidence WHERE filename = ?`, filename); err != nil {
		return fmt.Errorf("failed to delete evidence: %w", err)
	}
	return nil
}

func (r *EvidenceRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM evidence`); err != nil {
		return fmt.Errorf("failed to delete evidence: %w", err)
	}
	return nil
}

// BulkInsert adds records in one transaction, skipping filenames already
// catalogued. It returns the number of new records.
func (r *EvidenceRepository) BulkInsert(records []models.EvidenceRecord) (int, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO evidence (filename, kind, subtype, camera, track_id, confidence, timestamp, filepath, filesize)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare evidence statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		result, err := stmt.Exec(rec.Filename, string(rec.Kind), rec.Subtype, rec.Camera, rec.TrackID,
			rec.Confidence, rec.Timestamp.UTC(), rec.FilePath, rec.FileSize)
		if err != nil {
			return 0, fmt.Errorf("failed to insert %s: %w", rec.Filename, err)
		}
		if n, err := result.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit evidence: %w", err)
	}
	return inserted, nil
}
