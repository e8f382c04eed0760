package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dtnitsch/sitebrief/models"
)

// ErrNotFound is returned when a record does not exist for the given owner.
var ErrNotFound = errors.New("record not found")

// Record is one stored analysis: the source row joined with its most
// recent snapshot.
type Record struct {
	ID        int64                 `json:"id" yaml:"id"`
	OwnerID   string                `json:"owner_id" yaml:"owner_id"`
	URL       string                `json:"url" yaml:"url"`
	Mode      models.Mode           `json:"mode" yaml:"mode"`
	Title     string                `json:"title" yaml:"title"`
	CreatedAt time.Time             `json:"created_at" yaml:"created_at"`
	Result    models.AnalysisResult `json:"result" yaml:"result"`
}

// CreateRecord stores one analysis result. Re-analyzing the same URL and
// mode for the same owner reuses the source row and appends a snapshot,
// keeping history per source. The source upsert and the snapshot insert
// commit together, so a failed insert leaves no orphan source behind. The
// source id is returned.
func (s *Store) CreateRecord(ownerID string, mode models.Mode, url string, result models.AnalysisResult) (int64, error) {
	structured, err := json.Marshal(result.Structured)
	if err != nil {
		return 0, fmt.Errorf("failed to encode structured section: %w", err)
	}
	brief, err := json.Marshal(result.Brief)
	if err != nil {
		return 0, fmt.Errorf("failed to encode brief section: %w", err)
	}

	var scores sql.NullString
	if len(result.ConfidenceScores) > 0 {
		b, err := json.Marshal(result.ConfidenceScores)
		if err != nil {
			return 0, fmt.Errorf("failed to encode confidence scores: %w", err)
		}
		scores = sql.NullString{String: string(b), Valid: true}
	}

	tx, err := s.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sourceID, err := upsertSource(tx, ownerID, mode, url, result.Title)
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(`
		INSERT INTO snapshots (source_id, structured_json, brief_json, raw_text, confidence_scores)
		VALUES (?, ?, ?, ?, ?)
	`, sourceID, string(structured), string(brief), result.RawText, scores)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit record: %w", err)
	}
	return sourceID, nil
}

// upsertSource inserts a source row, or refreshes the title of an existing
// one and returns its id.
func upsertSource(tx *sql.Tx, ownerID string, mode models.Mode, url, title string) (int64, error) {
	var existingID int64
	err := tx.QueryRow(
		"SELECT source_id FROM sources WHERE owner_id = ? AND url = ? AND mode = ?",
		ownerID, url, string(mode),
	).Scan(&existingID)
	if err == nil {
		if _, err := tx.Exec("UPDATE sources SET title = ? WHERE source_id = ?", title, existingID); err != nil {
			return 0, fmt.Errorf("failed to update source title: %w", err)
		}
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check existing source: %w", err)
	}

	res, err := tx.Exec(`
		INSERT INTO sources (owner_id, url, mode, title)
		VALUES (?, ?, ?, ?)
	`, ownerID, url, string(mode), title)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source: %w", err)
	}

	sourceID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get source ID: %w", err)
	}
	return sourceID, nil
}

const recordQuery = `
	SELECT s.source_id, s.owner_id, s.url, s.mode, s.title, s.created_at,
	       sn.structured_json, sn.brief_json, sn.raw_text, sn.confidence_scores
	FROM sources s
	JOIN snapshots sn ON sn.source_id = s.source_id
	WHERE sn.snapshot_id = (
		SELECT MAX(snapshot_id) FROM snapshots WHERE source_id = s.source_id
	)`

// ListRecords returns the owner's records, newest first.
func (s *Store) ListRecords(ownerID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Query(recordQuery+`
		AND s.owner_id = ?
		ORDER BY s.created_at DESC, s.source_id DESC
		LIMIT ?
	`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// SearchRecords returns the owner's records whose URL or title contains
// the query, newest first.
func (s *Store) SearchRecords(ownerID, query string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + query + "%"
	rows, err := s.Query(recordQuery+`
		AND s.owner_id = ?
		AND (s.url LIKE ? OR s.title LIKE ?)
		ORDER BY s.created_at DESC, s.source_id DESC
		LIMIT ?
	`, ownerID, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetRecord returns one record by source id, scoped to the owner.
func (s *Store) GetRecord(ownerID string, id int64) (*Record, error) {
	row := s.QueryRow(recordQuery+`
		AND s.owner_id = ?
		AND s.source_id = ?
	`, ownerID, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteRecord removes one record and its snapshots, scoped to the owner.
func (s *Store) DeleteRecord(ownerID string, id int64) error {
	res, err := s.Exec("DELETE FROM sources WHERE owner_id = ? AND source_id = ?", ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var mode, structured, brief string
	var scores sql.NullString
	err := row.Scan(&rec.ID, &rec.OwnerID, &rec.URL, &mode, &rec.Title, &rec.CreatedAt,
		&structured, &brief, &rec.Result.RawText, &scores)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	rec.Mode = models.Mode(mode)
	rec.Result.Title = rec.Title

	if err := json.Unmarshal([]byte(brief), &rec.Result.Brief); err != nil {
		return nil, fmt.Errorf("failed to decode brief section: %w", err)
	}
	s, err := decodeStructured(rec.Mode, structured)
	if err != nil {
		return nil, err
	}
	rec.Result.Structured = s

	if scores.Valid {
		if err := json.Unmarshal([]byte(scores.String), &rec.Result.ConfidenceScores); err != nil {
			return nil, fmt.Errorf("failed to decode confidence scores: %w", err)
		}
	}

	return &rec, nil
}

// decodeStructured rebuilds the mode-tagged variant from its stored JSON.
// The stored object is the bare variant body; the mode column names which
// variant to decode into.
func decodeStructured(mode models.Mode, data string) (models.StructuredAnalysis, error) {
	out := models.StructuredAnalysis{Mode: mode}
	var err error
	switch mode {
	case models.ModeArticle:
		var v models.ArticleAnalysis
		err = json.Unmarshal([]byte(data), &v)
		out.Article = &v
	case models.ModeProduct:
		var v models.ProductAnalysis
		err = json.Unmarshal([]byte(data), &v)
		out.Product = &v
	case models.ModePolicy:
		var v models.PolicyAnalysis
		err = json.Unmarshal([]byte(data), &v)
		out.Policy = &v
	case models.ModeCompetitive:
		var v models.CompetitiveAnalysis
		err = json.Unmarshal([]byte(data), &v)
		out.Competitive = &v
	default:
		return out, fmt.Errorf("stored record has unknown mode %q", mode)
	}
	if err != nil {
		return out, fmt.Errorf("failed to decode structured section: %w", err)
	}
	return out, nil
}
