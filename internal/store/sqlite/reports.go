package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/studylink/studylink-server/internal/store"
)

// ==== ReportStore implementation ====

// CreateReport persists a new report with processing status.
func (s *SQLiteStore) CreateReport(ctx context.Context, reporterID, targetID, reason string) (*store.Report, error) {
	id := newUUID()
	query := `
		INSERT INTO reports (id, reporter_id, target_id, reason, status)
		VALUES (?, ?, ?, ?, 'processing')
	`
	if _, err := s.db.ExecContext(ctx, query, id, reporterID, targetID, reason); err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	return s.GetReport(ctx, id)
}

// GetReport retrieves a report by ID.
func (s *SQLiteStore) GetReport(ctx context.Context, id string) (*store.Report, error) {
	query := `
		SELECT id, reporter_id, target_id, reason, status, created_at, updated_at
		FROM reports
		WHERE id = ?
	`
	var report store.Report
	var status string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&report.ID,
		&report.ReporterID,
		&report.TargetID,
		&report.Reason,
		&status,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query report: %w", err)
	}
	report.Status = store.ReportStatus(status)
	return &report, nil
}

// ListReports lists all reports, newest first.
func (s *SQLiteStore) ListReports(ctx context.Context) ([]*store.Report, error) {
	query := `
		SELECT id, reporter_id, target_id, reason, status, created_at, updated_at
		FROM reports
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// ListReportsForTarget lists reports filed against a user, optionally
// filtered by status.
func (s *SQLiteStore) ListReportsForTarget(ctx context.Context, targetID string, status *store.ReportStatus) ([]*store.Report, error) {
	var query string
	var args []any

	if status != nil {
		query = `
			SELECT id, reporter_id, target_id, reason, status, created_at, updated_at
			FROM reports
			WHERE target_id = ? AND status = ?
			ORDER BY created_at DESC
		`
		args = []any{targetID, string(*status)}
	} else {
		query = `
			SELECT id, reporter_id, target_id, reason, status, created_at, updated_at
			FROM reports
			WHERE target_id = ?
			ORDER BY created_at DESC
		`
		args = []any{targetID}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

func scanReports(rows *sql.Rows) ([]*store.Report, error) {
	var reports []*store.Report
	for rows.Next() {
		var report store.Report
		var status string
		if err := rows.Scan(&report.ID, &report.ReporterID, &report.TargetID, &report.Reason, &status, &report.CreatedAt, &report.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		report.Status = store.ReportStatus(status)
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}

// UpdateReportStatus sets a report's status.
func (s *SQLiteStore) UpdateReportStatus(ctx context.Context, id string, status store.ReportStatus) error {
	query := `
		UPDATE reports
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteReport deletes a report.
func (s *SQLiteStore) DeleteReport(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}
