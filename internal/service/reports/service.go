package reports

import (
	"context"
	"errors"
	"fmt"

	"github.com/studylink/studylink-server/internal/store"
)

// Common errors for report operations.
var (
	ErrCannotReportSelf = errors.New("cannot report yourself")
	ErrEmptyReason      = errors.New("report reason is required")
	ErrUserNotFound     = errors.New("user not found")
	ErrReportNotFound   = errors.New("report not found")
	ErrInvalidStatus    = errors.New("invalid report status")
)

// Service provides moderation report business logic.
type Service struct {
	store store.Store
}

// New creates a report service.
func New(st store.Store) *Service {
	return &Service{store: st}
}

// Create files a report against another user.
func (s *Service) Create(ctx context.Context, reporterID, targetID, reason string) (*store.Report, error) {
	if reporterID == targetID {
		return nil, ErrCannotReportSelf
	}
	if reason == "" {
		return nil, ErrEmptyReason
	}

	if _, err := s.store.GetUserByID(ctx, targetID); err != nil {
		return nil, ErrUserNotFound
	}

	report, err := s.store.CreateReport(ctx, reporterID, targetID, reason)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	return report, nil
}

// ListAll returns every report, for moderators.
func (s *Service) ListAll(ctx context.Context) ([]*store.Report, error) {
	reports, err := s.store.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// MyWarnings returns the warnings issued against the user.
func (s *Service) MyWarnings(ctx context.Context, userID string) ([]*store.Report, error) {
	warned := store.ReportStatusWarned
	reports, err := s.store.ListReportsForTarget(ctx, userID, &warned)
	if err != nil {
		return nil, fmt.Errorf("list warnings: %w", err)
	}
	return reports, nil
}

// UpdateStatus moves a report to a new status. Banning locks the target
// account as a side effect.
func (s *Service) UpdateStatus(ctx context.Context, id string, to store.ReportStatus) (*store.Report, error) {
	switch to {
	case store.ReportStatusProcessing, store.ReportStatusWarned,
		store.ReportStatusBanned, store.ReportStatusCompleted, store.ReportStatusCanceled:
	default:
		return nil, ErrInvalidStatus
	}

	report, err := s.store.GetReport(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}

	if err := s.store.UpdateReportStatus(ctx, id, to); err != nil {
		return nil, fmt.Errorf("update report status: %w", err)
	}

	if to == store.ReportStatusBanned {
		if err := s.store.SetUserLock(ctx, report.TargetID, true); err != nil {
			return nil, fmt.Errorf("lock reported user: %w", err)
		}
	}

	report.Status = to
	return report, nil
}

// Delete removes a report.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteReport(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrReportNotFound
		}
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}
