package reports

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bryanwahyu/labellens/internal/application"
	failures "github.com/bryanwahyu/labellens/internal/domain/analysisfailures"
	domain "github.com/bryanwahyu/labellens/internal/domain/reports"
	"github.com/bryanwahyu/labellens/internal/domain/uploads"
)

// Service implements the report use-cases. Safe for concurrent use; all
// shared state lives behind the Repo and Files ports.
type Service struct {
	Repo     domain.Repository
	Analyzer domain.Analyzer
	Files    domain.FileStore
	Failures failures.Repository // optional
	Session  *uploads.Session   // optional, one upload surface
	Clock    application.Clock
}

// AnalyzeAndStore runs the full upload flow: analysis call, blob upload,
// report row insert. Nothing is persisted when the analysis itself fails, so
// a failed upload never disturbs existing reports. With a Session configured
// a second upload while one is in flight fails with ErrAnalysisInFlight, and
// the session outcome for a superseded call is discarded.
func (s *Service) AnalyzeAndStore(ctx context.Context, up *domain.Upload) (*domain.StoredReport, error) {
	if s.Session == nil {
		return s.analyzeAndStore(ctx, up)
	}

	if err := s.Session.Select(); err != nil {
		return nil, err
	}
	gen, err := s.Session.Begin()
	if err != nil {
		return nil, err
	}
	report, err := s.analyzeAndStore(ctx, up)
	s.Session.Finish(gen, err == nil)
	return report, err
}

func (s *Service) analyzeAndStore(ctx context.Context, up *domain.Upload) (*domain.StoredReport, error) {
	res, err := s.Analyzer.Analyze(ctx, up)
	if err != nil {
		s.recordFailure(ctx, up, "analyze", err)
		return nil, err
	}

	now := s.Clock.Now()
	id := domain.ReportID(uuid.New().String())
	key := fmt.Sprintf("reports/%s%s", id, filepath.Ext(up.Filename))

	fileURL, err := s.Files.Upload(ctx, key, up.Content, up.ContentType)
	if err != nil {
		s.recordFailure(ctx, up, "store-blob", err)
		return nil, fmt.Errorf("storing uploaded file: %w", err)
	}

	report := domain.NewStoredReport(id, up.Filename, fileURL, now, res)
	if err := s.Repo.Insert(ctx, report); err != nil {
		s.recordFailure(ctx, up, "store-row", err)
		// the blob is disposable; the row is the source of truth
		if rerr := s.Files.Remove(ctx, fileURL); rerr != nil {
			log.Printf("orphan blob cleanup failed: key=%s err=%v", fileURL, rerr)
		}
		return nil, fmt.Errorf("inserting report: %w", err)
	}
	return report, nil
}

// List returns all persisted reports, newest first.
func (s *Service) List(ctx context.Context) ([]*domain.StoredReport, error) {
	return s.Repo.ListAll(ctx)
}

// Get returns one report by id.
func (s *Service) Get(ctx context.Context, id domain.ReportID) (*domain.StoredReport, error) {
	return s.Repo.Get(ctx, id)
}

// Delete removes the report row, then removes the backing blob best-effort.
// A blob removal failure is logged and never rolls back the row deletion:
// the user-visible effect (report gone from the list) already succeeded.
func (s *Service) Delete(ctx context.Context, id domain.ReportID) error {
	report, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	if report.FileURL != "" {
		if err := s.Files.Remove(ctx, report.FileURL); err != nil {
			log.Printf("report deleted but blob removal failed: id=%s url=%s err=%v",
				id, report.FileURL, err)
		}
	}
	return nil
}

// Dashboard recomputes the derived metrics from the full report history.
// Recompute-per-read is intentional at this scale; there is no cached
// aggregate to go stale.
func (s *Service) Dashboard(ctx context.Context) (domain.DashboardMetrics, error) {
	list, err := s.Repo.ListAll(ctx)
	if err != nil {
		return domain.DashboardMetrics{}, err
	}
	return domain.Aggregate(list), nil
}

// RecentFailures returns the latest analysis failures for inspection.
// Returns an empty slice when no failure log is configured.
func (s *Service) RecentFailures(ctx context.Context, limit int) ([]*failures.Failure, error) {
	if s.Failures == nil {
		return []*failures.Failure{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.Failures.Latest(ctx, limit)
}

func (s *Service) recordFailure(ctx context.Context, up *domain.Upload, stage string, cause error) {
	if s.Failures == nil {
		return
	}
	filename := ""
	if up != nil {
		filename = up.Filename
	}
	f := &failures.Failure{
		Filename:  filename,
		Stage:     stage,
		Message:   cause.Error(),
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Failures.Save(ctx, f); err != nil {
		log.Printf("recording analysis failure: %v", err)
	}
}
