package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	failures "github.com/bryanwahyu/labellens/internal/domain/analysisfailures"
	domain "github.com/bryanwahyu/labellens/internal/domain/reports"
	"github.com/bryanwahyu/labellens/internal/domain/uploads"
)

type fakeRepo struct {
	rows      []*domain.StoredReport
	insertErr error
	deleteErr error
	listErr   error
}

func (f *fakeRepo) ListAll(ctx context.Context) ([]*domain.StoredReport, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.rows, nil
}

func (f *fakeRepo) Get(ctx context.Context, id domain.ReportID) (*domain.StoredReport, error) {
	for _, r := range f.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) Insert(ctx context.Context, r *domain.StoredReport) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows = append([]*domain.StoredReport{r}, f.rows...)
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id domain.ReportID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, r := range f.rows {
		if r.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeFiles struct {
	uploaded  map[string][]byte
	removed   []string
	uploadErr error
	removeErr error
	fetchErr  error
	text      string
}

func newFakeFiles() *fakeFiles { return &fakeFiles{uploaded: map[string][]byte{}} }

func (f *fakeFiles) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploaded[key] = data
	return key, nil
}

func (f *fakeFiles) Remove(ctx context.Context, fileURL string) error {
	f.removed = append(f.removed, fileURL)
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.uploaded, fileURL)
	return nil
}

func (f *fakeFiles) Resolve(fileURL string) string { return "http://blobs.local/" + fileURL }

func (f *fakeFiles) FetchText(ctx context.Context, fileURL string) (string, error) {
	if f.fetchErr != nil {
		return "", f.fetchErr
	}
	return f.text, nil
}

type fakeAnalyzer struct {
	res *domain.AnalysisResult
	err error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, up *domain.Upload) (*domain.AnalysisResult, error) {
	if up.Empty() {
		return nil, domain.ErrNoFileSelected
	}
	return f.res, f.err
}

type fakeFailures struct {
	saved []*failures.Failure
}

func (f *fakeFailures) Save(ctx context.Context, fl *failures.Failure) error {
	f.saved = append(f.saved, fl)
	return nil
}

func (f *fakeFailures) Latest(ctx context.Context, limit int) ([]*failures.Failure, error) {
	return f.saved, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newService(repo *fakeRepo, files *fakeFiles, an *fakeAnalyzer, fl *fakeFailures) *Service {
	svc := &Service{
		Repo:     repo,
		Analyzer: an,
		Files:    files,
		Clock:    fixedClock{t: time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC)},
	}
	if fl != nil {
		svc.Failures = fl
	}
	return svc
}

func TestAnalyzeAndStorePersistsReport(t *testing.T) {
	repo := &fakeRepo{}
	files := newFakeFiles()
	an := &fakeAnalyzer{res: &domain.AnalysisResult{
		ComplianceFindings: []domain.ComplianceFinding{
			{Law: "MoCRA", Severity: domain.SeverityHigh, Confidence: 0.8},
		},
	}}
	svc := newService(repo, files, an, nil)

	up := &domain.Upload{Filename: "label.pdf", ContentType: "application/pdf", Content: []byte("%PDF-")}
	report, err := svc.AnalyzeAndStore(context.Background(), up)
	if err != nil {
		t.Fatalf("analyze and store: %v", err)
	}
	if report.ID == "" {
		t.Error("report must get an id")
	}
	if report.Filename != "label.pdf" {
		t.Errorf("filename = %s", report.Filename)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(repo.rows))
	}
	if len(files.uploaded) != 1 {
		t.Fatalf("blobs = %d, want 1", len(files.uploaded))
	}
	if report.IssueCounts.High != 1 || report.IssueCounts.Total != 1 {
		t.Errorf("issue counts = %+v", report.IssueCounts)
	}
	if report.ComplianceScore == nil || *report.ComplianceScore != 80 {
		t.Errorf("score = %v, want 80", report.ComplianceScore)
	}
}

func TestAnalyzeAndStoreAnalyzerFailurePersistsNothing(t *testing.T) {
	repo := &fakeRepo{}
	files := newFakeFiles()
	fl := &fakeFailures{}
	an := &fakeAnalyzer{err: &domain.TransportError{Status: 500, Message: "boom"}}
	svc := newService(repo, files, an, fl)

	_, err := svc.AnalyzeAndStore(context.Background(), &domain.Upload{Filename: "x.txt", Content: []byte("x")})
	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if len(repo.rows) != 0 || len(files.uploaded) != 0 {
		t.Error("nothing may be persisted when analysis fails")
	}
	if len(fl.saved) != 1 || fl.saved[0].Stage != "analyze" {
		t.Errorf("failure log = %+v, want one analyze-stage entry", fl.saved)
	}
}

func TestAnalyzeAndStoreInsertFailureCleansBlob(t *testing.T) {
	repo := &fakeRepo{insertErr: errors.New("db down")}
	files := newFakeFiles()
	an := &fakeAnalyzer{res: &domain.AnalysisResult{}}
	svc := newService(repo, files, an, nil)

	_, err := svc.AnalyzeAndStore(context.Background(), &domain.Upload{Filename: "x.txt", Content: []byte("x")})
	if err == nil {
		t.Fatal("want error when the row insert fails")
	}
	if len(files.removed) != 1 {
		t.Errorf("orphan blob must be removed, removed=%v", files.removed)
	}
}

// gateAnalyzer parks the first call until released so a second call can be
// issued while the first is still in flight.
type gateAnalyzer struct {
	entered chan struct{}
	release chan struct{}
	res     *domain.AnalysisResult
}

func (g *gateAnalyzer) Analyze(ctx context.Context, up *domain.Upload) (*domain.AnalysisResult, error) {
	close(g.entered)
	<-g.release
	return g.res, nil
}

func TestAnalyzeRejectsSecondUploadWhileInFlight(t *testing.T) {
	an := &gateAnalyzer{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		res:     &domain.AnalysisResult{},
	}
	repo := &fakeRepo{}
	svc := &Service{
		Repo:     repo,
		Analyzer: an,
		Files:    newFakeFiles(),
		Session:  uploads.NewSession(),
		Clock:    fixedClock{t: time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC)},
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.AnalyzeAndStore(context.Background(), &domain.Upload{Filename: "a.txt", Content: []byte("a")})
		done <- err
	}()
	<-an.entered

	_, err := svc.AnalyzeAndStore(context.Background(), &domain.Upload{Filename: "b.txt", Content: []byte("b")})
	if !errors.Is(err, uploads.ErrAnalysisInFlight) {
		t.Fatalf("err = %v, want ErrAnalysisInFlight", err)
	}

	close(an.release)
	if err := <-done; err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if svc.Session.State() != uploads.StateSucceeded {
		t.Errorf("session state = %s, want succeeded", svc.Session.State())
	}
	if len(repo.rows) != 1 {
		t.Errorf("rows = %d, only the first upload may persist", len(repo.rows))
	}
}

func TestAnalyzeSessionRecordsFailureOutcome(t *testing.T) {
	an := &fakeAnalyzer{err: &domain.TransportError{Status: 500, Message: "boom"}}
	svc := newService(&fakeRepo{}, newFakeFiles(), an, nil)
	svc.Session = uploads.NewSession()

	_, err := svc.AnalyzeAndStore(context.Background(), &domain.Upload{Filename: "x.txt", Content: []byte("x")})
	if err == nil {
		t.Fatal("want analyzer error")
	}
	if svc.Session.State() != uploads.StateFailed {
		t.Errorf("session state = %s, want failed", svc.Session.State())
	}
	// a failed session accepts the next upload
	an.err = nil
	an.res = &domain.AnalysisResult{}
	if _, err := svc.AnalyzeAndStore(context.Background(), &domain.Upload{Filename: "y.txt", Content: []byte("y")}); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestDeleteRemovesRowDespiteBlobFailure(t *testing.T) {
	report := &domain.StoredReport{ID: "r1", FileURL: "reports/r1.pdf"}
	repo := &fakeRepo{rows: []*domain.StoredReport{report}}
	files := newFakeFiles()
	files.removeErr = errors.New("storage unreachable")
	svc := newService(repo, files, &fakeAnalyzer{}, nil)

	if err := svc.Delete(context.Background(), "r1"); err != nil {
		t.Fatalf("delete must succeed even when blob removal fails: %v", err)
	}
	list, _ := svc.List(context.Background())
	for _, r := range list {
		if r.ID == "r1" {
			t.Error("deleted report still listed")
		}
	}
	if len(files.removed) != 1 {
		t.Errorf("blob removal must still be attempted, removed=%v", files.removed)
	}
}

func TestDeleteUnknownReport(t *testing.T) {
	svc := newService(&fakeRepo{}, newFakeFiles(), &fakeAnalyzer{}, nil)
	if err := svc.Delete(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDashboardAggregatesHistory(t *testing.T) {
	s1, s2 := 60, 80
	repo := &fakeRepo{rows: []*domain.StoredReport{
		{ID: "new", ComplianceScore: &s1, IssueCounts: domain.IssueCounts{High: 1, Total: 1},
			RecentIssues: []domain.RecentIssue{{Law: "FDA", Severity: domain.SeverityHigh}}},
		{ID: "old", ComplianceScore: &s2, IssueCounts: domain.IssueCounts{Low: 2, Total: 2}},
	}}
	svc := newService(repo, newFakeFiles(), &fakeAnalyzer{}, nil)

	m, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if m.AverageScore != 70 || m.ScoreDelta != -20 {
		t.Errorf("metrics = %+v, want average 70 delta -20", m)
	}
	if m.IssueTotals.High != 1 || m.IssueTotals.Low != 2 || m.IssueTotals.Total != 3 {
		t.Errorf("issue totals = %+v", m.IssueTotals)
	}
	if len(m.MostRecentIssues) != 1 || m.MostRecentIssues[0].Law != "FDA" {
		t.Errorf("most recent issues = %+v", m.MostRecentIssues)
	}
}

func TestDashboardStoreFailureLeavesNoPartialState(t *testing.T) {
	repo := &fakeRepo{listErr: errors.New("store down")}
	svc := newService(repo, newFakeFiles(), &fakeAnalyzer{}, nil)

	m, err := svc.Dashboard(context.Background())
	if err == nil {
		t.Fatal("want error on store failure")
	}
	if m.HasReports || m.AverageScore != 0 {
		t.Errorf("metrics = %+v, want zero value alongside the error", m)
	}
}
