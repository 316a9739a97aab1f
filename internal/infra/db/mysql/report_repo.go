package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/bryanwahyu/labellens/internal/domain/reports"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Insert writes the report row. Sequences go into JSON columns; severity
// counts get their own columns so the dashboard fold stays visible in SQL
// tooling.
func (r *ReportRepository) Insert(ctx context.Context, rep *domain.StoredReport) error {
	const q = `
INSERT INTO compliance_reports
(id, filename, file_url, created_at, compliance_score,
 critical, high, medium, low, resolved, issues_total,
 recent_issues, claims, ingredients, findings)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);
`
	recent, err := marshalJSON(rep.RecentIssues)
	if err != nil {
		return err
	}
	claims, err := marshalJSON(rep.Claims)
	if err != nil {
		return err
	}
	ingredients, err := marshalJSON(rep.Ingredients)
	if err != nil {
		return err
	}
	findings, err := marshalJSON(rep.Findings)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, q,
		rep.ID, rep.Filename, rep.FileURL, rep.CreatedAt, nullableScore(rep.ComplianceScore),
		rep.IssueCounts.Critical, rep.IssueCounts.High, rep.IssueCounts.Medium,
		rep.IssueCounts.Low, rep.IssueCounts.Resolved, rep.IssueCounts.Total,
		recent, claims, ingredients, findings,
	)
	return err
}

// ListAll returns the light rows the dashboard and report list need, ordered
// newest-first. Claims/ingredients/findings stay out of this query.
func (r *ReportRepository) ListAll(ctx context.Context) ([]*domain.StoredReport, error) {
	const q = `
SELECT id, filename, file_url, created_at, compliance_score,
       critical, high, medium, low, resolved, issues_total, recent_issues
FROM compliance_reports
ORDER BY created_at DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var out []*domain.StoredReport
	for rows.Next() {
		rep, err := scanLightRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

// Get fetches the full report by id.
func (r *ReportRepository) Get(ctx context.Context, id domain.ReportID) (*domain.StoredReport, error) {
	const q = `
SELECT id, filename, file_url, created_at, compliance_score,
       critical, high, medium, low, resolved, issues_total,
       recent_issues, claims, ingredients, findings
FROM compliance_reports
WHERE id=? LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, id)

	var rep domain.StoredReport
	var score sql.NullInt64
	var recent, claims, ingredients, findings []byte
	err := row.Scan(
		&rep.ID, &rep.Filename, &rep.FileURL, &rep.CreatedAt, &score,
		&rep.IssueCounts.Critical, &rep.IssueCounts.High, &rep.IssueCounts.Medium,
		&rep.IssueCounts.Low, &rep.IssueCounts.Resolved, &rep.IssueCounts.Total,
		&recent, &claims, &ingredients, &findings,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching report %s: %w", id, err)
	}

	rep.ComplianceScore = scoreFromNull(score)
	if err := unmarshalJSON(recent, &rep.RecentIssues); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(claims, &rep.Claims); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(ingredients, &rep.Ingredients); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(findings, &rep.Findings); err != nil {
		return nil, err
	}
	return &rep, nil
}

// Delete removes the row. The caller handles the companion blob.
func (r *ReportRepository) Delete(ctx context.Context, id domain.ReportID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM compliance_reports WHERE id=?;`, id)
	if err != nil {
		return fmt.Errorf("deleting report %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type lightScanner interface {
	Scan(dest ...any) error
}

func scanLightRow(row lightScanner) (*domain.StoredReport, error) {
	var rep domain.StoredReport
	var score sql.NullInt64
	var recent []byte
	if err := row.Scan(
		&rep.ID, &rep.Filename, &rep.FileURL, &rep.CreatedAt, &score,
		&rep.IssueCounts.Critical, &rep.IssueCounts.High, &rep.IssueCounts.Medium,
		&rep.IssueCounts.Low, &rep.IssueCounts.Resolved, &rep.IssueCounts.Total,
		&recent,
	); err != nil {
		return nil, fmt.Errorf("scanning report row: %w", err)
	}
	rep.ComplianceScore = scoreFromNull(score)
	if err := unmarshalJSON(recent, &rep.RecentIssues); err != nil {
		return nil, err
	}
	return &rep, nil
}

func nullableScore(score *int) any {
	if score == nil {
		return nil
	}
	return *score
}

func scoreFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func marshalJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding report column: %w", err)
	}
	return b, nil
}

func unmarshalJSON[T any](b []byte, dst *T) error {
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decoding report column: %w", err)
	}
	return nil
}
