package postgres

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

func (r *ReportRepository) Insert(ctx context.Context, rep *domain.StoredReport) error {
	const q = `
INSERT INTO compliance_reports
(id, filename, file_url, created_at, compliance_score,
 critical, high, medium, low, resolved, issues_total,
 recent_issues, claims, ingredients, findings)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15);
`
	recent, err := json.Marshal(rep.RecentIssues)
	if err != nil {
		return fmt.Errorf("encoding report column: %w", err)
	}
	claims, err := json.Marshal(rep.Claims)
	if err != nil {
		return fmt.Errorf("encoding report column: %w", err)
	}
	ingredients, err := json.Marshal(rep.Ingredients)
	if err != nil {
		return fmt.Errorf("encoding report column: %w", err)
	}
	findings, err := json.Marshal(rep.Findings)
	if err != nil {
		return fmt.Errorf("encoding report column: %w", err)
	}

	var score any
	if rep.ComplianceScore != nil {
		score = *rep.ComplianceScore
	}
	_, err = r.db.ExecContext(ctx, q,
		rep.ID, rep.Filename, rep.FileURL, rep.CreatedAt, score,
		rep.IssueCounts.Critical, rep.IssueCounts.High, rep.IssueCounts.Medium,
		rep.IssueCounts.Low, rep.IssueCounts.Resolved, rep.IssueCounts.Total,
		recent, claims, ingredients, findings,
	)
	return err
}

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
		var rep domain.StoredReport
		var score sql.NullInt64
		var recent []byte
		if err := rows.Scan(
			&rep.ID, &rep.Filename, &rep.FileURL, &rep.CreatedAt, &score,
			&rep.IssueCounts.Critical, &rep.IssueCounts.High, &rep.IssueCounts.Medium,
			&rep.IssueCounts.Low, &rep.IssueCounts.Resolved, &rep.IssueCounts.Total,
			&recent,
		); err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		if score.Valid {
			v := int(score.Int64)
			rep.ComplianceScore = &v
		}
		if len(recent) > 0 {
			if err := json.Unmarshal(recent, &rep.RecentIssues); err != nil {
				return nil, fmt.Errorf("decoding report column: %w", err)
			}
		}
		out = append(out, &rep)
	}
	return out, rows.Err()
}

func (r *ReportRepository) Get(ctx context.Context, id domain.ReportID) (*domain.StoredReport, error) {
	const q = `
SELECT id, filename, file_url, created_at, compliance_score,
       critical, high, medium, low, resolved, issues_total,
       recent_issues, claims, ingredients, findings
FROM compliance_reports
WHERE id=$1 LIMIT 1;
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

	if score.Valid {
		v := int(score.Int64)
		rep.ComplianceScore = &v
	}
	if err := decode(recent, &rep.RecentIssues); err != nil {
		return nil, err
	}
	if err := decode(claims, &rep.Claims); err != nil {
		return nil, err
	}
	if err := decode(ingredients, &rep.Ingredients); err != nil {
		return nil, err
	}
	if err := decode(findings, &rep.Findings); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *ReportRepository) Delete(ctx context.Context, id domain.ReportID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM compliance_reports WHERE id=$1;`, id)
	if err != nil {
		return fmt.Errorf("deleting report %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func decode[T any](b []byte, dst *T) error {
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decoding report column: %w", err)
	}
	return nil
}
