package reports

import (
	"math"
	"sort"
	"time"
)

// ID tipe untuk Report
type ReportID string

// Claim is one marketing claim extracted from a label
type Claim struct {
	Text     string        `json:"claim_text"`
	Type     string        `json:"claim_type"`
	Severity SeverityLevel `json:"severity"`
}

// Ingredient extracted from a label
type Ingredient struct {
	Name       string `json:"ingredient_name"`
	IsAllergen bool   `json:"is_allergen"`
	Function   string `json:"function,omitempty"`
}

// ComplianceFinding is a single matched regulatory concern. Confidence is a
// calibration signal from the analysis service; Score is the per-law
// compliance score when the service provides one.
type ComplianceFinding struct {
	Law        string        `json:"law"`
	Confidence float64       `json:"confidence"`
	Reason     string        `json:"reason"`
	Severity   SeverityLevel `json:"severity"`
	Score      *int          `json:"compliance_score,omitempty"`
}

// AnalysisResult is the normalized output of one analysis call. Produced once
// at the pipeline boundary and immutable thereafter; the slices are never nil.
type AnalysisResult struct {
	DocumentInfo       map[string]any      `json:"document_info,omitempty"`
	Claims             []Claim             `json:"claims"`
	Ingredients        []Ingredient        `json:"ingredients"`
	ComplianceFindings []ComplianceFinding `json:"compliance_analysis"`
}

// IssueCounts value object. Unknown-severity findings are rendered but never
// counted here; Resolved tracks issues cleared after review.
type IssueCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Resolved int `json:"resolved"`
	Total    int `json:"total"`
}

// RecentIssue is one row of a report's issue window
type RecentIssue struct {
	Law      string        `json:"law"`
	Severity SeverityLevel `json:"severity"`
	Date     time.Time     `json:"date"`
}

// Aggregate Root: StoredReport, the durable record of one completed analysis.
// Created exactly once when an analysis completes; never mutated after
// creation (corrections require a new report).
type StoredReport struct {
	ID              ReportID            `json:"id"`
	Filename        string              `json:"filename"`
	FileURL         string              `json:"file_url"`
	CreatedAt       time.Time           `json:"created_at"`
	ComplianceScore *int                `json:"compliance_score,omitempty"`
	IssueCounts     IssueCounts         `json:"issue_counts"`
	RecentIssues    []RecentIssue       `json:"recent_issues"`
	Claims          []Claim             `json:"claims,omitempty"`
	Ingredients     []Ingredient        `json:"ingredients,omitempty"`
	Findings        []ComplianceFinding `json:"compliance_findings,omitempty"`
}

// severity penalties applied when the analysis service sends no per-law scores
const (
	penaltyCritical = 30
	penaltyHigh     = 20
	penaltyMedium   = 10
	penaltyLow      = 5
)

// NewStoredReport derives the durable record from a normalized analysis
// result: severity-bucketed issue counts, the report's own issue window
// (most-severe-first), and the computed compliance score.
func NewStoredReport(id ReportID, filename, fileURL string, createdAt time.Time, res *AnalysisResult) *StoredReport {
	r := &StoredReport{
		ID:           id,
		Filename:     filename,
		FileURL:      fileURL,
		CreatedAt:    createdAt,
		RecentIssues: []RecentIssue{},
	}
	if res == nil {
		score := 100
		r.ComplianceScore = &score
		return r
	}

	for _, f := range res.ComplianceFindings {
		switch f.Severity {
		case SeverityCritical:
			r.IssueCounts.Critical++
		case SeverityHigh:
			r.IssueCounts.High++
		case SeverityMedium:
			r.IssueCounts.Medium++
		case SeverityLow:
			r.IssueCounts.Low++
		}
		r.RecentIssues = append(r.RecentIssues, RecentIssue{
			Law:      f.Law,
			Severity: f.Severity,
			Date:     createdAt,
		})
	}
	r.IssueCounts.Total = r.IssueCounts.Critical + r.IssueCounts.High +
		r.IssueCounts.Medium + r.IssueCounts.Low

	sort.SliceStable(r.RecentIssues, func(i, j int) bool {
		return r.RecentIssues[i].Severity.Rank() > r.RecentIssues[j].Severity.Rank()
	})

	score := computeScore(res.ComplianceFindings)
	r.ComplianceScore = &score
	r.Claims = res.Claims
	r.Ingredients = res.Ingredients
	r.Findings = res.ComplianceFindings
	return r
}

// computeScore averages the per-law scores when the service provides them,
// otherwise falls back to severity penalties. Always clamped to [0,100].
func computeScore(findings []ComplianceFinding) int {
	sum, n := 0, 0
	for _, f := range findings {
		if f.Score != nil {
			sum += *f.Score
			n++
		}
	}
	if n > 0 {
		return clampScore(int(math.Round(float64(sum) / float64(n))))
	}

	score := 100
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			score -= penaltyCritical
		case SeverityHigh:
			score -= penaltyHigh
		case SeverityMedium:
			score -= penaltyMedium
		case SeverityLow:
			score -= penaltyLow
		}
	}
	return clampScore(score)
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
