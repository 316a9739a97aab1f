package reports

import "math"

// DashboardMetrics is derived, never persisted: a pure function of the
// StoredReport collection at read time.
type DashboardMetrics struct {
	AverageScore     int           `json:"average_score"`
	IssueTotals      IssueCounts   `json:"issue_totals"`
	MostRecentIssues []RecentIssue `json:"most_recent_issues"`
	ScoreDelta       int           `json:"score_delta"`
	HasReports       bool          `json:"has_reports"`
}

// Aggregate reduces the full report history into dashboard metrics.
//
// Callers must supply reports already ordered newest-first by creation time;
// the store adapter's list contract guarantees that ordering and Aggregate
// does not re-sort. With zero reports the average defaults to 100, read as
// "nothing to flag yet" rather than a real compliance measurement.
func Aggregate(list []*StoredReport) DashboardMetrics {
	m := DashboardMetrics{
		AverageScore:     100,
		MostRecentIssues: []RecentIssue{},
	}
	if len(list) == 0 {
		return m
	}
	m.HasReports = true

	// Reports missing a score are excluded from both numerator and
	// denominator, not treated as zero.
	sum, scored := 0, 0
	for _, r := range list {
		if r.ComplianceScore != nil {
			sum += *r.ComplianceScore
			scored++
		}
		m.IssueTotals.Critical += r.IssueCounts.Critical
		m.IssueTotals.High += r.IssueCounts.High
		m.IssueTotals.Medium += r.IssueCounts.Medium
		m.IssueTotals.Low += r.IssueCounts.Low
		m.IssueTotals.Resolved += r.IssueCounts.Resolved
		m.IssueTotals.Total += r.IssueCounts.Total
	}
	if scored > 0 {
		m.AverageScore = int(math.Round(float64(sum) / float64(scored)))
	}

	// The issue window comes verbatim from the newest report only: what is
	// new, not a running log.
	if len(list[0].RecentIssues) > 0 {
		m.MostRecentIssues = list[0].RecentIssues
	}

	// Week-over-week movement: newest score minus the score before it.
	if len(list) >= 2 && list[0].ComplianceScore != nil && list[1].ComplianceScore != nil {
		m.ScoreDelta = *list[0].ComplianceScore - *list[1].ComplianceScore
	}
	return m
}
