package reports

import (
	"encoding/json"
	"strings"
)

// SeverityLevel enum
type SeverityLevel string

const (
	SeverityCritical SeverityLevel = "critical"
	SeverityHigh     SeverityLevel = "high"
	SeverityMedium   SeverityLevel = "medium"
	SeverityLow      SeverityLevel = "low"
	SeverityUnknown  SeverityLevel = "unknown"
)

// Classify maps a free-form severity string to a SeverityLevel.
// Matching is case-insensitive; anything outside the four known levels
// (including the empty string) resolves to SeverityUnknown.
func Classify(raw string) SeverityLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium":
		return SeverityMedium
	case "low":
		return SeverityLow
	default:
		return SeverityUnknown
	}
}

// Rank gives the total order critical > high > medium > low for sorting
// issue lists most-severe-first. Unknown ranks below low.
func (l SeverityLevel) Rank() int {
	switch l {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// DisplayStyle is the color/label pairing used by both the upload-result
// view and the dashboard issue list.
type DisplayStyle struct {
	Color string `json:"color"`
	Label string `json:"label"`
}

// Style returns the presentation token for a level. Total: unknown levels
// still render, they just never count toward severity totals.
func (l SeverityLevel) Style() DisplayStyle {
	switch l {
	case SeverityCritical:
		return DisplayStyle{Color: "red", Label: "CRITICAL"}
	case SeverityHigh:
		return DisplayStyle{Color: "orange", Label: "HIGH"}
	case SeverityMedium:
		return DisplayStyle{Color: "yellow", Label: "MEDIUM"}
	case SeverityLow:
		return DisplayStyle{Color: "green", Label: "LOW"}
	default:
		return DisplayStyle{Color: "gray", Label: "UNKNOWN"}
	}
}

// UnmarshalJSON re-classifies on decode so stored rows written before
// normalization (or by other writers) still come back as a known tier.
func (l *SeverityLevel) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*l = Classify(s)
	return nil
}
