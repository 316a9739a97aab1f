package reports

import (
	"context"
	"log"

	domain "github.com/bryanwahyu/labellens/internal/domain/reports"
)

// Preview is the rendering decision for a stored file. Unavailable is a
// terminal display state, not an error: unsupported kinds and failed text
// fetches both degrade to it instead of surfacing a failure.
type Preview struct {
	Kind        domain.FileKind `json:"kind"`
	URL         string          `json:"url,omitempty"`
	Text        string          `json:"text,omitempty"`
	Unavailable bool            `json:"unavailable"`
}

// Preview resolves how a stored report's file should be rendered. The stored
// URL is the only signal left after the storage round-trip, so kind
// resolution runs on it alone.
func (s *Service) Preview(ctx context.Context, id domain.ReportID) (Preview, error) {
	report, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Preview{}, err
	}

	kind := domain.ResolveKind("", report.FileURL)
	p := Preview{Kind: kind}
	switch kind {
	case domain.FileKindImage, domain.FileKindPDF:
		p.URL = s.Files.Resolve(report.FileURL)
	case domain.FileKindPlainText:
		text, err := s.Files.FetchText(ctx, report.FileURL)
		if err != nil {
			log.Printf("text preview fetch failed: id=%s url=%s err=%v", id, report.FileURL, err)
			p.Unavailable = true
			return p, nil
		}
		p.URL = s.Files.Resolve(report.FileURL)
		p.Text = text
	default:
		p.Unavailable = true
	}
	return p, nil
}
