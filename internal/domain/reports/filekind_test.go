package reports

import "testing"

func TestResolveKind(t *testing.T) {
	cases := []struct {
		name      string
		mediaType string
		url       string
		want      FileKind
	}{
		{"image media type wins", "image/png", "https://x/y.pdf", FileKindImage},
		{"image media type no url", "image/jpeg", "", FileKindImage},
		{"stored png key no media type", "", "reports/r1.png", FileKindImage},
		{"stored jpg key no media type", "", "reports/r1.jpg", FileKindImage},
		{"stored jpeg key no media type", "", "reports/r1.jpeg", FileKindImage},
		{"stored webp key no media type", "", "reports/r1.webp", FileKindImage},
		{"image url ignores query", "", "https://x/photo.PNG?token=abc", FileKindImage},
		{"pdf media type", "application/pdf", "", FileKindPDF},
		{"pdf by url suffix", "", "https://x/y.pdf", FileKindPDF},
		{"pdf suffix ignores query", "", "https://x/y.pdf?token=abc", FileKindPDF},
		{"pdf uppercase suffix", "", "https://x/Y.PDF", FileKindPDF},
		{"text media type", "text/plain", "", FileKindPlainText},
		{"text media type with charset", "text/plain; charset=utf-8", "", FileKindPlainText},
		{"text by url suffix", "", "https://x/notes.txt", FileKindPlainText},
		{"relative storage key", "", "reports/abc.txt", FileKindPlainText},
		{"unknown suffix", "", "https://x/y.unknown", FileKindUnsupported},
		{"no signals", "", "", FileKindUnsupported},
		{"octet stream with pdf url", "application/octet-stream", "https://x/label.pdf", FileKindPDF},
		{"docx unsupported", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "https://x/y.docx", FileKindUnsupported},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ResolveKind(c.mediaType, c.url); got != c.want {
				t.Errorf("ResolveKind(%q, %q) = %s, want %s", c.mediaType, c.url, got, c.want)
			}
		})
	}
}
