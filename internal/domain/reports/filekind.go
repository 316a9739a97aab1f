package reports

import (
	"net/url"
	"strings"
)

// FileKind enum for preview dispatch
type FileKind string

const (
	FileKindImage       FileKind = "image"
	FileKindPDF         FileKind = "pdf"
	FileKindPlainText   FileKind = "plain_text"
	FileKindUnsupported FileKind = "unsupported"
)

// ResolveKind decides which preview strategy applies to a file. A freshly
// uploaded file carries a reliable media type but no stable URL, while a file
// fetched back from storage carries a URL but may have lost its media type on
// the round-trip, so the resolver works from whichever signal is available.
//
// Priority order: image (media type or image extension), then PDF (media
// type or .pdf path), then plain text (media type or .txt path), else
// unsupported.
func ResolveKind(mediaType, rawURL string) FileKind {
	mt := normalizeMediaType(mediaType)
	path := urlPath(rawURL)

	if strings.HasPrefix(mt, "image/") || hasImageExt(path) {
		return FileKindImage
	}
	if mt == "application/pdf" || strings.HasSuffix(path, ".pdf") {
		return FileKindPDF
	}
	if mt == "text/plain" || strings.HasSuffix(path, ".txt") {
		return FileKindPlainText
	}
	return FileKindUnsupported
}

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// hasImageExt matches the extensions of stored image keys; a file fetched
// back from storage has lost its media type, so the path is the only signal.
func hasImageExt(path string) bool {
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// normalizeMediaType lowercases and drops parameters ("; charset=utf-8").
func normalizeMediaType(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// urlPath extracts the lowercased path component so query strings and
// fragments never fool the suffix checks. Falls back to the raw string for
// relative storage keys that do not parse as URLs.
func urlPath(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return strings.ToLower(u.Path)
	}
	return strings.ToLower(rawURL)
}
