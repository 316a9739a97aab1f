package middleware

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Upload validation and sanitization utilities

const docxMediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".txt":  true,
	".docx": true,
}

// ValidateUpload checks the uploaded document before it is sent anywhere.
// Either the declared media type or the filename extension must identify a
// supported document kind.
func ValidateUpload(filename, contentType string, size, maxSize int64) error {
	if filename == "" {
		return fmt.Errorf("filename is required")
	}
	if size <= 0 {
		return fmt.Errorf("file is empty")
	}
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("file too large: %d bytes (max %d)", size, maxSize)
	}

	if mediaTypeAllowed(contentType) {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if allowedExtensions[ext] {
		return nil
	}
	return fmt.Errorf("unsupported file type: %q (allowed: pdf, png, jpg, jpeg, webp, txt, docx)", filename)
}

func mediaTypeAllowed(contentType string) bool {
	mt := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch {
	case strings.HasPrefix(mt, "image/"):
		return true
	case mt == "application/pdf", mt == "text/plain", mt == docxMediaType:
		return true
	}
	return false
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFilename strips directory components and anything outside a safe
// character set so a client-supplied name can be used in storage keys.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}
