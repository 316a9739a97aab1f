package reports

import "context"

// Upload is one user-selected file handed to the analysis pipeline.
// Documents are small, human-triggered, single-shot uploads, so the content
// is held in memory.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Empty reports whether there is anything to analyze.
func (u *Upload) Empty() bool {
	return u == nil || len(u.Content) == 0
}

// Repository port (interface untuk persistence). ListAll returns rows
// ordered newest-first by creation time; downstream aggregation relies on it.
type Repository interface {
	ListAll(ctx context.Context) ([]*StoredReport, error)
	Get(ctx context.Context, id ReportID) (*StoredReport, error)
	Insert(ctx context.Context, r *StoredReport) error
	Delete(ctx context.Context, id ReportID) error
}

// Analyzer port: the remote analysis capability. One multipart POST per call,
// no retry; implementations never consult the network when the upload is empty.
type Analyzer interface {
	Analyze(ctx context.Context, up *Upload) (*AnalysisResult, error)
}

// FileStore port for the backing blob objects. Upload returns the stored
// file URL (may be a relative storage key); Resolve turns a stored URL into
// a fetchable one. Remove is best-effort from the caller's perspective.
type FileStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, fileURL string) error
	Resolve(fileURL string) string
	FetchText(ctx context.Context, fileURL string) (string, error)
}
