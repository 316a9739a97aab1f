package analysisfailures

import "time"

// Failure represents a persisted record of an analysis attempt that never
// produced a report. Kept for inspection; failures leave prior reports and
// dashboard state untouched.
type Failure struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Stage     string    `json:"stage"` // analyze | store-blob | store-row
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
