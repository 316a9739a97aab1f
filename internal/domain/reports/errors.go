package reports

import (
	"errors"
	"fmt"
)

// ErrNoFileSelected indicates analyze was invoked without a file; no network
// call is made in that case.
var ErrNoFileSelected = errors.New("no file selected")

// ErrMalformedResponse indicates the analysis service replied 2xx with a body
// that is not a JSON object.
var ErrMalformedResponse = errors.New("malformed analysis response")

// ErrNotFound indicates the requested report does not exist.
var ErrNotFound = errors.New("report not found")

// TransportError carries the non-success status code or the network error
// message from a failed analysis call.
type TransportError struct {
	Status  int
	Message string
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("analysis request failed: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("analysis request failed: %s", e.Message)
}
