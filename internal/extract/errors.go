package extract

import (
	"errors"
	"fmt"
	"net/http"
)

// The extractors signal failures through three typed errors rather than the
// string-prefix convention the upload route used to rely on. The boundary
// layer maps each kind to an HTTP status and a user-facing summary that never
// names models or internal strategies.

// ValidationError reports an unusable request: no file supplied or a file
// type that no extractor supports.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// DataError reports model output that could not be coerced into the
// transaction schema: malformed JSON or a non-array result. It is terminal
// for the whole model sequence; a structurally bad response is not fixed by
// switching models.
type DataError struct {
	Model  string // model that produced the response, for logs only
	Reason string
	Err    error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model %s: %s: %v", e.Model, e.Reason, e.Err)
	}
	return fmt.Sprintf("model %s: %s", e.Model, e.Reason)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// AvailabilityError reports that every model in the fallback sequence failed
// with a timeout, transport error or empty response.
type AvailabilityError struct {
	LastErr string
}

func (e *AvailabilityError) Error() string {
	return "all models failed, last error: " + e.LastErr
}

// HTTPStatus maps an extraction error onto the status the boundary layer
// should respond with.
func HTTPStatus(err error) int {
	var (
		validationErr   *ValidationError
		dataErr         *DataError
		availabilityErr *AvailabilityError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &dataErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &availabilityErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the summary shown to the end user. Model names and
// vendor error prefixes stay in the logs; the user only sees which kind of
// failure occurred.
func UserMessage(err error) string {
	var (
		validationErr   *ValidationError
		dataErr         *DataError
		availabilityErr *AvailabilityError
	)
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Reason
	case errors.As(err, &dataErr):
		return "Data extraction failed: " + dataErr.Reason + "."
	case errors.As(err, &availabilityErr):
		return "API connection failed: the extraction service could not process the file. Please try again later."
	default:
		return "An unknown server error occurred while processing the file."
	}
}
