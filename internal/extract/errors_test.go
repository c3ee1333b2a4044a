package extract

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &ValidationError{Reason: "No file uploaded"}, http.StatusBadRequest},
		{"data", &DataError{Model: "m", Reason: "malformed JSON"}, http.StatusUnprocessableEntity},
		{"availability", &AvailabilityError{LastErr: "timeout"}, http.StatusServiceUnavailable},
		{"wrapped data", fmt.Errorf("extract: %w", &DataError{Model: "m", Reason: "r"}), http.StatusUnprocessableEntity},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "No file uploaded", UserMessage(&ValidationError{Reason: "No file uploaded"}))

	dataMsg := UserMessage(&DataError{Model: "gemini-2.5-flash", Reason: "the response contained malformed JSON; the file may be too complex"})
	assert.Equal(t, "Data extraction failed: the response contained malformed JSON; the file may be too complex.", dataMsg)
	assert.NotContains(t, dataMsg, "gemini")

	availMsg := UserMessage(&AvailabilityError{LastErr: "gemini-2.5-pro: deadline exceeded"})
	assert.Equal(t, "API connection failed: the extraction service could not process the file. Please try again later.", availMsg)
	assert.NotContains(t, availMsg, "gemini")

	assert.Equal(t, "An unknown server error occurred while processing the file.", UserMessage(errors.New("boom")))
}

func TestDataErrorUnwrap(t *testing.T) {
	inner := errors.New("unexpected end of JSON input")
	err := &DataError{Model: "m", Reason: "malformed JSON", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "malformed JSON")
}
