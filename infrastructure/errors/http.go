// Package errors turns non-2xx responses from third-party APIs into
// structured errors.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MinErrorStatusCode is the lowest status code treated as an error.
const MinErrorStatusCode = 400

// maxErrorBody bounds how much of an error body is kept.
const maxErrorBody = 4 << 10

// HTTPError represents an HTTP API error response.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error (%s): %s", e.Status, e.Message)
	}
	return "HTTP error: " + e.Status
}

// ParseHTTPError returns nil for status codes below 400 and an *HTTPError
// otherwise, extracting "error" or "message" from JSON bodies.
func ParseHTTPError(resp *http.Response) error {
	if resp.StatusCode < MinErrorStatusCode {
		return nil
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    fmt.Sprintf("failed to read error response body: %v", err),
		}
	}
	body := string(bodyBytes)

	var jsonErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := body
	if json.Unmarshal(bodyBytes, &jsonErr) == nil {
		switch {
		case jsonErr.Error != "":
			msg = jsonErr.Error
		case jsonErr.Message != "":
			msg = jsonErr.Message
		}
	}

	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
		Message:    msg,
	}
}

// GetHTTPStatusCode extracts the status code from an error chain holding
// an *HTTPError.
func GetHTTPStatusCode(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}
