// Package http holds small helpers shared by the outbound HTTP paths.
package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// ReadResponseBody reads and closes an HTTP response body.
func ReadResponseBody(resp *http.Response) ([]byte, error) {
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Error("Failed to close response body", "error", closeErr)
		}
	}()
	return io.ReadAll(resp.Body)
}

// GetContentType returns the Content-Type header of the response.
func GetContentType(resp *http.Response) string {
	return resp.Header.Get("Content-Type")
}

// EnsureStatusOK returns an error unless the response status is 200.
func EnsureStatusOK(resp *http.Response) error {
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d %s", resp.StatusCode, resp.Status)
	}
	return nil
}

// IsHTMLContentType reports whether the Content-Type names an HTML
// document. Scrapers skip responses that are not HTML to avoid feeding
// binary data into the parser.
func IsHTMLContentType(contentType string) bool {
	if contentType == "" {
		// Some servers omit the header for HTML pages, be lenient.
		return true
	}
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml+xml")
}
