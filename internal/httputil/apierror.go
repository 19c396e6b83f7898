// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by API clients.
package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

// maxErrorBody bounds how much of an error response body is read for
// diagnostics.
const maxErrorBody = 4 << 10

// APIError is a non-2xx response from a remote API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// ErrorFromResponse builds an APIError from a non-2xx response. It prefers
// the message inside an {"error":{"message":...}} payload, falls back to a
// snippet of the raw body, and finally to the HTTP status text. The response
// body is consumed but not closed.
func ErrorFromResponse(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error.Message}
	}

	msg := Snippet(string(body), 200)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// Snippet trims s and shortens it to at most max bytes for diagnostics,
// appending "..." when shortened. The cut always lands on a rune boundary.
func Snippet(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "..."
}
