// Package testutil provides testing utilities for the Notion client and collectors.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// SearchPath is the search endpoint path.
const SearchPath = "/v1/search"

// DatabaseQueryPath returns the query endpoint path for a database ID.
func DatabaseQueryPath(id string) string {
	return "/v1/databases/" + id + "/query"
}

// MockNotionResponse defines the behavior for a mock Notion endpoint response.
type MockNotionResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockNotion is a configurable mock Notion API server for testing.
type MockNotion struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	requestCounts     map[string]int
	cursors           map[string][]string
	lastRequestHeader http.Header
}

// NewMockNotion creates a new mock Notion server.
func NewMockNotion() *MockNotion {
	mock := &MockNotion{
		handlers:      make(map[string]func(w http.ResponseWriter, r *http.Request)),
		requestCounts: make(map[string]int),
		cursors:       make(map[string][]string),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCounts[r.URL.Path]++
		mock.lastRequestHeader = r.Header.Clone()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		writeError(w, http.StatusNotFound, "object_not_found", "Could not find object at "+r.URL.Path)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockNotion) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockNotion) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockNotion) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCounts = make(map[string]int)
	m.cursors = make(map[string][]string)
	m.lastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockNotion) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockNotion) SetResponse(path string, resp MockNotionResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetListPages serves pages as a cursor-paginated list endpoint.
// The request's start_cursor selects the page; every page but the last
// reports has_more and a cursor of the form "cursor-<n>".
func (m *MockNotion) SetListPages(path string, pages ...[]map[string]any) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			StartCursor string `json:"start_cursor"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}

		m.mu.Lock()
		m.cursors[path] = append(m.cursors[path], body.StartCursor)
		m.mu.Unlock()

		index := 0
		if body.StartCursor != "" {
			n, err := strconv.Atoi(strings.TrimPrefix(body.StartCursor, "cursor-"))
			if err != nil || n < 1 || n >= len(pages) {
				writeError(w, http.StatusBadRequest, "validation_error", "invalid start_cursor")
				return
			}
			index = n
		}

		results := pages[index]
		if results == nil {
			results = []map[string]any{}
		}
		hasMore := index < len(pages)-1
		var next any
		if hasMore {
			next = fmt.Sprintf("cursor-%d", index+1)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"object":      "list",
			"results":     results,
			"next_cursor": next,
			"has_more":    hasMore,
		})
	})
}

// GetRequestCount returns the number of requests made to a path.
func (m *MockNotion) GetRequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCounts[path]
}

// GetCursors returns the start cursors received on a list path, in order.
func (m *MockNotion) GetCursors(path string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.cursors[path]...)
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockNotion) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// NewErrorResponse creates a Notion error object response.
func NewErrorResponse(status int, code, message string) MockNotionResponse {
	body, _ := json.Marshal(map[string]any{
		"object":  "error",
		"status":  status,
		"code":    code,
		"message": message,
	})
	return MockNotionResponse{
		StatusCode: status,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewUnauthorizedResponse creates a 401 response for an invalid token.
func NewUnauthorizedResponse() MockNotionResponse {
	return NewErrorResponse(http.StatusUnauthorized, "unauthorized", "API token is invalid.")
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockNotionResponse {
	resp := NewErrorResponse(http.StatusTooManyRequests, "rate_limited", "You have been rate limited.")
	resp.Headers["Retry-After"] = "1"
	return resp
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockNotionResponse {
	return NewErrorResponse(http.StatusInternalServerError, "internal_server_error", "Unexpected error occurred.")
}

// DatabaseObject builds a database search result.
func DatabaseObject(id, title string) map[string]any {
	return map[string]any{
		"object": "database",
		"id":     id,
		"title":  []map[string]any{{"type": "text", "plain_text": title}},
	}
}

// PageObject builds a database entry with a title and a status property.
// An empty status leaves the status unset.
func PageObject(id, title, status string) map[string]any {
	var statusValue any
	if status != "" {
		statusValue = map[string]any{"id": "s-" + status, "name": status, "color": "default"}
	}
	return map[string]any{
		"object": "page",
		"id":     id,
		"properties": map[string]any{
			"Name": map[string]any{
				"id":    "title",
				"type":  "title",
				"title": []map[string]any{{"type": "text", "plain_text": title}},
			},
			"Status": map[string]any{
				"id":     "status",
				"type":   "status",
				"status": statusValue,
			},
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"object":  "error",
		"status":  status,
		"code":    code,
		"message": message,
	})
}
