// Package testutil provides in-process stand-ins for the document store and
// the webhook endpoint.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// Firebase serves the Realtime Database REST shape from an in-memory tree.
type Firebase struct {
	*httptest.Server

	mu       sync.Mutex
	root     map[string]any
	failing  bool
	nextKey  int
	requests []Request
}

type Request struct {
	Method string
	Path   string
	Body   string
}

func NewFirebase(t testing.TB) *Firebase {
	t.Helper()

	fb := &Firebase{root: map[string]any{}}
	fb.Server = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.Close)
	return fb
}

// SetRaw stores a JSON literal at path, bypassing the HTTP surface.
func (fb *Firebase) SetRaw(t testing.TB, path, raw string) {
	t.Helper()

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("testutil: bad json for %s: %v", path, err)
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.set(split(path), v)
}

// Raw returns the JSON stored at path, "null" when absent.
func (fb *Firebase) Raw(t testing.TB, path string) string {
	t.Helper()

	fb.mu.Lock()
	defer fb.mu.Unlock()
	b, err := json.Marshal(fb.get(split(path)))
	if err != nil {
		t.Fatalf("testutil: marshal %s: %v", path, err)
	}
	return string(b)
}

// SetFailing makes every request answer 500 until switched back.
func (fb *Firebase) SetFailing(failing bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failing = failing
}

func (fb *Firebase) Requests() []Request {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]Request(nil), fb.requests...)
}

// Count returns how many requests used method on path.
func (fb *Firebase) Count(method, path string) int {
	n := 0
	for _, r := range fb.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (fb *Firebase) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimSuffix(strings.Trim(r.URL.Path, "/"), ".json")

	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.requests = append(fb.requests, Request{Method: r.Method, Path: path, Body: string(body)})

	if fb.failing {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	var doc any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &doc); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid data; couldn't parse JSON object."})
			return
		}
	}

	segments := split(path)
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, fb.get(segments))
	case http.MethodPut:
		fb.set(segments, doc)
		writeJSON(w, http.StatusOK, doc)
	case http.MethodPatch:
		partial, ok := doc.(map[string]any)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid data; couldn't parse JSON object."})
			return
		}
		current, _ := fb.get(segments).(map[string]any)
		if current == nil {
			current = map[string]any{}
		}
		for k, v := range partial {
			current[k] = v
		}
		fb.set(segments, current)
		writeJSON(w, http.StatusOK, partial)
	case http.MethodPost:
		fb.nextKey++
		key := fmt.Sprintf("-N%06d", fb.nextKey)
		fb.set(append(segments, key), doc)
		writeJSON(w, http.StatusOK, map[string]string{"name": key})
	case http.MethodDelete:
		fb.set(segments, nil)
		writeJSON(w, http.StatusOK, nil)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (fb *Firebase) get(segments []string) any {
	var node any = fb.root
	for _, s := range segments {
		switch n := node.(type) {
		case map[string]any:
			node = n[s]
		case []any:
			i := indexOf(s)
			if i < 0 || i >= len(n) {
				return nil
			}
			node = n[i]
		default:
			return nil
		}
	}
	return node
}

// set writes v at segments; nil deletes. Intermediate lists become objects.
func (fb *Firebase) set(segments []string, v any) {
	if len(segments) == 0 {
		root, _ := v.(map[string]any)
		if root == nil {
			root = map[string]any{}
		}
		fb.root = root
		return
	}

	node := fb.root
	for _, s := range segments[:len(segments)-1] {
		next, ok := node[s].(map[string]any)
		if !ok {
			next = asObject(node[s])
			node[s] = next
		}
		node = next
	}

	last := segments[len(segments)-1]
	if v == nil {
		delete(node, last)
		return
	}
	node[last] = v
}

func asObject(v any) map[string]any {
	out := map[string]any{}
	if list, ok := v.([]any); ok {
		for i, item := range list {
			if item != nil {
				out[fmt.Sprint(i)] = item
			}
		}
	}
	return out
}

func indexOf(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return -1
	}
	return i
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Logger discards output unless the test runs verbosely.
func Logger(t testing.TB) zerolog.Logger {
	if testing.Verbose() {
		return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
	}
	return zerolog.Nop()
}
