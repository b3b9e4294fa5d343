package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type Delivery struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Webhook records every request it receives.
type Webhook struct {
	*httptest.Server

	mu         sync.Mutex
	status     int
	deliveries []Delivery
}

func NewWebhook(t testing.TB) *Webhook {
	t.Helper()

	wh := &Webhook{status: http.StatusOK}
	wh.Server = httptest.NewServer(http.HandlerFunc(wh.serve))
	t.Cleanup(wh.Close)
	return wh
}

// SetStatus changes the status code answered from now on.
func (wh *Webhook) SetStatus(status int) {
	wh.mu.Lock()
	defer wh.mu.Unlock()
	wh.status = status
}

func (wh *Webhook) Deliveries() []Delivery {
	wh.mu.Lock()
	defer wh.mu.Unlock()
	return append([]Delivery(nil), wh.deliveries...)
}

func (wh *Webhook) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	wh.mu.Lock()
	wh.deliveries = append(wh.deliveries, Delivery{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	status := wh.status
	wh.mu.Unlock()

	w.WriteHeader(status)
}
