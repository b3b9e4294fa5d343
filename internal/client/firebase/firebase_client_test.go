package firebase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TWRT/board-sync/internal/testutil"
)

func newTestClient(t *testing.T) (*FirebaseClient, *testutil.Firebase) {
	t.Helper()
	fb := testutil.NewFirebase(t)
	return NewFirebaseClient(fb.URL+"/", time.Second, testutil.Logger(t)), fb
}

func TestLoadMissingPathIsNull(t *testing.T) {
	c, fb := newTestClient(t)

	raw := c.Load(context.Background(), "tasks")
	require.NotNil(t, raw)
	assert.JSONEq(t, "null", string(raw))
	assert.Equal(t, 1, fb.Count(http.MethodGet, "tasks"))
}

func TestPutThenLoad(t *testing.T) {
	c, fb := newTestClient(t)
	ctx := context.Background()

	doc := []map[string]string{{"id": "0", "name": "Anna"}}
	require.NotNil(t, c.Put(ctx, "contacts", doc))

	assert.JSONEq(t, `[{"id":"0","name":"Anna"}]`, string(c.Load(ctx, "contacts")))
	assert.JSONEq(t, `[{"id":"0","name":"Anna"}]`, fb.Raw(t, "contacts"))
}

func TestPostReturnsGeneratedKey(t *testing.T) {
	c, fb := newTestClient(t)

	key := c.Post(context.Background(), "requests", map[string]string{"title": "x"})
	require.NotNil(t, key)
	assert.NotEmpty(t, key.Name)
	assert.JSONEq(t, `{"title":"x"}`, fb.Raw(t, "requests/"+key.Name))
}

func TestPatchAndDelete(t *testing.T) {
	c, fb := newTestClient(t)
	ctx := context.Background()
	fb.SetRaw(t, "rate_limits/2026-01-01", `{"count":1,"last_updated":"a"}`)

	require.NotNil(t, c.Patch(ctx, "rate_limits/2026-01-01", map[string]int{"count": 2}))
	assert.JSONEq(t, `{"count":2,"last_updated":"a"}`, fb.Raw(t, "rate_limits/2026-01-01"))

	c.Delete(ctx, "rate_limits/2026-01-01")
	assert.Equal(t, "null", fb.Raw(t, "rate_limits/2026-01-01"))
}

func TestFailuresReturnNil(t *testing.T) {
	c, fb := newTestClient(t)
	ctx := context.Background()
	fb.SetFailing(true)

	assert.Nil(t, c.Load(ctx, "tasks"))
	assert.Nil(t, c.Put(ctx, "tasks", []string{}))
	assert.Nil(t, c.Post(ctx, "tasks", map[string]string{}))
	assert.Nil(t, c.Patch(ctx, "tasks", map[string]string{}))
	c.Delete(ctx, "tasks")
}

func TestUnreachableStoreReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewFirebaseClient(url, time.Second, testutil.Logger(t))
	assert.Nil(t, c.Load(context.Background(), "tasks"))
}

func TestMalformedBodyReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	c := NewFirebaseClient(srv.URL, time.Second, testutil.Logger(t))
	assert.Nil(t, c.Load(context.Background(), "tasks"))
}

func TestRequestURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("null"))
	}))
	defer srv.Close()

	c := NewFirebaseClient(srv.URL+"/", time.Second, testutil.Logger(t))
	c.Load(context.Background(), "/rate_limits/2026-01-01/")
	assert.Equal(t, "/rate_limits/2026-01-01.json", gotPath)
}
