package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/TWRT/board-sync/internal/client/firebase"
	"github.com/TWRT/board-sync/internal/models"
	"github.com/TWRT/board-sync/internal/testutil"
)

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestStore(t *testing.T) (*firebase.FirebaseClient, *testutil.Firebase) {
	t.Helper()
	fb := testutil.NewFirebase(t)
	return firebase.NewFirebaseClient(fb.URL, time.Second, testutil.Logger(t)), fb
}

type statusChange struct {
	task     models.Task
	previous models.TaskStatus
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []statusChange
}

func (n *recordingNotifier) SendStatusChange(_ context.Context, task models.Task, previous models.TaskStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, statusChange{task: task, previous: previous})
}

func (n *recordingNotifier) Changes() []statusChange {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]statusChange(nil), n.changes...)
}

func newTestTaskService(t *testing.T) (*TaskService, *testutil.Firebase, *recordingNotifier) {
	t.Helper()
	store, fb := newTestStore(t)
	notifier := &recordingNotifier{}
	s := NewTaskService(store, notifier, testutil.Logger(t))
	s.now = fixedClock(testNow)
	return s, fb, notifier
}

const externalTaskJSON = `{
	"id": "t1",
	"name": "Ship release",
	"description": "Release v2 to production",
	"assigned_to": ["Anna", "Ben", "Cara"],
	"due_date": "2030-01-01",
	"prio": 2,
	"category": "us",
	"subtasks": [{"id": 0, "name": "Tag", "status": 0}, {"id": 1, "name": "Deploy", "status": 1}],
	"status": "triage",
	"creator": {"name": "Eve", "email": "eve@example.com", "type": "external"},
	"created_at": "2026-01-01T00:00:00.000Z"
}`

const internalTaskJSON = `{
	"id": "t2",
	"name": "Write docs",
	"description": "",
	"assigned_to": {"u1": "Ben"},
	"due_date": "2030-02-01",
	"prio": 3,
	"category": "tt",
	"subtasks": "",
	"status": "in-progress",
	"creator": {"name": "Guest User", "email": "guest", "type": "internal"},
	"created_at": "2026-01-02T00:00:00.000Z"
}`
