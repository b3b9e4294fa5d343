package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TWRT/board-sync/internal/client/webhook"
	"github.com/TWRT/board-sync/internal/models"
	"github.com/TWRT/board-sync/internal/testutil"
)

func newTestNotificationService(t *testing.T) (*NotificationService, *testutil.Webhook) {
	t.Helper()
	wh := testutil.NewWebhook(t)
	s := NewNotificationService(webhook.NewWebhookClient("secret", time.Second), NotificationConfig{
		StatusWebhookURL: wh.URL + "/status",
		FormWebhookURL:   wh.URL + "/form",
		BaseURL:          wh.URL + "/",
	}, testutil.Logger(t))
	s.now = fixedClock(testNow)
	return s, wh
}

func externalTask() models.Task {
	return models.Task{
		ID:          "t1",
		Name:        "Broken login",
		Description: "Cannot sign in",
		Status:      models.StatusInProgress,
		Creator:     &models.Creator{Name: "Eve", Email: "eve@example.com", Type: models.CreatorExternal},
	}
}

func TestSendStatusChange(t *testing.T) {
	s, wh := newTestNotificationService(t)

	s.SendStatusChange(context.Background(), externalTask(), models.StatusTriage)

	deliveries := wh.Deliveries()
	require.Len(t, deliveries, 1)
	assert.Equal(t, "/status", deliveries[0].Path)
	assert.JSONEq(t, `{
		"taskId": "t1",
		"taskName": "Broken login",
		"taskDescription": "Cannot sign in",
		"previousStatus": "triage",
		"newStatus": "in-progress",
		"creator": {"name": "Eve", "email": "eve@example.com", "type": "external"},
		"timestamp": "2026-03-10T09:30:00.000Z"
	}`, string(deliveries[0].Body))
	assert.Equal(t, webhook.Sign([]byte("secret"), deliveries[0].Body), deliveries[0].Header.Get(webhook.SignatureHeader))
}

func TestSendFormConfirmation(t *testing.T) {
	s, wh := newTestNotificationService(t)
	task := externalTask()
	task.Status = models.StatusTriage

	s.SendFormConfirmation(context.Background(), task)

	deliveries := wh.Deliveries()
	require.Len(t, deliveries, 1)
	assert.Equal(t, "/form", deliveries[0].Path)

	var payload FormConfirmationPayload
	require.NoError(t, json.Unmarshal(deliveries[0].Body, &payload))
	assert.Equal(t, models.StatusTriage, payload.Status)
	assert.Equal(t, "eve@example.com", payload.Creator.Email)
}

func TestNotificationsSkippedWithoutRecipient(t *testing.T) {
	s, wh := newTestNotificationService(t)
	ctx := context.Background()

	noCreator := externalTask()
	noCreator.Creator = nil
	s.SendStatusChange(ctx, noCreator, models.StatusTriage)

	noEmail := externalTask()
	noEmail.Creator.Email = ""
	s.SendFormConfirmation(ctx, noEmail)

	assert.Empty(t, wh.Deliveries())
}

func TestNotificationsSkippedWithoutURL(t *testing.T) {
	wh := testutil.NewWebhook(t)
	s := NewNotificationService(webhook.NewWebhookClient("", time.Second), NotificationConfig{}, testutil.Logger(t))

	s.SendStatusChange(context.Background(), externalTask(), models.StatusTriage)
	s.Wake(context.Background())
	assert.Empty(t, wh.Deliveries())
}

func TestFailedDeliveryIsSwallowed(t *testing.T) {
	s, wh := newTestNotificationService(t)
	wh.SetStatus(http.StatusBadGateway)

	assert.NotPanics(t, func() {
		s.SendStatusChange(context.Background(), externalTask(), models.StatusTriage)
	})
	assert.Len(t, wh.Deliveries(), 1)
}

func TestWake(t *testing.T) {
	s, wh := newTestNotificationService(t)

	s.Wake(context.Background())

	deliveries := wh.Deliveries()
	require.Len(t, deliveries, 1)
	assert.Equal(t, http.MethodGet, deliveries[0].Method)
	assert.Equal(t, "/healthz", deliveries[0].Path)
}
