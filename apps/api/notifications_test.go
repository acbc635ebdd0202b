package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildNewReportMessageEscapesHTML(t *testing.T) {
	msg := buildNewReportMessage("desk@example.com", 9, ReportCreatePayload{
		Name:        "<b>Keys</b>",
		Location:    "Gym",
		Description: "Found near locker 12",
	})

	assert.Equal(t, []string{"desk@example.com"}, msg.To)
	assert.Equal(t, "New report #9 awaiting approval", msg.Subject)
	assert.Contains(t, msg.HTML, "&lt;b&gt;Keys&lt;/b&gt;")
	assert.Contains(t, msg.Text, "Location: Gym")
}

func TestBuildSOSAlertMessageListsNearbyReports(t *testing.T) {
	lat, lon := 52.1, 5.1
	event := SOSEvent{ID: 3, Name: "Ana", Message: "Lost my bag", LocationText: "Library", Latitude: &lat, Longitude: &lon}

	msg := buildSOSAlertMessage("sos@example.com", event, []Report{{ID: 4, Name: "Bag", Location: "Library Block B"}})
	assert.Equal(t, "SOS from Ana", msg.Subject)
	assert.Contains(t, msg.Text, "- #4 Bag (Library Block B)")
	assert.Contains(t, msg.Text, "Coordinates: 52.100000, 5.100000")
	assert.Contains(t, msg.HTML, "<li>#4 Bag (Library Block B)</li>")

	empty := buildSOSAlertMessage("sos@example.com", event, nil)
	assert.Contains(t, empty.Text, "No approved reports match this location.")
}

func TestSendNotificationDeliversThroughMailer(t *testing.T) {
	app, _, provider := newTestApp(t)

	err := app.sendNotification(context.Background(), buildNewReportMessage("desk@example.com", 1, ReportCreatePayload{Name: "Keys"}))
	require.NoError(t, err)

	sent := provider.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "noreply@lostfound.local", sent[0].From)
	assert.True(t, strings.HasPrefix(sent[0].Subject, "New report #1"))
}

func TestSendNotificationSkipsWithoutRecipient(t *testing.T) {
	app, _, provider := newTestApp(t)

	require.NoError(t, app.sendNotification(context.Background(), buildNewReportMessage("", 1, ReportCreatePayload{})))
	assert.Empty(t, provider.messages())

	app.mailer = nil
	require.NoError(t, app.sendNotification(context.Background(), buildNewReportMessage("desk@example.com", 1, ReportCreatePayload{})))
}
