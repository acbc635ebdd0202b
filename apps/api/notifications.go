package main

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/iSparshh/lost-and-found-college/libs/mailer"
)

func buildNewReportMessage(to string, reportID int, payload ReportCreatePayload) mailer.Message {
	subject := fmt.Sprintf("New report #%d awaiting approval", reportID)

	htmlBody := fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto; line-height: 1.6; color: #333;">
			<h2>New report #%d</h2>
			<p><strong>Name:</strong> %s<br>
			<strong>Location:</strong> %s</p>
			<p>%s</p>
			<p>Open the admin page to approve or delete it.</p>
		</div>
	`, reportID, html.EscapeString(payload.Name), html.EscapeString(payload.Location), html.EscapeString(payload.Description))

	text := fmt.Sprintf(
		"New report #%d awaiting approval.\n\nName: %s\nLocation: %s\n\n%s\n",
		reportID, payload.Name, payload.Location, payload.Description,
	)

	return mailer.Message{
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
		Text:    text,
	}
}

func buildSOSAlertMessage(to string, event SOSEvent, nearby []Report) mailer.Message {
	subject := fmt.Sprintf("SOS from %s", event.Name)

	var text strings.Builder
	fmt.Fprintf(&text, "SOS #%d received %s\n\n", event.ID, event.CreatedAt)
	fmt.Fprintf(&text, "Name: %s\nMessage: %s\nLocation: %s\n", event.Name, event.Message, event.LocationText)
	if event.Latitude != nil && event.Longitude != nil {
		fmt.Fprintf(&text, "Coordinates: %.6f, %.6f\n", *event.Latitude, *event.Longitude)
	}

	var items strings.Builder
	if len(nearby) == 0 {
		text.WriteString("\nNo approved reports match this location.\n")
		items.WriteString("<p>No approved reports match this location.</p>")
	} else {
		text.WriteString("\nReports near this location:\n")
		items.WriteString("<ul>")
		for _, report := range nearby {
			fmt.Fprintf(&text, "- #%d %s (%s)\n", report.ID, report.Name, report.Location)
			fmt.Fprintf(&items, "<li>#%d %s (%s)</li>", report.ID, html.EscapeString(report.Name), html.EscapeString(report.Location))
		}
		items.WriteString("</ul>")
	}

	htmlBody := fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto; line-height: 1.6; color: #333;">
			<h2 style="color: #d32f2f;">SOS #%d</h2>
			<p><strong>Name:</strong> %s<br>
			<strong>Message:</strong> %s<br>
			<strong>Location:</strong> %s</p>
			%s
		</div>
	`, event.ID, html.EscapeString(event.Name), html.EscapeString(event.Message), html.EscapeString(event.LocationText), items.String())

	return mailer.Message{
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
		Text:    text.String(),
	}
}

// sendNotification is a no-op without a mailer or recipient.
func (a *App) sendNotification(ctx context.Context, msg mailer.Message) error {
	if a.mailer == nil || len(msg.To) == 0 || strings.TrimSpace(strings.Join(msg.To, "")) == "" {
		return nil
	}
	result, err := a.mailer.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("send %q: %w", msg.Subject, err)
	}
	a.log.Info("notification sent", "provider", a.mailer.ProviderName(), "subject", msg.Subject, "message_id", result.ProviderMessageID)
	return nil
}

// dispatchNotification sends in the background, bounded by notificationTimeout.
func (a *App) dispatchNotification(msg mailer.Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()
		if err := a.sendNotification(ctx, msg); err != nil {
			a.log.Warn("notification failed", "error", err)
		}
	}()
}

func (a *App) notifyNewReport(reportID int, payload ReportCreatePayload) {
	if a.cfg.AdminNotifyEmail == "" {
		return
	}
	a.dispatchNotification(buildNewReportMessage(a.cfg.AdminNotifyEmail, reportID, payload))
}

func (a *App) notifySOS(event SOSEvent, nearby []Report) {
	if a.cfg.SOSAlertEmail == "" {
		return
	}
	a.dispatchNotification(buildSOSAlertMessage(a.cfg.SOSAlertEmail, event, nearby))
}
