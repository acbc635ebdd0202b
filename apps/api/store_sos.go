package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

func nullableFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func (a *App) createSOSEvent(ctx context.Context, payload SOSCreatePayload) (SOSEvent, error) {
	event := SOSEvent{
		Name:         payload.Name,
		Message:      payload.Message,
		LocationText: payload.LocationText,
		Latitude:     payload.Latitude,
		Longitude:    payload.Longitude,
	}
	var createdAt time.Time
	err := a.db.QueryRowContext(ctx, `
		INSERT INTO sos_events (name, message, location_text, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, payload.Name, payload.Message, payload.LocationText, nullableFloat(payload.Latitude), nullableFloat(payload.Longitude)).Scan(&event.ID, &createdAt)
	if err != nil {
		return SOSEvent{}, fmt.Errorf("insert sos event: %w", err)
	}
	event.CreatedAt = formatTimestamp(createdAt)
	return event, nil
}
