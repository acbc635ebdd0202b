package main

import (
	"context"
	"fmt"
	"time"
)

func (a *App) createComment(ctx context.Context, payload CommentCreatePayload) (int, error) {
	var id int
	err := a.db.QueryRowContext(ctx, `
		INSERT INTO comments (report_id, author, text, is_helper)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, payload.ReportID, payload.Author, payload.Text, payload.IsHelper).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}
	return id, nil
}

func (a *App) listCommentsForApprovedReports(ctx context.Context) ([]Comment, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT c.id, c.report_id, c.author, c.text, c.is_helper, c.created_at
		FROM comments c
		JOIN reports r ON r.id = c.report_id
		WHERE r.status = $1
		ORDER BY c.id ASC
	`, reportStatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]Comment, 0)
	for rows.Next() {
		var comment Comment
		var createdAt time.Time
		if err := rows.Scan(
			&comment.ID,
			&comment.ReportID,
			&comment.Author,
			&comment.Text,
			&comment.IsHelper,
			&createdAt,
		); err != nil {
			return nil, err
		}
		comment.CreatedAt = formatTimestamp(createdAt)
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}
