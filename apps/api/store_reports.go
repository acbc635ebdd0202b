package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const displayTimestampLayout = "2006-01-02 15:04"

const reportColumns = `id, name, age, location, description, status, photo_filename, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

type PaginatedReports struct {
	Reports     []Report
	TotalCount  int
	TotalPages  int
	CurrentPage int
	PageSize    int
}

func (a *App) createReport(ctx context.Context, payload ReportCreatePayload) (int, error) {
	var age sql.NullInt64
	if payload.Age != nil {
		age = sql.NullInt64{Int64: int64(*payload.Age), Valid: true}
	}
	var photo sql.NullString
	if payload.PhotoFilename != nil {
		photo = sql.NullString{String: *payload.PhotoFilename, Valid: true}
	}

	var id int
	err := a.db.QueryRowContext(ctx, `
		INSERT INTO reports (name, age, location, description, status, photo_filename)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, payload.Name, age, payload.Location, payload.Description, reportStatusPending, photo).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}
	return id, nil
}

func scanReport(scanner rowScanner, extra ...any) (Report, error) {
	var report Report
	var age sql.NullInt64
	var photo sql.NullString
	var createdAt time.Time
	dest := []any{
		&report.ID,
		&report.Name,
		&age,
		&report.Location,
		&report.Description,
		&report.Status,
		&photo,
		&createdAt,
	}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return Report{}, err
	}
	if age.Valid {
		value := int(age.Int64)
		report.Age = &value
	}
	if photo.Valid && photo.String != "" {
		value := photo.String
		report.PhotoFilename = &value
	}
	report.CreatedAt = formatTimestamp(createdAt)
	return report, nil
}

func formatTimestamp(value time.Time) string {
	return value.Local().Format(displayTimestampLayout)
}

func (a *App) getReportByID(ctx context.Context, reportID int) (*Report, error) {
	row := a.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, reportID)
	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

func (a *App) queryReports(ctx context.Context, query string, args ...any) ([]Report, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (a *App) listApprovedReports(ctx context.Context) ([]Report, error) {
	return a.queryReports(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE status = $1
		ORDER BY created_at DESC, id DESC
	`, reportStatusApproved)
}

// listApprovedReportsWithComments returns approved reports newest first, each
// carrying its comments in insertion order.
func (a *App) listApprovedReportsWithComments(ctx context.Context) ([]ReportWithComments, error) {
	reports, err := a.listApprovedReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list approved reports: %w", err)
	}
	comments, err := a.listCommentsForApprovedReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return attachComments(reports, comments), nil
}

func attachComments(reports []Report, comments []Comment) []ReportWithComments {
	byReport := make(map[int][]Comment, len(reports))
	for _, comment := range comments {
		byReport[comment.ReportID] = append(byReport[comment.ReportID], comment)
	}
	result := make([]ReportWithComments, 0, len(reports))
	for _, report := range reports {
		thread := byReport[report.ID]
		if thread == nil {
			thread = []Comment{}
		}
		result = append(result, ReportWithComments{Report: report, Comments: thread})
	}
	return result
}

func (a *App) listAllReports(ctx context.Context) ([]Report, error) {
	return a.queryReports(ctx, `SELECT `+reportColumns+` FROM reports ORDER BY id DESC`)
}

// buildPaginatedReportsQuery pages through reports newest id first, optionally
// restricted to one status. total_count is the size of the filtered set.
func buildPaginatedReportsQuery(status string, page, pageSize int) (string, []any) {
	offset := (page - 1) * pageSize
	where := ""
	args := []any{}
	if status != "" {
		where = "WHERE status = $1"
		args = append(args, status)
	}
	args = append(args, pageSize, offset)
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() as total_count
		FROM reports
		%s
		ORDER BY id DESC
		LIMIT $%d OFFSET $%d
	`, reportColumns, where, len(args)-1, len(args))
	return query, args
}

func (a *App) listReportsPaginated(ctx context.Context, status string, page, pageSize int) (*PaginatedReports, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = moderationPageSize
	}

	query, args := buildPaginatedReportsQuery(status, page, pageSize)
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []Report{}
	totalCount := 0
	for rows.Next() {
		report, err := scanReport(rows, &totalCount)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := 0
	if totalCount > 0 {
		totalPages = (totalCount + pageSize - 1) / pageSize
	}

	return &PaginatedReports{
		Reports:     reports,
		TotalCount:  totalCount,
		TotalPages:  totalPages,
		CurrentPage: page,
		PageSize:    pageSize,
	}, nil
}

// approveReport reports whether a row changed. Unknown ids are not an error.
func (a *App) approveReport(ctx context.Context, reportID int) (bool, error) {
	result, err := a.db.ExecContext(ctx, `UPDATE reports SET status = $1 WHERE id = $2`, reportStatusApproved, reportID)
	if err != nil {
		return false, fmt.Errorf("approve report %d: %w", reportID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// deleteReport removes the report row and its comments. It returns the photo
// filename that was attached, if any, and whether the report existed.
func (a *App) deleteReport(ctx context.Context, reportID int) (*string, bool, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback() }()

	var photo sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT photo_filename FROM reports WHERE id = $1 FOR UPDATE`, reportID).Scan(&photo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load report %d: %w", reportID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE report_id = $1`, reportID); err != nil {
		return nil, false, fmt.Errorf("delete comments of report %d: %w", reportID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, reportID); err != nil {
		return nil, false, fmt.Errorf("delete report %d: %w", reportID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	if photo.Valid && photo.String != "" {
		value := photo.String
		return &value, true, nil
	}
	return nil, true, nil
}

// findReportsByLocation returns approved reports whose location contains the
// given text. Matching is case-sensitive; blank text matches nothing.
func (a *App) findReportsByLocation(ctx context.Context, locationText string) ([]Report, error) {
	if strings.TrimSpace(locationText) == "" {
		return []Report{}, nil
	}
	return a.queryReports(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE status = $1 AND location LIKE $2 ESCAPE '\'
		ORDER BY created_at DESC, id DESC
	`, reportStatusApproved, "%"+escapeLikePattern(locationText)+"%")
}

func escapeLikePattern(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
