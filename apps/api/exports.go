package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-pdf/fpdf"
)

const exportFilenameDateLayout = "20060102-1504"

func buildReportsCSV(reports []Report) (string, error) {
	buffer := bytes.NewBuffer(nil)
	writer := csv.NewWriter(buffer)
	headers := []string{"report_id", "created_at", "status", "name", "age", "location", "description", "photo_filename"}
	if err := writer.Write(headers); err != nil {
		return "", err
	}
	for _, report := range reports {
		age := ""
		if report.Age != nil {
			age = strconv.Itoa(*report.Age)
		}
		photo := ""
		if report.PhotoFilename != nil {
			photo = *report.PhotoFilename
		}
		row := []string{
			strconv.Itoa(report.ID),
			report.CreatedAt,
			report.Status,
			report.Name,
			age,
			report.Location,
			report.Description,
			photo,
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return buffer.String(), nil
}

func truncateForCell(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

func buildReportsPDF(reports []Report, title string, generatedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 16)
	pdf.Cell(0, 10, tr(title))

	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", formatTimestamp(generatedAt)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Total reports: %d", len(reports)))
	pdf.Ln(10)

	statusCounts := map[string]int{}
	for _, report := range reports {
		statusCounts[report.Status]++
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 8, "Status distribution")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	for _, status := range reportStatuses {
		pdf.Cell(0, 6, fmt.Sprintf("- %s: %d", statusLabel(status), statusCounts[status]))
		pdf.Ln(6)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(14, 7, "ID", "1", 0, "", false, 0, "")
	pdf.CellFormat(22, 7, "Status", "1", 0, "", false, 0, "")
	pdf.CellFormat(44, 7, "Name", "1", 0, "", false, 0, "")
	pdf.CellFormat(70, 7, "Location", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 7, "Created", "1", 1, "", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, report := range reports {
		pdf.CellFormat(14, 6, strconv.Itoa(report.ID), "1", 0, "", false, 0, "")
		pdf.CellFormat(22, 6, statusLabel(report.Status), "1", 0, "", false, 0, "")
		pdf.CellFormat(44, 6, tr(truncateForCell(report.Name, 24)), "1", 0, "", false, 0, "")
		pdf.CellFormat(70, 6, tr(truncateForCell(report.Location, 40)), "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 6, report.CreatedAt, "1", 1, "", false, 0, "")
	}

	buffer := bytes.NewBuffer(nil)
	if err := pdf.Output(buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func (a *App) adminExportCSVHandler(c *gin.Context) {
	reports, err := a.listAllReports(c.Request.Context())
	if err != nil {
		a.log.Error("export csv: list reports failed", "error", err)
		redirectWithMessage(c, adminHomePath, "error", uiText("error_export_failed"))
		return
	}
	content, err := buildReportsCSV(reports)
	if err != nil {
		a.log.Error("export csv: build failed", "error", err)
		redirectWithMessage(c, adminHomePath, "error", uiText("error_export_failed"))
		return
	}
	filename := fmt.Sprintf("reports-%s.csv", time.Now().Format(exportFilenameDateLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(content))
}

func (a *App) adminExportPDFHandler(c *gin.Context) {
	reports, err := a.listAllReports(c.Request.Context())
	if err != nil {
		a.log.Error("export pdf: list reports failed", "error", err)
		redirectWithMessage(c, adminHomePath, "error", uiText("error_export_failed"))
		return
	}
	now := time.Now()
	content, err := buildReportsPDF(reports, uiText("app_title")+" reports", now)
	if err != nil {
		a.log.Error("export pdf: build failed", "error", err)
		redirectWithMessage(c, adminHomePath, "error", uiText("error_export_failed"))
		return
	}
	filename := fmt.Sprintf("reports-%s.pdf", now.Format(exportFilenameDateLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", content)
}
