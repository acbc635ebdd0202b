package main

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleExportReports() []Report {
	age := 12
	photo := "bag.jpg"
	return []Report{
		{ID: 2, Name: "School bag", Age: &age, Location: "Block A", Description: "Blue, with stickers", Status: reportStatusApproved, PhotoFilename: &photo, CreatedAt: "2024-03-01 09:30"},
		{ID: 1, Name: "Bottle", Location: "Gym", Status: reportStatusPending, CreatedAt: "2024-02-28 16:05"},
	}
}

func TestBuildReportsCSV(t *testing.T) {
	content, err := buildReportsCSV(sampleExportReports())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"report_id", "created_at", "status", "name", "age", "location", "description", "photo_filename"}, records[0])
	assert.Equal(t, []string{"2", "2024-03-01 09:30", "approved", "School bag", "12", "Block A", "Blue, with stickers", "bag.jpg"}, records[1])
	assert.Equal(t, []string{"1", "2024-02-28 16:05", "pending", "Bottle", "", "Gym", "", ""}, records[2])
}

func TestBuildReportsPDF(t *testing.T) {
	content, err := buildReportsPDF(sampleExportReports(), "Lost & Found reports", time.Date(2024, 3, 2, 8, 0, 0, 0, time.Local))
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")), "expected PDF header")
	assert.Greater(t, len(content), 500)
}

func TestTruncateForCell(t *testing.T) {
	assert.Equal(t, "short", truncateForCell("short", 10))
	assert.Equal(t, "abcd…", truncateForCell("abcdefgh", 5))
}
