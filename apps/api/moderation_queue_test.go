package main

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseModerationQueue(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  moderationQueue
	}{
		{name: "Empty query", query: "", want: moderationQueue{Page: 1}},
		{name: "Pending second page", query: "status=pending&page=2", want: moderationQueue{Status: reportStatusPending, Page: 2}},
		{name: "Status is case insensitive", query: "status=%20Approved%20", want: moderationQueue{Status: reportStatusApproved, Page: 1}},
		{name: "Unknown status lists everything", query: "status=deleted&page=4", want: moderationQueue{Page: 4}},
		{name: "Bad page falls back to first", query: "page=-3", want: moderationQueue{Page: 1}},
		{name: "Non-numeric page", query: "page=last", want: moderationQueue{Page: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("bad query %q: %v", tt.query, err)
			}
			assert.Equal(t, tt.want, parseModerationQueue(query))
		})
	}
}

func TestModerationQueuePageURL(t *testing.T) {
	assert.Equal(t, adminHomePath, moderationQueue{}.pageURL(1))
	assert.Equal(t, "/admin?page=2", moderationQueue{}.pageURL(2))
	assert.Equal(t, "/admin?status=pending", moderationQueue{Status: reportStatusPending}.pageURL(1))
	assert.Equal(t, "/admin?page=3&status=pending", moderationQueue{Status: reportStatusPending}.pageURL(3))
}

func TestBuildModerationFiltersMarksActiveStatus(t *testing.T) {
	filters := buildModerationFilters(moderationQueue{Status: reportStatusApproved, Page: 4})

	assert.Len(t, filters, 1+len(reportStatuses))
	assert.Equal(t, moderationFilterView{Label: "All", URL: adminHomePath}, filters[0])
	for _, filter := range filters[1:] {
		assert.Equal(t, filter.Label == statusLabel(reportStatusApproved), filter.Active, filter.Label)
	}
	assert.Equal(t, "/admin?status=approved", filters[2].URL)
}

func TestBuildModerationPager(t *testing.T) {
	middle := buildModerationPager(moderationQueue{Status: reportStatusPending, Page: 2}, &PaginatedReports{TotalCount: 120, TotalPages: 3})
	assert.True(t, middle.Visible())
	assert.Equal(t, "/admin?status=pending", middle.PrevURL)
	assert.Equal(t, "/admin?page=3&status=pending", middle.NextURL)

	single := buildModerationPager(moderationQueue{Page: 1}, &PaginatedReports{TotalCount: 4, TotalPages: 1})
	assert.False(t, single.Visible())

	pastEnd := buildModerationPager(moderationQueue{Page: 9}, &PaginatedReports{})
	assert.Equal(t, adminHomePath, pastEnd.PrevURL)
	assert.Empty(t, pastEnd.NextURL)
}
