package main

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const moderationPageSize = 50

// moderationQueue is the admin list position carried in the query string.
// An empty Status lists every report.
type moderationQueue struct {
	Status string
	Page   int
}

func parseModerationQueue(query url.Values) moderationQueue {
	queue := moderationQueue{Page: 1}

	status := strings.ToLower(strings.TrimSpace(query.Get("status")))
	if slices.Contains(reportStatuses, status) {
		queue.Status = status
	}
	if page, err := strconv.Atoi(strings.TrimSpace(query.Get("page"))); err == nil && page > 1 {
		queue.Page = page
	}
	return queue
}

// pageURL links to another page of the same filtered list.
func (q moderationQueue) pageURL(page int) string {
	values := url.Values{}
	if q.Status != "" {
		values.Set("status", q.Status)
	}
	if page > 1 {
		values.Set("page", strconv.Itoa(page))
	}
	if len(values) == 0 {
		return adminHomePath
	}
	return adminHomePath + "?" + values.Encode()
}

type moderationFilterView struct {
	Label  string
	URL    string
	Active bool
}

// buildModerationFilters lists the status tabs. Switching tabs goes back to
// the first page.
func buildModerationFilters(queue moderationQueue) []moderationFilterView {
	filters := []moderationFilterView{{
		Label:  uiText("admin_filter_all"),
		URL:    moderationQueue{}.pageURL(1),
		Active: queue.Status == "",
	}}
	for _, status := range reportStatuses {
		filters = append(filters, moderationFilterView{
			Label:  statusLabel(status),
			URL:    moderationQueue{Status: status}.pageURL(1),
			Active: queue.Status == status,
		})
	}
	return filters
}

type moderationPagerView struct {
	CurrentPage int
	TotalPages  int
	TotalCount  int
	PrevURL     string
	NextURL     string
}

// Visible is false for a list that fits on the first page.
func (p moderationPagerView) Visible() bool {
	return p.PrevURL != "" || p.NextURL != ""
}

// buildModerationPager keeps a way back for a page past the end, where the
// window count comes back as zero.
func buildModerationPager(queue moderationQueue, result *PaginatedReports) moderationPagerView {
	pager := moderationPagerView{
		CurrentPage: queue.Page,
		TotalPages:  result.TotalPages,
		TotalCount:  result.TotalCount,
	}
	if queue.Page > 1 {
		prev := queue.Page - 1
		if result.TotalPages == 0 {
			prev = 1
		} else if prev > result.TotalPages {
			prev = result.TotalPages
		}
		pager.PrevURL = queue.pageURL(prev)
	}
	if queue.Page < result.TotalPages {
		pager.NextURL = queue.pageURL(queue.Page + 1)
	}
	return pager
}
