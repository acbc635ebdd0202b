package main

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	templateIndexPath      = "index.tmpl"
	templateReportFormPath = "report_form.tmpl"
	templateSOSPath        = "sos.tmpl"
	templateAdminLoginPath = "admin_login.tmpl"
	templateAdminPath      = "admin.tmpl"
)

var uiTexts = map[string]string{
	"app_title":                   "Lost & Found",
	"nav_reports":                 "Reports",
	"nav_new_report":              "Report an item",
	"nav_sos":                     "SOS",
	"nav_admin":                   "Admin",
	"nav_logout":                  "Log out",
	"page_title_index":            "Lost & Found",
	"page_title_report_form":      "Report an item",
	"page_title_sos":              "SOS",
	"page_title_admin_login":      "Admin login",
	"page_title_admin":            "Moderation",
	"reports_empty":               "No approved reports yet.",
	"report_name":                 "Name",
	"report_age":                  "Age",
	"report_location":             "Location",
	"report_description":          "Description",
	"report_photo":                "Photo",
	"report_submit":               "Submit report",
	"report_submitted_at":         "Reported",
	"comments_title":              "Comments",
	"comments_empty":              "No comments yet.",
	"comment_author":              "Your name",
	"comment_text":                "Comment",
	"comment_is_helper":           "I can help",
	"comment_helper_badge":        "Helper",
	"comment_submit":              "Add comment",
	"sos_name":                    "Your name",
	"sos_message":                 "Message",
	"sos_location":                "Where are you?",
	"sos_latitude":                "Latitude",
	"sos_longitude":               "Longitude",
	"sos_submit":                  "Send SOS",
	"sos_recorded":                "Your SOS has been recorded.",
	"sos_nearby_title":            "Reports near this location",
	"sos_nearby_empty":            "No reports match this location.",
	"login_username":              "Username",
	"login_password":              "Password",
	"login_button":                "Log in",
	"admin_col_id":                "ID",
	"admin_col_status":            "Status",
	"admin_col_actions":           "Actions",
	"admin_approve":               "Approve",
	"admin_delete":                "Delete",
	"admin_export_csv":            "Export CSV",
	"admin_export_pdf":            "Export PDF",
	"admin_empty":                 "No reports.",
	"admin_filter_all":            "All",
	"pagination_prev":             "Previous",
	"pagination_next":             "Next",
	"status_pending":              "Pending",
	"status_approved":             "Approved",
	"notice_report_submitted":     "Submitted for admin approval",
	"notice_comment_added":        "Comment added",
	"notice_report_approved":      "Report approved",
	"notice_report_deleted":       "Report deleted",
	"notice_logged_out":           "Logged out",
	"error_comment_text_required": "Comment text is required",
	"error_invalid_login":         "Invalid Login",
	"error_rate_limited":          "Too many submissions, please try again later",
	"error_upload_too_large":      "The photo is too large",
	"error_report_save_failed":    "Saving the report failed",
	"error_report_form_invalid":   "The report form could not be read",
	"error_unknown_report":        "Unknown report",
	"error_session_failed":        "Could not start the admin session",
	"error_comment_save_failed":   "Saving the comment failed",
	"error_sos_save_failed":       "Recording the SOS failed",
	"error_reports_load_failed":   "Loading reports failed",
	"error_moderation_failed":     "The moderation action failed",
	"error_export_failed":         "Export failed",
}

func uiText(key string) string {
	if value, ok := uiTexts[key]; ok {
		return value
	}
	return key
}

func statusLabel(status string) string {
	return uiText("status_" + status)
}

type baseViewData struct {
	Title         string
	Text          map[string]string
	CurrentPath   string
	ErrorMessage  string
	NoticeMessage string
	IsAdmin       bool
}

type indexViewData struct {
	baseViewData
	Reports []ReportWithComments
}

type reportFormViewData struct {
	baseViewData
	MaxUploadMB int64
}

type sosViewData struct {
	baseViewData
	Submitted bool
	Event     *SOSEvent
	Nearby    []Report
}

type adminLoginViewData struct {
	baseViewData
	Username string
}

type adminReportRowView struct {
	Report
	StatusLabel string
	IsPending   bool
}

type adminViewData struct {
	baseViewData
	Reports []adminReportRowView
	Filters []moderationFilterView
	Pager   moderationPagerView
}

func (a *App) baseData(c *gin.Context, titleKey string) baseViewData {
	return baseViewData{
		Title:         uiText(titleKey),
		Text:          uiTexts,
		CurrentPath:   c.Request.URL.Path,
		ErrorMessage:  strings.TrimSpace(c.Query("error")),
		NoticeMessage: strings.TrimSpace(c.Query("notice")),
		IsAdmin:       a.adminSessionFromRequest(c) != nil,
	}
}

func buildAdminReportRows(reports []Report) []adminReportRowView {
	rows := make([]adminReportRowView, 0, len(reports))
	for _, report := range reports {
		rows = append(rows, adminReportRowView{
			Report:      report,
			StatusLabel: statusLabel(report.Status),
			IsPending:   report.Status == reportStatusPending,
		})
	}
	return rows
}

// sanitizeRedirectTarget keeps redirects on this site.
func sanitizeRedirectTarget(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "/"
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.IsAbs() || parsed.Host != "" {
		return "/"
	}
	if !strings.HasPrefix(parsed.Path, "/") || strings.HasPrefix(parsed.Path, "//") {
		return "/"
	}
	return parsed.RequestURI()
}

func redirectWithMessage(c *gin.Context, target, key, value string) {
	parsed, err := url.Parse(sanitizeRedirectTarget(target))
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	query := parsed.Query()
	query.Del("error")
	query.Del("notice")
	query.Set(key, value)
	parsed.RawQuery = query.Encode()

	redirectURL := parsed.Path
	if parsed.RawQuery != "" {
		redirectURL += "?" + parsed.RawQuery
	}
	c.Redirect(http.StatusSeeOther, redirectURL)
}
