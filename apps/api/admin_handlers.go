package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const adminHomePath = "/admin"

func (a *App) registerAdminRoutes(r *gin.Engine) {
	r.GET(adminHomePath, a.adminPageHandler)
	r.POST(adminHomePath, a.adminLoginSubmitHandler)
	r.POST("/admin/logout", a.adminLogoutSubmitHandler)

	admin := r.Group(adminHomePath)
	admin.Use(a.requireAdminSessionHTML())
	{
		admin.GET("/approve/:id", a.adminApproveHandler)
		admin.GET("/delete/:id", a.adminDeleteHandler)
		admin.GET("/export.csv", a.adminExportCSVHandler)
		admin.GET("/export.pdf", a.adminExportPDFHandler)
	}
}

// adminPageHandler shows the login form to anonymous visitors and the
// moderation list to a signed-in admin.
func (a *App) adminPageHandler(c *gin.Context) {
	if a.adminSessionFromRequest(c) == nil {
		a.renderTemplate(c, http.StatusOK, templateAdminLoginPath, adminLoginViewData{
			baseViewData: a.baseData(c, "page_title_admin_login"),
		})
		return
	}

	base := a.baseData(c, "page_title_admin")
	queue := parseModerationQueue(c.Request.URL.Query())
	result, err := a.listReportsPaginated(c.Request.Context(), queue.Status, queue.Page, moderationPageSize)
	if err != nil {
		a.log.Error("admin list reports failed", "status", queue.Status, "page", queue.Page, "error", err)
		base.ErrorMessage = uiText("error_reports_load_failed")
		result = &PaginatedReports{Reports: []Report{}, CurrentPage: queue.Page, PageSize: moderationPageSize}
	}

	a.renderTemplate(c, http.StatusOK, templateAdminPath, adminViewData{
		baseViewData: base,
		Reports:      buildAdminReportRows(result.Reports),
		Filters:      buildModerationFilters(queue),
		Pager:        buildModerationPager(queue, result),
	})
}

func (a *App) adminLoginSubmitHandler(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	if !a.checkAdminCredentials(username, password) {
		a.log.Warn("admin login failed", "username", username, "ip", c.ClientIP())
		redirectWithMessage(c, adminHomePath, "error", uiText("error_invalid_login"))
		return
	}

	if err := a.startAdminSession(c, AdminSession{Username: username}); err != nil {
		a.log.Error("start admin session failed", "username", username, "error", err)
		redirectWithMessage(c, adminHomePath, "error", uiText("error_session_failed"))
		return
	}
	a.log.Info("admin logged in", "username", username)
	c.Redirect(http.StatusSeeOther, adminHomePath)
}

func (a *App) adminLogoutSubmitHandler(c *gin.Context) {
	a.clearAdminSession(c)
	redirectWithMessage(c, adminHomePath, "notice", uiText("notice_logged_out"))
}

func parseReportID(c *gin.Context) (int, bool) {
	reportID, err := strconv.Atoi(strings.TrimSpace(c.Param("id")))
	if err != nil || reportID <= 0 {
		return 0, false
	}
	return reportID, true
}

// adminApproveHandler moves a pending report to approved. Unknown ids are
// silently ignored.
func (a *App) adminApproveHandler(c *gin.Context) {
	reportID, ok := parseReportID(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, adminHomePath)
		return
	}

	changed, err := a.approveReport(c.Request.Context(), reportID)
	if err != nil {
		a.log.Error("approve report failed", "report_id", reportID, "error", err)
		redirectWithMessage(c, adminHomePath, "error", uiText("error_moderation_failed"))
		return
	}
	if !changed {
		c.Redirect(http.StatusSeeOther, adminHomePath)
		return
	}

	session, _ := getAdminSession(c)
	recordModerationAction("approve")
	a.log.Info("report approved", "report_id", reportID, "admin", session.Username)
	redirectWithMessage(c, adminHomePath, "notice", uiText("notice_report_approved"))
}

// adminDeleteHandler removes the report with its comments, then its photo.
// A photo that is already missing from disk is not an error.
func (a *App) adminDeleteHandler(c *gin.Context) {
	reportID, ok := parseReportID(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, adminHomePath)
		return
	}

	photo, existed, err := a.deleteReport(c.Request.Context(), reportID)
	if err != nil {
		a.log.Error("delete report failed", "report_id", reportID, "error", err)
		redirectWithMessage(c, adminHomePath, "error", uiText("error_moderation_failed"))
		return
	}
	if !existed {
		c.Redirect(http.StatusSeeOther, adminHomePath)
		return
	}

	if photo != nil {
		if err := a.removeUpload(*photo); err != nil {
			a.log.Warn("remove report photo failed", "report_id", reportID, "photo", *photo, "error", err)
		}
	}

	session, _ := getAdminSession(c)
	recordModerationAction("delete")
	a.log.Info("report deleted", "report_id", reportID, "admin", session.Username)
	redirectWithMessage(c, adminHomePath, "notice", uiText("notice_report_deleted"))
}
