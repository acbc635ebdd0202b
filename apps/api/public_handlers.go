package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	submissionKindReport  = "report"
	submissionKindComment = "comment"
)

func (a *App) registerPublicRoutes(r *gin.Engine) {
	r.GET("/", a.indexHandler)
	r.GET("/report/new", a.newReportPageHandler)
	r.POST("/report/new", a.newReportSubmitHandler)
	r.POST("/report/:id/comment", a.commentSubmitHandler)
	r.GET("/sos", a.sosPageHandler)
	r.POST("/sos", a.sosSubmitHandler)
	r.GET("/uploads/:filename", a.uploadServeHandler)
}

func (a *App) indexHandler(c *gin.Context) {
	base := a.baseData(c, "page_title_index")
	reports, err := a.listApprovedReportsWithComments(c.Request.Context())
	if err != nil {
		a.log.Error("list approved reports failed", "error", err)
		base.ErrorMessage = uiText("error_reports_load_failed")
		reports = []ReportWithComments{}
	}
	a.renderTemplate(c, http.StatusOK, templateIndexPath, indexViewData{
		baseViewData: base,
		Reports:      reports,
	})
}

func (a *App) newReportPageHandler(c *gin.Context) {
	a.renderTemplate(c, http.StatusOK, templateReportFormPath, reportFormViewData{
		baseViewData: a.baseData(c, "page_title_report_form"),
		MaxUploadMB:  a.cfg.MaxUploadBytes / (1024 * 1024),
	})
}

// newReportSubmitHandler stores whatever fields were sent. Missing fields end
// up empty (or NULL for age) and the report always starts out pending.
func (a *App) newReportSubmitHandler(c *gin.Context) {
	if !a.allowSubmission(c, submissionKindReport) {
		redirectWithMessage(c, "/report/new", "error", uiText("error_rate_limited"))
		return
	}

	if err := a.parseReportForm(c); err != nil {
		if errors.Is(err, errUploadTooLarge) {
			a.log.Warn("report body over upload limit", "ip", c.ClientIP(), "limit_bytes", a.cfg.MaxUploadBytes)
			redirectWithMessage(c, "/report/new", "error", uiText("error_upload_too_large"))
			return
		}
		a.log.Warn("parse report form failed", "error", err)
		redirectWithMessage(c, "/report/new", "error", uiText("error_report_form_invalid"))
		return
	}

	payload := ReportCreatePayload{
		Name:        c.PostForm("name"),
		Age:         parseOptionalInt(c.PostForm("age")),
		Location:    c.PostForm("location"),
		Description: c.PostForm("description"),
	}

	if fileHeader, err := c.FormFile("photo"); err == nil {
		photo, storeErr := a.storeUploadedPhoto(c, fileHeader)
		if storeErr != nil {
			if errors.Is(storeErr, errUploadTooLarge) {
				redirectWithMessage(c, "/report/new", "error", uiText("error_upload_too_large"))
				return
			}
			a.log.Error("store uploaded photo failed", "error", storeErr)
			redirectWithMessage(c, "/report/new", "error", uiText("error_report_save_failed"))
			return
		}
		payload.PhotoFilename = photo
	}

	reportID, err := a.createReport(c.Request.Context(), payload)
	if err != nil {
		a.log.Error("create report failed", "error", err)
		redirectWithMessage(c, "/report/new", "error", uiText("error_report_save_failed"))
		return
	}

	recordReportSubmitted(payload.PhotoFilename != nil)
	a.log.Info("report submitted", "report_id", reportID, "has_photo", payload.PhotoFilename != nil)
	a.notifyNewReport(reportID, payload)
	redirectWithMessage(c, "/", "notice", uiText("notice_report_submitted"))
}

func (a *App) commentSubmitHandler(c *gin.Context) {
	reportID, err := strconv.Atoi(c.Param("id"))
	if err != nil || reportID <= 0 {
		redirectWithMessage(c, "/", "error", uiText("error_unknown_report"))
		return
	}

	text := strings.TrimSpace(c.PostForm("text"))
	if text == "" {
		redirectWithMessage(c, "/", "error", uiText("error_comment_text_required"))
		return
	}

	if !a.allowSubmission(c, submissionKindComment) {
		redirectWithMessage(c, "/", "error", uiText("error_rate_limited"))
		return
	}

	payload := CommentCreatePayload{
		ReportID: reportID,
		Author:   valueOrDefaultString(strings.TrimSpace(c.PostForm("author")), defaultAuthorName),
		Text:     text,
		IsHelper: parseBool(c.PostForm("is_helper")),
	}
	if _, err := a.createComment(c.Request.Context(), payload); err != nil {
		a.log.Error("create comment failed", "report_id", reportID, "error", err)
		redirectWithMessage(c, "/", "error", uiText("error_comment_save_failed"))
		return
	}

	recordCommentSubmitted(payload.IsHelper)
	redirectWithMessage(c, "/", "notice", uiText("notice_comment_added"))
}

func (a *App) sosPageHandler(c *gin.Context) {
	a.renderTemplate(c, http.StatusOK, templateSOSPath, sosViewData{
		baseViewData: a.baseData(c, "page_title_sos"),
	})
}

// sosSubmitHandler records the event first and only then looks for approved
// reports whose location contains the submitted text.
func (a *App) sosSubmitHandler(c *gin.Context) {
	ctx := c.Request.Context()
	payload := SOSCreatePayload{
		Name:         valueOrDefaultString(strings.TrimSpace(c.PostForm("name")), defaultAuthorName),
		Message:      valueOrDefaultString(strings.TrimSpace(c.PostForm("message")), defaultSOSMessage),
		LocationText: c.PostForm("location_text"),
		Latitude:     parseOptionalFloat(c.PostForm("lat")),
		Longitude:    parseOptionalFloat(c.PostForm("lon")),
	}

	event, err := a.createSOSEvent(ctx, payload)
	if err != nil {
		a.log.Error("create sos event failed", "error", err)
		redirectWithMessage(c, "/sos", "error", uiText("error_sos_save_failed"))
		return
	}

	nearby, err := a.findReportsByLocation(ctx, payload.LocationText)
	if err != nil {
		a.log.Error("nearby report lookup failed", "sos_id", event.ID, "error", err)
		nearby = []Report{}
	}

	recordSOSEvent(len(nearby) > 0)
	a.log.Warn("sos recorded", "sos_id", event.ID, "location", payload.LocationText, "nearby_count", len(nearby))
	a.notifySOS(event, nearby)

	base := a.baseData(c, "page_title_sos")
	a.renderTemplate(c, http.StatusOK, templateSOSPath, sosViewData{
		baseViewData: base,
		Submitted:    true,
		Event:        &event,
		Nearby:       nearby,
	})
}
