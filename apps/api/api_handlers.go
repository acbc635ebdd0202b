package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *App) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	api.GET("/reports", a.apiReportsHandler)
	api.GET("/sos/nearby", a.apiSOSNearbyHandler)
}

func (a *App) apiReportsHandler(c *gin.Context) {
	reports, err := a.listApprovedReportsWithComments(c.Request.Context())
	if err != nil {
		a.log.Error("api list reports failed", "error", err)
		writeAPIError(c, &apiError{Status: http.StatusInternalServerError, Code: "reports_unavailable", Message: "Could not load reports"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (a *App) apiSOSNearbyHandler(c *gin.Context) {
	location := c.Query("location")
	reports, err := a.findReportsByLocation(c.Request.Context(), location)
	if err != nil {
		a.log.Error("api nearby lookup failed", "error", err)
		writeAPIError(c, &apiError{Status: http.StatusInternalServerError, Code: "nearby_unavailable", Message: "Could not search reports"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": location, "reports": reports})
}
