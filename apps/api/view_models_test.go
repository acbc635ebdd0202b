package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedirectTargetsStayOnSite(t *testing.T) {
	assert.Equal(t, "/", sanitizeRedirectTarget(""))
	assert.Equal(t, "/", sanitizeRedirectTarget("https://evil.example/admin"))
	assert.Equal(t, "/", sanitizeRedirectTarget("//evil.example"))
	assert.Equal(t, "/admin?page=2", sanitizeRedirectTarget("/admin?page=2"))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Pending", statusLabel(reportStatusPending))
	assert.Equal(t, "Approved", statusLabel(reportStatusApproved))
	assert.Equal(t, "status_archived", statusLabel("archived"))
}
