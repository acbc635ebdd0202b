package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iSparshh/lost-and-found-college/libs/mailer"
)

const (
	testSigningSecret = "0123456789abcdef"
	testAdminUsername = "admin"
	testAdminPassword = "correct horse battery"
)

type recordingMailProvider struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (p *recordingMailProvider) Name() string { return "recording" }

func (p *recordingMailProvider) Send(ctx context.Context, msg mailer.Message) (mailer.SendResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
	return mailer.SendResult{ProviderMessageID: "rec-1"}, nil
}

func (p *recordingMailProvider) messages() []mailer.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]mailer.Message(nil), p.sent...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestApp wires an App to a sqlmock database and a temporary data root.
func newTestApp(t *testing.T) (*App, sqlmock.Sqlmock, *recordingMailProvider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	provider := &recordingMailProvider{}
	app := &App{
		cfg: &Config{
			Env:               "test",
			DataRoot:          t.TempDir(),
			AppSigningSecret:  testSigningSecret,
			AdminUsername:     testAdminUsername,
			AdminPasswordHash: hash,
			MaxUploadBytes:    1 << 20,
			RateLimitRequests: defaultRateLimitRequests,
			RateLimitWindow:   defaultRateLimitWindow,
		},
		db:        db,
		log:       discardLogger(),
		mailer:    mailer.New(provider, "noreply@lostfound.local"),
		templates: newTemplateRenderer(""),
	}
	return app, mock, provider
}

func formRequest(method, target string, values map[string]string) *http.Request {
	form := url.Values{}
	for key, value := range values {
		form.Set(key, value)
	}
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func withAdminSession(t *testing.T, app *App, req *http.Request) *http.Request {
	t.Helper()
	token, err := app.createAdminSessionToken(AdminSession{Username: testAdminUsername})
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: adminCookieName, Value: token})
	return req
}

func serve(app *App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.newRouter().ServeHTTP(rec, req)
	return rec
}
