package main

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var errMissingSigningSecret = errors.New("session signing secret is not configured")

type AdminSession struct {
	Username string `json:"username"`
}

// haversineMeters is the great-circle distance between two coordinates.
// Nearby SOS matching is textual and does not call it.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusMeters = 6371000.0
	toRad := func(deg float64) float64 {
		return deg * math.Pi / 180
	}
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// parseBool understands checkbox-style truthy strings.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func parseOptionalInt(raw string) *int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &value
}

func parseOptionalFloat(raw string) *float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	return &value
}

func valueOrDefaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func (a *App) checkAdminCredentials(username, password string) bool {
	usernameOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(a.cfg.AdminUsername)) == 1
	passwordOK := bcrypt.CompareHashAndPassword(a.cfg.AdminPasswordHash, []byte(password)) == nil
	return usernameOK && passwordOK
}

func (a *App) createAdminSessionToken(session AdminSession) (string, error) {
	if a.cfg.AppSigningSecret == "" {
		return "", errMissingSigningSecret
	}
	claims := jwt.MapClaims{
		"sub":   session.Username,
		"admin": true,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(adminSessionDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.cfg.AppSigningSecret))
}

func (a *App) verifyAdminSessionToken(tokenString string) (*AdminSession, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		if a.cfg.AppSigningSecret == "" {
			return nil, errMissingSigningSecret
		}
		return []byte(a.cfg.AppSigningSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	isAdmin, _ := claims["admin"].(bool)
	username, _ := claims["sub"].(string)
	if !isAdmin || username == "" {
		return nil, fmt.Errorf("invalid session payload")
	}
	return &AdminSession{Username: username}, nil
}

func (a *App) startAdminSession(c *gin.Context, session AdminSession) error {
	token, err := a.createAdminSessionToken(session)
	if err != nil {
		return err
	}
	secure := strings.EqualFold(a.cfg.Env, "production")
	c.SetCookie(adminCookieName, token, int(adminSessionDuration.Seconds()), "/", "", secure, true)
	return nil
}

func (a *App) clearAdminSession(c *gin.Context) {
	secure := strings.EqualFold(a.cfg.Env, "production")
	c.SetCookie(adminCookieName, "", -1, "/", "", secure, true)
}

// adminSessionFromRequest returns the verified session carried by the
// request cookie, or nil.
func (a *App) adminSessionFromRequest(c *gin.Context) *AdminSession {
	token, err := c.Cookie(adminCookieName)
	if err != nil || token == "" {
		return nil
	}
	session, err := a.verifyAdminSessionToken(token)
	if err != nil {
		return nil
	}
	return session
}

// requireAdminSessionHTML sends clients without a valid session back to the
// admin page instead of answering with an error status.
func (a *App) requireAdminSessionHTML() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := a.adminSessionFromRequest(c)
		if session == nil {
			c.Redirect(http.StatusSeeOther, adminHomePath)
			c.Abort()
			return
		}
		c.Set("adminSession", *session)
		c.Next()
	}
}

func getAdminSession(c *gin.Context) (AdminSession, error) {
	value, ok := c.Get("adminSession")
	if !ok {
		return AdminSession{}, fmt.Errorf("missing session")
	}
	session, ok := value.(AdminSession)
	if !ok {
		return AdminSession{}, fmt.Errorf("invalid session")
	}
	return session, nil
}
