package main

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/iSparshh/lost-and-found-college/libs/mailer"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	reportStatusPending        = "pending"
	reportStatusApproved       = "approved"
	defaultAuthorName          = "Anonymous"
	defaultSOSMessage          = "SOS"
	defaultMaxUploadBytes      = 10 * 1024 * 1024
	defaultRateLimitRequests   = 8
	defaultRateLimitWindow     = 5 * time.Minute
	rateLimiterCleanupInterval = time.Minute
	adminCookieName            = "lostfound_admin_session"
	adminSessionDuration       = 8 * time.Hour
	notificationTimeout        = 15 * time.Second
	requestIDHeader            = "X-Request-ID"
	trustedProxyLoopbackIPv4   = "127.0.0.1"
	trustedProxyLoopbackIPv6   = "::1"
)

var reportStatuses = []string{reportStatusPending, reportStatusApproved}

type Config struct {
	Addr                string
	Env                 string
	DatabaseURL         string
	DataRoot            string
	TemplateDir         string
	AppSigningSecret    string
	AdminUsername       string
	AdminPasswordHash   []byte
	MaxUploadBytes      int64
	RateLimitRequests   int
	RateLimitWindow     time.Duration
	RedisURL            string
	ResendAPIKey        string
	MailerFromAddresses map[string]string
	AdminNotifyEmail    string
	SOSAlertEmail       string
}

type App struct {
	cfg *Config
	db  *sql.DB
	log *slog.Logger

	mailer    *mailer.Mailer
	limiter   submissionLimiter
	templates *templateRenderer
}

type Report struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Age           *int    `json:"age"`
	Location      string  `json:"location"`
	Description   string  `json:"description"`
	Status        string  `json:"status"`
	PhotoFilename *string `json:"photoFilename"`
	CreatedAt     string  `json:"createdAt"`
}

type Comment struct {
	ID        int    `json:"id"`
	ReportID  int    `json:"reportId"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	IsHelper  bool   `json:"isHelper"`
	CreatedAt string `json:"createdAt"`
}

type ReportWithComments struct {
	Report
	Comments []Comment `json:"comments"`
}

type SOSEvent struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Message      string   `json:"message"`
	LocationText string   `json:"locationText"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	CreatedAt    string   `json:"createdAt"`
}

type ReportCreatePayload struct {
	Name          string
	Age           *int
	Location      string
	Description   string
	PhotoFilename *string
}

type CommentCreatePayload struct {
	ReportID int
	Author   string
	Text     string
	IsHelper bool
}

type SOSCreatePayload struct {
	Name         string
	Message      string
	LocationText string
	Latitude     *float64
	Longitude    *float64
}

type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string { return e.Message }

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		panic(err)
	}

	var mailProvider mailer.Provider
	if cfg.ResendAPIKey != "" {
		mailProvider = mailer.NewResendProvider(cfg.ResendAPIKey)
	} else {
		mailProvider = mailer.NewLogProvider(logger)
	}
	logger.Info("mailer initialized", "provider", mailProvider.Name())

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	var limiter submissionLimiter
	if cfg.RedisURL != "" {
		redisLimiter, err := newRedisLimiter(cfg.RedisURL, cfg.RateLimitRequests, cfg.RateLimitWindow)
		if err != nil {
			panic(err)
		}
		defer redisLimiter.Close()
		limiter = redisLimiter
		logger.Info("rate limiter initialized", "backend", "redis")
	} else {
		memory := newMemoryLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
		memory.startCleanup(cleanupCtx, rateLimiterCleanupInterval)
		limiter = memory
		logger.Info("rate limiter initialized", "backend", "memory")
	}

	app := &App{
		cfg:       cfg,
		db:        db,
		log:       logger,
		mailer:    mailer.New(mailProvider, cfg.MailerFromAddresses[mailProvider.Name()]),
		limiter:   limiter,
		templates: newTemplateRenderer(cfg.TemplateDir),
	}

	logger.Info(
		"runtime configuration",
		"env",
		cfg.Env,
		"addr",
		cfg.Addr,
		"data_root",
		cfg.DataRoot,
		"template_dir",
		cfg.TemplateDir,
		"max_upload_bytes",
		cfg.MaxUploadBytes,
	)

	if err := app.runMigrations(ctx); err != nil {
		panic(err)
	}

	if err := os.MkdirAll(app.uploadDir(), 0o755); err != nil {
		panic(err)
	}

	r := app.newRouter()
	app.log.Info("starting gin server", "addr", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		panic(err)
	}
}

func (a *App) newRouter() *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies([]string{trustedProxyLoopbackIPv4, trustedProxyLoopbackIPv6}); err != nil {
		panic(err)
	}
	r.MaxMultipartMemory = a.cfg.MaxUploadBytes
	r.Use(gin.Recovery())
	r.Use(a.loggingMiddleware())
	r.Use(metricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.registerPublicRoutes(r)
	a.registerAPIRoutes(r)
	a.registerAdminRoutes(r)
	return r
}

func loadConfig() (*Config, error) {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		host := valueFromEnvKeys("PGHOST", "POSTGRES_HOST")
		if host == "" {
			host = "127.0.0.1"
		}
		port := valueFromEnvKeys("PGPORT", "POSTGRES_PORT")
		if port == "" {
			port = "5432"
		}
		dbname := valueFromEnvKeys("PGDATABASE", "POSTGRES_DB")
		user := valueFromEnvKeys("PGUSER", "POSTGRES_USER")
		password := valueFromEnvKeys("PGPASSWORD", "POSTGRES_PASSWORD")
		sslmode := valueFromEnvKeys("PGSSLMODE", "POSTGRES_SSLMODE")
		if sslmode == "" {
			sslmode = "disable"
		}
		if dbname != "" && user != "" {
			databaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, dbname, sslmode)
		}
	}
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or PG*/POSTGRES_* variables must be configured")
	}

	secret := strings.TrimSpace(os.Getenv("APP_SIGNING_SECRET"))
	if len(secret) < 16 {
		return nil, fmt.Errorf("APP_SIGNING_SECRET must be at least 16 characters")
	}

	adminUsername := strings.TrimSpace(os.Getenv("ADMIN_USERNAME"))
	if adminUsername == "" {
		return nil, fmt.Errorf("ADMIN_USERNAME must be configured")
	}
	passwordHash, err := adminPasswordHashFromEnv()
	if err != nil {
		return nil, err
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}

	cfg := &Config{
		Addr:              valueOrDefault("GIN_ADDR", ":8080"),
		Env:               env,
		DatabaseURL:       databaseURL,
		DataRoot:          valueOrDefault("DATA_ROOT", "./data"),
		TemplateDir:       strings.TrimSpace(os.Getenv("TEMPLATE_DIR")),
		AppSigningSecret:  secret,
		AdminUsername:     adminUsername,
		AdminPasswordHash: passwordHash,
		MaxUploadBytes:    defaultMaxUploadBytes,
		RateLimitRequests: defaultRateLimitRequests,
		RateLimitWindow:   defaultRateLimitWindow,
		RedisURL:          strings.TrimSpace(os.Getenv("REDIS_URL")),
		ResendAPIKey:      strings.TrimSpace(os.Getenv("RESEND_API_KEY")),
		MailerFromAddresses: map[string]string{
			"resend": valueOrDefault("MAILER_FROM_ADDRESS_RESEND", "noreply@lostfound.example.org"),
			"log":    valueOrDefault("MAILER_FROM_ADDRESS_LOG", "noreply@lostfound.local"),
		},
		AdminNotifyEmail: strings.TrimSpace(os.Getenv("ADMIN_NOTIFY_EMAIL")),
		SOSAlertEmail:    strings.TrimSpace(os.Getenv("SOS_ALERT_EMAIL")),
	}

	if raw := strings.TrimSpace(os.Getenv("MAX_UPLOAD_BYTES")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be a positive integer")
		}
		cfg.MaxUploadBytes = parsed
	}
	if raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_REQUESTS")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_REQUESTS must be a positive integer")
		}
		cfg.RateLimitRequests = parsed
	}
	if raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be a positive duration")
		}
		cfg.RateLimitWindow = parsed
	}

	return cfg, nil
}

// adminPasswordHashFromEnv prefers a precomputed bcrypt hash and falls back
// to hashing ADMIN_PASSWORD at startup.
func adminPasswordHashFromEnv() ([]byte, error) {
	if hash := strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH")); hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
		}
		return []byte(hash), nil
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be configured")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return hash, nil
}

func valueOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func valueFromEnvKeys(keys ...string) string {
	for _, key := range keys {
		value := strings.TrimSpace(os.Getenv(key))
		if value != "" {
			return value
		}
	}
	return ""
}

func (a *App) runMigrations(ctx context.Context) error {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return err
	}

	if _, err := a.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return err
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		var exists bool
		if err := a.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, file).Scan(&exists); err != nil {
			return err
		}
		if exists {
			continue
		}

		content, err := migrationFiles.ReadFile(filepath.ToSlash(filepath.Join("migrations", file)))
		if err != nil {
			return err
		}

		tx, err := a.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, file); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}

		a.log.Info("applied migration", "file", file)
	}

	return nil
}

func (a *App) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Next()
		a.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
			"request_id", requestID,
		)
	}
}

func writeAPIError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Code, "message": apiErr.Message})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
}
