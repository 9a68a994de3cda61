package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"varna/internal/auth"
	"varna/internal/httpmiddleware"
)

// RootMessage is served on / when no client bundle is deployed next to the API.
const RootMessage = `API server is running. Start the client with "npm run dev" in the client folder and open http://localhost:5173`

// RouterConfig holds what the router needs besides the handler itself.
type RouterConfig struct {
	// Limiter guards /api. Nil disables rate limiting.
	Limiter httpmiddleware.Limiter
	// UploadDir is served under /uploads when set (local storage backend).
	UploadDir string
	// FrontendDir holds the built web client. Ignored when it does not exist.
	FrontendDir string
	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
	// Logger receives gin's access log lines.
	Logger *logrus.Logger
}

// NewRouter wires middleware and routes.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Logger != nil {
		r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
			Output:    cfg.Logger.WriterLevel(logrus.InfoLevel),
			SkipPaths: []string{"/api/health", "/metrics"},
		}))
	}
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))
	r.Use(securityHeaders())

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if cfg.UploadDir != "" {
		r.Static("/uploads", cfg.UploadDir)
	}

	api := r.Group("/api")
	if cfg.Limiter != nil {
		api.Use(httpmiddleware.RateLimit(cfg.Limiter, h.log))
	}
	{
		api.GET("/health", h.Health)
		api.GET("/health/db", h.HealthDB)

		api.POST("/public/registrations/individual", h.RegisterIndividual)
		api.POST("/public/registrations/school", h.RegisterSchool)

		api.POST("/admin/login", h.Login)
		admin := api.Group("/admin/registrations", auth.AdminAuth(h.tokens.Secret, h.tokens.Issuer))
		admin.GET("/individual", h.ListIndividuals)
		admin.GET("/school", h.ListSchools)
	}

	mountFrontend(r, cfg.FrontendDir)
	return r
}

// mountFrontend serves the single page client with an index.html fallback, or a plain
// text notice on / when the bundle is missing.
func mountFrontend(r *gin.Engine, dir string) {
	index := filepath.Join(dir, "index.html")
	if dir == "" || !fileExists(index) {
		r.GET("/", func(c *gin.Context) {
			c.String(http.StatusOK, RootMessage)
		})
		return
	}

	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		clean := filepath.Clean("/" + c.Request.URL.Path)
		if p := filepath.Join(dir, clean); clean != "/" && fileExists(p) {
			c.File(p)
			return
		}
		c.File(index)
	})
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
