package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"immerseforge-site/pkg/logger"
	"immerseforge-site/pkg/metrics"
	"immerseforge-site/pkg/middleware"
)

// RouterConfig wires the router. Metrics, RateLimiter and StaticDir are optional.
type RouterConfig struct {
	Handlers       *Handlers
	Logger         logger.Logger
	Metrics        *metrics.Metrics
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	StaticDir      string
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	h := cfg.Handlers

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		middleware.RequestID(log),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.CORS(cfg.AllowedOrigins),
	)
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.GinMiddleware())
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	submit := []gin.HandlerFunc{}
	if cfg.RateLimiter != nil {
		submit = append(submit, cfg.RateLimiter.Middleware())
	}

	router.GET("/health", h.HealthCheck)

	apiGroup := router.Group("/api")
	apiGroup.POST("/submit-application", append(submit, h.HandleTalentApplication)...)
	apiGroup.OPTIONS("/submit-application", func(c *gin.Context) { c.Status(http.StatusOK) })
	apiGroup.POST("/contact", append(submit, h.HandleContact)...)
	apiGroup.GET("/form-options", h.HandleFormOptions)
	apiGroup.GET("/content/pages/:page", h.HandlePageContent)

	router.GET("/website-content.json", h.HandleWebsiteContent)

	router.NoMethod(h.MethodNotAllowed)
	router.NoRoute(spaFallback(cfg.StaticDir))

	return router
}

// spaFallback serves files from dir and falls back to index.html so client
// side routes resolve. API paths and non-GET requests get a JSON 404.
func spaFallback(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		urlPath := c.Request.URL.Path
		if dir == "" || (method != http.MethodGet && method != http.MethodHead) || strings.HasPrefix(urlPath, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}

		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+urlPath)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			c.File(name)
			return
		}

		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.File(index)
	}
}
