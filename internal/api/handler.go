package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"hotel-portal/internal/auth"
	"hotel-portal/internal/realtime"
	"hotel-portal/internal/service"
	"hotel-portal/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the domain services behind the HTTP surface
type Services struct {
	Guests      *service.GuestService
	Carts       *service.CartService
	Requests    *service.RequestService
	Occupancy   *service.OccupancyService
	Billing     *service.BillingService
	Broadcaster *realtime.Broadcaster
	Gateway     *realtime.Gateway
}

// Options tune the HTTP surface
type Options struct {
	Resolver          auth.Resolver
	Location          *time.Location
	PhoneCookieMaxAge time.Duration
	SecureCookies     bool
	CORSOrigins       []string
	Readiness         []Pinger
}

// Handler contains HTTP handlers
type Handler struct {
	Services
	resolver     auth.Resolver
	loc          *time.Location
	cookieMaxAge time.Duration
	secure       bool
	corsOrigins  []string
	readiness    []Pinger
	logger       *zap.Logger
	now          func() time.Time
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, opts Options) *Handler {
	if opts.Resolver == nil {
		opts.Resolver = auth.HeaderResolver{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.PhoneCookieMaxAge <= 0 {
		opts.PhoneCookieMaxAge = 7 * 24 * time.Hour
	}
	return &Handler{
		Services:     svc,
		resolver:     opts.Resolver,
		loc:          opts.Location,
		cookieMaxAge: opts.PhoneCookieMaxAge,
		secure:       opts.SecureCookies,
		corsOrigins:  opts.CORSOrigins,
		readiness:    opts.Readiness,
		logger:       util.GetLogger(),
		now:          time.Now,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(h.logger))
	if len(h.corsOrigins) > 0 {
		router.Use(cors.New(h.corsConfig()))
	}
	router.Use(auth.Middleware(h.resolver))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h.setupGuestRoutes(router)
	h.setupPortalRoutes(router)

	if h.Gateway != nil {
		router.GET("/ws/portal/live/", h.Gateway.Handle)
		router.GET("/ws/hotel-portal-live/", h.Gateway.Handle)
	}
}

func (h *Handler) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	if len(h.corsOrigins) == 1 && h.corsOrigins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = h.corsOrigins
		cfg.AllowCredentials = true
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, auth.HeaderUser, auth.HeaderRole, auth.HeaderHotel)
	cfg.ExposeHeaders = []string{headerCartCount, headerCartTotal, "Content-Disposition"}
	return cfg
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings the store and bus
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	for _, p := range h.readiness {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"time":   time.Now().Unix(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			status,
		).Inc()
	}
}

// requestLogger logs one structured line per request
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}
