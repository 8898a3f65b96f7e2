// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/jmmlabs/holidayhome-backend/internal/config"
	"github.com/jmmlabs/holidayhome-backend/internal/gemini"
	"github.com/jmmlabs/holidayhome-backend/internal/http/handlers"
	"github.com/jmmlabs/holidayhome-backend/internal/http/middleware"
	"github.com/jmmlabs/holidayhome-backend/internal/products"
	"github.com/jmmlabs/holidayhome-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// compression, CORS and security headers, health and metrics endpoints, and
// then mounts the public API.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with device-id scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter (photo uploads arrive as base64 JSON)
//  6. Metrics
//  7. Gzip (base64 image payloads compress poorly but JSON envelopes do not)
//  8. Rate limiter (per device/IP)
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, image gemini.Client, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-Api-Key",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit; /generate bodies carry a full photo.
	r.Use(limitBody(cfg.MaxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 8) Token-bucket rate limiter per device/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByDeviceOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Device-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist.
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Device-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← db/config/image client
	quotaSvc := services.NewQuotaService(db, cfg.Rewards.InitialFreeGenerations)
	referralSvc := &services.ReferralService{
		DB:      db,
		Quota:   quotaSvc,
		Reward:  cfg.Rewards.ReferralReward,
		BaseURL: cfg.ReferralBaseURL,
	}
	purchaseSvc := &services.PurchaseService{
		DB:      db,
		Quota:   quotaSvc,
		Credits: cfg.Rewards.ProductCredits,
	}
	catalog := &products.Catalog{AffiliateTag: cfg.AffiliateTag}

	h := handlers.New(quotaSvc, referralSvc, purchaseSvc, image, catalog)

	// Public API
	r.POST("/generate", h.Generate)

	referral := r.Group("/referral")
	{
		referral.POST("/generate-referral", h.GenerateReferral)
		referral.POST("/claim-referral", h.ClaimReferral)
		referral.GET("/user/:deviceId", h.GetUser)
		referral.GET("/stats/:deviceId", h.GetStats)
		referral.GET("/referral-stats/:code", h.GetCodeStats)
	}

	r.POST("/generations/credit", h.CreditPurchase)
}

// limitBody caps the request body size for all endpoints to maxBytes using
// http.MaxBytesReader. Requests exceeding the cap cause downstream body reads
// to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
