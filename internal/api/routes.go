package api

import (
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/perceptlab/study-engine/internal/audit"
	"github.com/perceptlab/study-engine/internal/catalog"
	"github.com/perceptlab/study-engine/internal/config"
	"github.com/perceptlab/study-engine/internal/db"
	"github.com/perceptlab/study-engine/internal/identity"
	"github.com/perceptlab/study-engine/internal/metrics"
	"github.com/perceptlab/study-engine/internal/shadow"
)

// APIHandler carries everything a request needs: storage, config, the live
// event hub, the quota limiter, the session exclusion tracker, the trail
// recorder and the Prometheus collectors. Constructed once in SetupRouter;
// tests build their own.
type APIHandler struct {
	store     *db.PostgresStore
	cfg       *config.Config
	hub       *Hub
	limiter   *QuotaLimiter
	sessions  *catalog.SessionTracker
	metrics   *metrics.Metrics
	trail     *audit.Recorder
	shadow    *shadow.Scorer // nil unless shadow scoring is enabled
	draw      func() float64
	startedAt time.Time
}

func SetupRouter(store *db.PostgresStore, cfg *config.Config, hub *Hub, sessions *catalog.SessionTracker, m *metrics.Metrics, trail *audit.Recorder, shadowScorer *shadow.Scorer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.CustomRecovery(recoveryHandler))

	handler := &APIHandler{
		store:    store,
		cfg:      cfg,
		hub:      hub,
		limiter:  NewQuotaLimiter(),
		sessions: sessions,
		metrics:  m,
		trail:    trail,
		shadow:   shadowScorer,
		// Process-wide generator; the global math/rand source is seeded from
		// entropy at startup and safe for concurrent use.
		draw:      rand.Float64,
		startedAt: time.Now(),
	}

	r.Use(handler.auditTrail())
	r.Use(securityHeaders())
	r.Use(corsMiddleware(cfg.CORSOrigins, cfg.AllowAllOrigins()))
	r.Use(handler.rateLimit())
	r.Use(withDeadline())
	r.Use(bodySizeLimit(cfg.MaxBodyBytes))
	r.Use(requireJSON())

	api := r.Group("/api")
	{
		api.GET("/health", handler.handleHealth)
		api.GET("/security/info", handler.handleSecurityInfo)

		api.POST("/participants", handler.handleRegisterParticipant)
		api.GET("/participants/:participant_id", handler.handleGetParticipant)

		api.POST("/consent", handler.handleRecordConsent)
		api.GET("/consent/:participant_id", handler.handleGetConsent)

		api.POST("/payment/order", handler.handleCreatePaymentOrder)
		api.POST("/payment/verify", handler.handleVerifyPayment)

		// random draws and static files share the wildcard; the handler splits.
		api.GET("/images/*image_id", handler.handleImages)
		api.GET("/attention", handler.handleAttentionLookup)

		api.POST("/submit", handler.handleSubmit)
		api.GET("/submissions/:submission_id", handler.handleGetSubmission)

		api.GET("/reward/:participant_id", handler.handleGetReward)
		api.POST("/reward/select/:participant_id", handler.handleSelectReward)

		api.GET("/events/live", monitorAuth(cfg.MonitorToken), hub.Subscribe)
		api.GET("/shadow/drift", monitorAuth(cfg.MonitorToken), handler.handleShadowDrift)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return r
}

// recoveryHandler turns a panic into a 500 with a correlation id; the panic
// value itself never reaches the client.
func recoveryHandler(c *gin.Context, recovered any) {
	corr := identity.NewID()
	log.Printf("[API] Panic %s on %s %s: %v", corr, c.Request.Method, c.Request.URL.Path, recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":          "Internal server error",
		"correlation_id": corr,
	})
}

func (h *APIHandler) clientHash(c *gin.Context) string {
	return identity.HashIP(h.cfg.IPHashSalt, c.ClientIP())
}

func clientUA(c *gin.Context) string {
	return identity.TruncateUserAgent(c.Request.UserAgent())
}
