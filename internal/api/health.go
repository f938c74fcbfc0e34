package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleHealth reports engine status for service discovery: storage liveness
// plus a catalog sanity count.
func (h *APIHandler) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()
	dbConnected := h.store.Ping(ctx) == nil

	status := "operational"
	imageCount := 0
	if dbConnected {
		imageCount, _ = h.store.CountImages(ctx)
	} else {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        status,
		"engine":        "Study Engine v1.0",
		"dbConnected":   dbConnected,
		"imageCount":    imageCount,
		"uptimeSeconds": int(time.Since(h.startedAt).Seconds()),
	})
}

// handleSecurityInfo exposes the middleware configuration snapshot so
// clients and probes can discover the active limits.
func (h *APIHandler) handleSecurityInfo(c *gin.Context) {
	limits := make(map[string]string, len(defaultQuotas))
	for class, q := range defaultQuotas {
		limits[class] = fmt.Sprintf("%d per %s", q.limit, q.window)
	}

	c.JSON(http.StatusOK, gin.H{
		"cors_origins":            h.cfg.CORSOrigins,
		"allow_all_origins":       h.cfg.AllowAllOrigins(),
		"rate_limits":             limits,
		"max_body_bytes":          h.cfg.MaxBodyBytes,
		"request_timeout_seconds": int(requestDeadline.Seconds()),
		"min_word_count":          h.cfg.MinWordCount,
		"payment_required":        h.cfg.PaymentRequired,
	})
}

// handleShadowDrift reports the aggregate divergence between the live quality
// formula and the shadow candidate. 404 when shadow scoring is disabled.
func (h *APIHandler) handleShadowDrift(c *gin.Context) {
	if h.shadow == nil {
		h.writeError(c, newError(errNotFound, "Shadow scoring is not enabled"))
		return
	}
	drift, err := h.shadow.Drift(c.Request.Context())
	if err != nil {
		h.writeError(c, fromStorage(err, "Shadow drift unavailable"))
		return
	}
	c.JSON(http.StatusOK, drift)
}
