package api

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/perceptlab/study-engine/pkg/models"
)

// ──────────────────────────────────────────────────────────────────────
// Per-client token bucket rate limiter
//
// Clients are identified by hashed ip. Listed endpoints carry their own
// per-minute quota class; everything else shares the global hour and day
// buckets. When a bucket is empty the request receives HTTP 429 with a
// Retry-After header indicating when to try again.
//
// A background goroutine cleans up buckets that have been idle for more than
// cleanupIdleDuration to prevent unbounded memory growth from transient
// clients. State is process-local; a multi-process deployment multiplies the
// effective limits by the worker count.
// ──────────────────────────────────────────────────────────────────────

const cleanupIdleDuration = 10 * time.Minute

// Quota class names. The images classes are resolved from the wildcard route
// parameter since random draws and static serving share one route.
const (
	classGlobalDay    = "global_day"
	classGlobalHour   = "global_hour"
	classParticipants = "participants_post"
	classConsent      = "consent_post"
	classSubmit       = "submit"
	classImagesRandom = "images_random"
	classImagesStatic = "images_static"
	classRewardSelect = "reward_select"
)

type quota struct {
	limit  int
	window time.Duration
}

func (q quota) ratePerSecond() float64 { return float64(q.limit) / q.window.Seconds() }

var defaultQuotas = map[string]quota{
	classGlobalDay:    {limit: 200, window: 24 * time.Hour},
	classGlobalHour:   {limit: 50, window: time.Hour},
	classParticipants: {limit: 30, window: time.Minute},
	classConsent:      {limit: 20, window: time.Minute},
	classSubmit:       {limit: 60, window: time.Minute},
	classImagesRandom: {limit: 120, window: time.Minute},
	classImagesStatic: {limit: 300, window: time.Minute},
	classRewardSelect: {limit: 10, window: time.Minute},
}

var routeClasses = map[string]string{
	"POST /api/participants":                  classParticipants,
	"POST /api/consent":                       classConsent,
	"POST /api/submit":                        classSubmit,
	"POST /api/reward/select/:participant_id": classRewardSelect,
}

type clientBucket struct {
	tokens   float64
	lastSeen time.Time
	mu       sync.Mutex
}

// QuotaLimiter holds per-client bucket state for every quota class.
type QuotaLimiter struct {
	quotas  map[string]quota
	mu      sync.Mutex
	buckets map[string]*clientBucket
}

func NewQuotaLimiter() *QuotaLimiter {
	rl := &QuotaLimiter{
		quotas:  defaultQuotas,
		buckets: make(map[string]*clientBucket),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow consumes one token from the client's bucket for the given class.
// When the bucket is empty it reports false and how long until a token
// becomes available.
func (rl *QuotaLimiter) Allow(client, class string) (bool, time.Duration) {
	q, ok := rl.quotas[class]
	if !ok {
		return true, 0
	}

	key := class + "|" + client
	rl.mu.Lock()
	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = &clientBucket{tokens: float64(q.limit)}
		rl.buckets[key] = bucket
	}
	rl.mu.Unlock()

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	now := time.Now()
	// Refill tokens based on elapsed time since last request.
	elapsed := now.Sub(bucket.lastSeen).Seconds()
	bucket.tokens += elapsed * q.ratePerSecond()
	if bucket.tokens > float64(q.limit) {
		bucket.tokens = float64(q.limit)
	}
	bucket.lastSeen = now

	if bucket.tokens >= 1.0 {
		bucket.tokens--
		return true, 0
	}

	retryAfter := time.Duration((1.0-bucket.tokens)/q.ratePerSecond()*1000) * time.Millisecond
	return false, retryAfter
}

// classesFor resolves which quota classes apply to the matched route.
func classesFor(c *gin.Context) []string {
	key := c.Request.Method + " " + c.FullPath()
	if key == "GET /api/images/*image_id" {
		if imageParam(c) == "random" {
			return []string{classImagesRandom}
		}
		return []string{classImagesStatic}
	}
	if class, ok := routeClasses[key]; ok {
		return []string{class}
	}
	return []string{classGlobalHour, classGlobalDay}
}

// rateLimit enforces quotas for every route except health, metrics scraping
// and the live event stream. Rejections emit a rate_limit_exceeded audit
// event; the consumed token is not refunded, which keeps counting
// conservative.
func (h *APIHandler) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "/api/health" || path == "/metrics" || path == "/api/events/live" {
			c.Next()
			return
		}

		client := h.clientHash(c)
		for _, class := range classesFor(c) {
			allowed, retryAfter := h.limiter.Allow(client, class)
			if allowed {
				continue
			}

			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			h.metrics.RecordRateLimited(path)

			h.trail.Event(&models.AuditEvent{
				EventType:  "rate_limit_exceeded",
				Endpoint:   path,
				Method:     c.Request.Method,
				StatusCode: 429,
				IPHash:     client,
				UserAgent:  clientUA(c),
				Details:    "quota class " + class,
			})

			h.writeError(c, newError(errRateLimited, "Rate limit exceeded"))
			return
		}
		c.Next()
	}
}

// cleanupLoop removes stale client buckets. A bucket may only be dropped
// once it has been idle for its full quota window, otherwise an evicted
// day-scale bucket would hand back its whole burst early.
func (rl *QuotaLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupIdleDuration)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		rl.mu.Lock()
		for key, b := range rl.buckets {
			idleAfter := cleanupIdleDuration
			class, _, _ := strings.Cut(key, "|")
			if q, ok := rl.quotas[class]; ok && q.window > idleAfter {
				idleAfter = q.window
			}
			b.mu.Lock()
			idle := now.Sub(b.lastSeen) > idleAfter
			b.mu.Unlock()
			if idle {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}
