package api

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestAllowExhaustsBurst(t *testing.T) {
	rl := NewQuotaLimiter()
	client := "hash-a"

	// reward_select allows 10 per minute; the burst equals the limit.
	for i := 0; i < 10; i++ {
		allowed, _ := rl.Allow(client, classRewardSelect)
		if !allowed {
			t.Fatalf("Expected call %d to be allowed within the burst", i+1)
		}
	}

	allowed, retryAfter := rl.Allow(client, classRewardSelect)
	if allowed {
		t.Fatalf("Expected the 11th call to be rejected")
	}
	if retryAfter <= 0 {
		t.Errorf("Expected a positive retry hint, got %v", retryAfter)
	}
}

func TestAllowIsolatesClients(t *testing.T) {
	rl := NewQuotaLimiter()

	for i := 0; i < 10; i++ {
		rl.Allow("hash-a", classRewardSelect)
	}
	if allowed, _ := rl.Allow("hash-a", classRewardSelect); allowed {
		t.Fatalf("Expected hash-a to be exhausted")
	}
	if allowed, _ := rl.Allow("hash-b", classRewardSelect); !allowed {
		t.Errorf("Expected hash-b to keep its own budget")
	}
}

func TestAllowUnknownClassUnlimited(t *testing.T) {
	rl := NewQuotaLimiter()
	for i := 0; i < 1000; i++ {
		if allowed, _ := rl.Allow("hash-a", "no_such_class"); !allowed {
			t.Fatalf("Expected an unknown class to pass through, rejected at call %d", i+1)
		}
	}
}

func TestAllowRefillsOverTime(t *testing.T) {
	rl := &QuotaLimiter{
		quotas:  map[string]quota{"fast": {limit: 5, window: time.Second}},
		buckets: make(map[string]*clientBucket),
	}

	for i := 0; i < 5; i++ {
		rl.Allow("hash-a", "fast")
	}
	if allowed, _ := rl.Allow("hash-a", "fast"); allowed {
		t.Fatalf("Expected the bucket to be empty")
	}

	// 5 tokens/second: 300ms buys roughly 1.5 tokens back.
	time.Sleep(300 * time.Millisecond)
	if allowed, _ := rl.Allow("hash-a", "fast"); !allowed {
		t.Errorf("Expected a token to have refilled after the wait")
	}
}

func TestClassesForRouting(t *testing.T) {
	var got []string
	capture := func(c *gin.Context) {
		got = classesFor(c)
		c.Status(http.StatusOK)
	}

	r := gin.New()
	r.POST("/api/submit", capture)
	r.POST("/api/reward/select/:participant_id", capture)
	r.GET("/api/images/*image_id", capture)
	r.GET("/api/participants/:participant_id", capture)

	tests := []struct {
		name     string
		method   string
		path     string
		expected []string
	}{
		{"Submit", http.MethodPost, "/api/submit", []string{classSubmit}},
		{"RewardSelect", http.MethodPost, "/api/reward/select/p-1", []string{classRewardSelect}},
		{"RandomImage", http.MethodGet, "/api/images/random", []string{classImagesRandom}},
		{"StaticImage", http.MethodGet, "/api/images/survey/aurora-lake.svg", []string{classImagesStatic}},
		{"UnlistedRoute", http.MethodGet, "/api/participants/p-1", []string{classGlobalHour, classGlobalDay}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected classes %v, got %v", tt.expected, got)
			}
		})
	}
}
