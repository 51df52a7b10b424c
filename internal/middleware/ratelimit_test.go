package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ColorlessCube/fastapi-admin/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func throttledRouter(t *Throttle) *gin.Engine {
	router := gin.New()
	router.Use(t.Handler())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return router
}

func TestThrottle_AllowsNormalRequests(t *testing.T) {
	th := NewThrottle(ThrottleConfig{PerSecond: 10, Burst: 10})
	defer th.Stop()
	router := throttledRouter(th)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestThrottle_BlocksExcessiveRequests(t *testing.T) {
	th := NewThrottle(ThrottleConfig{PerSecond: 1, Burst: 2})
	defer th.Stop()
	router := throttledRouter(th)

	var last *httptest.ResponseRecorder
	for i := 0; i < 5; i++ {
		last = httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		router.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d after burst exceeded, got %d", http.StatusTooManyRequests, last.Code)
	}

	var body response.Response
	if err := json.Unmarshal(last.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.Code != response.CodeRateLimited {
		t.Errorf("body code = %d, expected %d", body.Code, response.CodeRateLimited)
	}
}

func TestThrottle_IndependentPerIP(t *testing.T) {
	th := NewThrottle(ThrottleConfig{PerSecond: 1, Burst: 1})
	defer th.Stop()
	router := throttledRouter(th)

	w1 := httptest.NewRecorder()
	req1, _ := http.NewRequest("GET", "/test", nil)
	req1.RemoteAddr = "10.0.0.1:12345"
	router.ServeHTTP(w1, req1)

	if w1.Code != http.StatusOK {
		t.Errorf("IP1 first request: expected %d, got %d", http.StatusOK, w1.Code)
	}

	// A second IP must not be affected by the first IP's bucket.
	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("GET", "/test", nil)
	req2.RemoteAddr = "10.0.0.2:12345"
	router.ServeHTTP(w2, req2)

	if w2.Code != http.StatusOK {
		t.Errorf("IP2 first request: expected %d, got %d", http.StatusOK, w2.Code)
	}
}

func TestThrottle_SweepReclaimsIdleBuckets(t *testing.T) {
	th := NewThrottle(ThrottleConfig{
		PerSecond: 1,
		Burst:     1,
		IdleTTL:   10 * time.Millisecond,
		Sweep:     20 * time.Millisecond,
	})
	defer th.Stop()

	th.allow("10.0.0.1")
	time.Sleep(60 * time.Millisecond)

	th.mu.Lock()
	n := len(th.clients)
	th.mu.Unlock()
	if n != 0 {
		t.Errorf("expected idle bucket to be reclaimed, %d remain", n)
	}
}
