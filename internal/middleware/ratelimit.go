package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ColorlessCube/fastapi-admin/pkg/response"
)

// ThrottleConfig bounds the request rate of a single client IP.
type ThrottleConfig struct {
	PerSecond float64
	Burst     int
	// IdleTTL drops a client's bucket after this much inactivity.
	// Sweep is how often idle buckets are reclaimed. Both fall back
	// to sane defaults when zero.
	IdleTTL time.Duration
	Sweep   time.Duration
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle enforces a per-IP token bucket. Buckets for clients that
// went quiet are reclaimed by a background sweeper.
type Throttle struct {
	cfg     ThrottleConfig
	mu      sync.Mutex
	clients map[string]*clientBucket
	stop    chan struct{}
}

func NewThrottle(cfg ThrottleConfig) *Throttle {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 5 * time.Minute
	}
	if cfg.Sweep <= 0 {
		cfg.Sweep = 3 * time.Minute
	}
	t := &Throttle{
		cfg:     cfg,
		clients: make(map[string]*clientBucket),
		stop:    make(chan struct{}),
	}
	go t.sweep()
	return t
}

func (t *Throttle) allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.clients[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(t.cfg.PerSecond), t.cfg.Burst)}
		t.clients[ip] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

func (t *Throttle) sweep() {
	ticker := time.NewTicker(t.cfg.Sweep)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			for ip, b := range t.clients {
				if time.Since(b.lastSeen) > t.cfg.IdleTTL {
					delete(t.clients, ip)
				}
			}
			t.mu.Unlock()
		}
	}
}

// Stop halts the background sweeper.
func (t *Throttle) Stop() {
	close(t.stop)
}

// Handler returns the Gin middleware enforcing the limit.
func (t *Throttle) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !t.allow(c.ClientIP()) {
			response.AbortError(c, response.NewRateLimited("too many requests, please try again later"))
			return
		}
		c.Next()
	}
}
