package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/kbukum/pushhub/errors"
)

const limiterExpiry = 5 * time.Minute

// RateLimitConfig configures per-key token bucket limiting.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`

	// KeyFunc extracts the limiter key. Defaults to the client IP.
	KeyFunc func(*gin.Context) string `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults sets the default rate and burst.
func (c *RateLimitConfig) ApplyDefaults() {
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 5
	}
	if c.Burst == 0 {
		c.Burst = 10
	}
}

// RateLimit rejects requests with 429 once a key exhausts its bucket.
// Limiters idle for longer than limiterExpiry are dropped.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	cfg.ApplyDefaults()
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPBasedKey
	}

	store := &limiterStore{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.Burst,
		now:      time.Now,
	}

	return func(c *gin.Context) {
		if !store.allow(cfg.KeyFunc(c)) {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(cfg.RequestsPerSecond)))
			abortWithError(c, errors.RateLimited())
			return
		}
		c.Next()
	}
}

// IPBasedKey keys limiters by client IP.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterStore struct {
	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	limit       rate.Limit
	burst       int
	now         func() time.Time
	lastCleanup time.Time
}

func (s *limiterStore) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastCleanup) > limiterExpiry {
		s.cleanup(now)
	}

	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (s *limiterStore) cleanup(now time.Time) {
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > limiterExpiry {
			delete(s.limiters, key)
		}
	}
	s.lastCleanup = now
}

func retryAfterSeconds(rps float64) int {
	if rps >= 1 {
		return 1
	}
	return int(1/rps) + 1
}
