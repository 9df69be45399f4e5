package middlewares

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
)

type RateLimiterConfig struct {
	// Rate is the sustained number of attempts per second per key.
	Rate            rate.Limit
	Burst           int
	CleanupInterval time.Duration
}

// PerMinute builds a config allowing perMinute attempts per minute per key.
// A non-positive perMinute disables limiting.
func PerMinute(perMinute float64, burst int) RateLimiterConfig {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60)
	}
	if burst <= 0 {
		burst = 1
	}
	return RateLimiterConfig{
		Rate:            limit,
		Burst:           burst,
		CleanupInterval: 5 * time.Minute,
	}
}

type keyLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter throttles attempts per key, such as code submissions per
// identity.
type RateLimiter struct {
	config   RateLimiterConfig
	mu       sync.Mutex
	limiters map[string]*keyLimiter
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter starts a background loop dropping idle keys; call Stop to
// end it.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	rl := &RateLimiter{
		config:   config,
		limiters: make(map[string]*keyLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Check consumes one attempt for key. It returns a rate limit error carrying
// the seconds until the next attempt is allowed.
func (rl *RateLimiter) Check(key string) error {
	limiter := rl.limiter(key)

	res := limiter.Reserve()
	delay := res.Delay()
	if delay == 0 {
		return nil
	}
	res.Cancel()

	seconds := int(math.Ceil(delay.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return errorx.NewRateLimitExceededWithRetry(seconds)
}

func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	kl, ok := rl.limiters[key]
	if !ok {
		kl = &keyLimiter{limiter: rate.NewLimiter(rl.config.Rate, rl.config.Burst)}
		rl.limiters[key] = kl
	}
	kl.lastAccess = time.Now()
	return kl.limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now().Add(-rl.config.CleanupInterval))
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(idleBefore time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, kl := range rl.limiters {
		if kl.lastAccess.Before(idleBefore) {
			delete(rl.limiters, key)
		}
	}
}
