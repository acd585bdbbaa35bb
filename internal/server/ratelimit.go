package server

import (
	"sync"
	"time"

	"github.com/lawnchairsociety/tilegen/internal/config"
)

// RequestLimiter locks out addresses that keep sending requests the server
// refuses (malformed JSON, oversized maps). Lockouts double on each repeat
// up to a maximum.
type RequestLimiter struct {
	mu                sync.Mutex
	clients           map[string]*failureInfo
	maxFailures       int
	lockoutSeconds    int
	maxLockoutSeconds int
	cleanupInterval   time.Duration
	stopCleanup       chan struct{}
	stopOnce          sync.Once
	now               func() time.Time
}

type failureInfo struct {
	failures     int
	lockedUntil  time.Time
	lockoutCount int
}

// NewRequestLimiter creates a limiter from cfg and starts its cleanup loop.
func NewRequestLimiter(cfg config.RateLimitConfig) *RequestLimiter {
	rl := &RequestLimiter{
		clients:           make(map[string]*failureInfo),
		maxFailures:       cfg.MaxFailures,
		lockoutSeconds:    cfg.LockoutSeconds,
		maxLockoutSeconds: cfg.MaxLockoutSeconds,
		cleanupInterval:   5 * time.Minute,
		stopCleanup:       make(chan struct{}),
		now:               time.Now,
	}

	if rl.maxFailures == 0 {
		rl.maxFailures = 5
	}
	if rl.lockoutSeconds == 0 {
		rl.lockoutSeconds = 30
	}
	if rl.maxLockoutSeconds == 0 {
		rl.maxLockoutSeconds = 300
	}

	go rl.cleanupLoop()

	return rl
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (rl *RequestLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

// IsLocked reports whether ip is locked out and for how much longer.
func (rl *RequestLimiter) IsLocked(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	info, exists := rl.clients[ip]
	if !exists {
		return false, 0
	}

	if now := rl.now(); now.Before(info.lockedUntil) {
		return true, info.lockedUntil.Sub(now)
	}
	return false, 0
}

// RecordFailure counts a refused request from ip. It returns true and the
// lockout duration when this failure locks the address.
func (rl *RequestLimiter) RecordFailure(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	info, exists := rl.clients[ip]
	if !exists {
		info = &failureInfo{}
		rl.clients[ip] = info
	}

	now := rl.now()
	if now.Before(info.lockedUntil) {
		return true, info.lockedUntil.Sub(now)
	}

	info.failures++
	if info.failures < rl.maxFailures {
		return false, 0
	}

	info.lockoutCount++
	lockout := time.Duration(rl.lockoutSeconds) * time.Second
	maxLockout := time.Duration(rl.maxLockoutSeconds) * time.Second
	for i := 1; i < info.lockoutCount; i++ {
		if lockout >= maxLockout/2 {
			lockout = maxLockout
			break
		}
		lockout *= 2
	}
	if lockout > maxLockout {
		lockout = maxLockout
	}
	info.lockedUntil = now.Add(lockout)
	info.failures = 0
	return true, lockout
}

// RecordSuccess clears the failure count of ip.
func (rl *RequestLimiter) RecordSuccess(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.clients, ip)
}

// Failures returns the failures ip has accumulated since its last lockout
// or success.
func (rl *RequestLimiter) Failures(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if info, exists := rl.clients[ip]; exists {
		return info.failures
	}
	return 0
}

func (rl *RequestLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCleanup:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup drops addresses unlocked for ten minutes with no new failures.
func (rl *RequestLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-10 * time.Minute)
	for ip, info := range rl.clients {
		if info.lockedUntil.Before(cutoff) && info.failures == 0 {
			delete(rl.clients, ip)
		}
	}
}
