package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	mutationLimit    = 60
	limitWindow      = time.Minute
	staleClientAfter = 10 * time.Minute
)

// rateLimiter caps mutation requests per client IP over a fixed window.
type rateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientWindow
	stopCh   chan struct{}
	stopOnce sync.Once
}

type clientWindow struct {
	windowStart time.Time
	count       int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients: make(map[string]*clientWindow),
		stopCh:  make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// allow records one request for the client and reports whether it fits in
// the current window.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cw, ok := rl.clients[clientIP]
	if !ok || now.Sub(cw.windowStart) > limitWindow {
		rl.clients[clientIP] = &clientWindow{windowStart: now, count: 1}
		return true
	}

	cw.count++
	if cw.count > mutationLimit {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}

func (rl *rateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.dropStaleClients()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *rateLimiter) dropStaleClients() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-staleClientAfter)
	for ip, cw := range rl.clients {
		if cw.windowStart.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
	})
}
