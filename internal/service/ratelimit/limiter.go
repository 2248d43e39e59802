package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per key (client address for the API). Keys idle long
// enough for their bucket to refill completely are evicted from within Allow.
type Limiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func New(capacity, refillPerSec float64) *Limiter {
	burst := max(int(capacity), 1)
	idle := time.Minute
	if refillPerSec > 0 {
		idle = max(idle, time.Duration(float64(burst)/refillPerSec*float64(time.Second)))
	}
	return &Limiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(refillPerSec),
		burst:   burst,
		idle:    idle,
		now:     time.Now,
	}
}

// Allow reports whether key may make one more request now.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lastSweep.IsZero() {
		l.lastSweep = now
	}
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Len is the number of keys currently tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// sweep must be called with mu held. An evicted key comes back with a full bucket,
// which is what it would have had anyway after idling this long.
func (l *Limiter) sweep(now time.Time) {
	for k, c := range l.clients {
		if now.Sub(c.lastSeen) >= l.idle {
			delete(l.clients, k)
		}
	}
	l.lastSweep = now
}
