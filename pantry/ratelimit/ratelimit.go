// ratelimit/ratelimit.go
package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// bucket is a token bucket. Callers hold the owning KeyLimiter's lock.
type bucket struct {
	tokens   float64
	lastTime time.Time
}

// take refills b for the time elapsed since the last call and consumes one
// token. When empty it returns the wait until the next token.
func (b *bucket) take(now time.Time, rate float64, burst int) (bool, time.Duration) {
	b.tokens = math.Min(float64(burst), b.tokens+now.Sub(b.lastTime).Seconds()*rate)
	b.lastTime = now
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if rate <= 0 {
		return false, time.Minute
	}
	return false, time.Duration((1 - b.tokens) / rate * float64(time.Second))
}

// KeyLimiter keeps one bucket per key (usually a client IP).
type KeyLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   int
	ttl     time.Duration
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewKeyLimiter allows rate requests per second per key with bursts of up to
// burst. Buckets idle for ttl are dropped by a background sweeper that runs
// until Stop.
func NewKeyLimiter(rate float64, burst int, ttl time.Duration) *KeyLimiter {
	if burst < 1 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	kl := &KeyLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go kl.sweep()
	return kl
}

// Allow consumes a token for key. When refused, retryAfter is the time
// until the bucket holds a token again.
func (kl *KeyLimiter) Allow(key string) (ok bool, retryAfter time.Duration) {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	now := kl.now()
	b, exists := kl.buckets[key]
	if !exists {
		b = &bucket{tokens: float64(kl.burst), lastTime: now}
		kl.buckets[key] = b
	}
	return b.take(now, kl.rate, kl.burst)
}

// Size returns the number of tracked keys.
func (kl *KeyLimiter) Size() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.buckets)
}

// Stop ends the sweeper goroutine. Safe to call more than once and on a
// nil limiter.
func (kl *KeyLimiter) Stop() {
	if kl == nil {
		return
	}
	kl.stopOnce.Do(func() { close(kl.stop) })
}

func (kl *KeyLimiter) sweep() {
	ticker := time.NewTicker(kl.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stop:
			return
		case <-ticker.C:
			kl.prune()
		}
	}
}

func (kl *KeyLimiter) prune() {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	now := kl.now()
	for key, b := range kl.buckets {
		if now.Sub(b.lastTime) > kl.ttl {
			delete(kl.buckets, key)
		}
	}
}

// KeyFunc extracts a key from an HTTP request for rate limiting.
type KeyFunc func(r *http.Request) string

// IPKeyFunc keys on the host part of RemoteAddr. Run chi's RealIP
// middleware first when the service sits behind a proxy.
func IPKeyFunc(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Config configures the rate limit middleware.
type Config struct {
	// PerMinute is the sustained number of requests allowed per key per
	// minute. Zero or less disables limiting.
	PerMinute float64

	// Burst is the bucket size. Defaults to 1.
	Burst int

	// KeyFunc defaults to IPKeyFunc.
	KeyFunc KeyFunc

	// TTL is how long idle keys are kept. Defaults to 1 hour.
	TTL time.Duration

	// OnLimited writes the response for a refused request. Retry-After is
	// already set. Defaults to a plain-text 429.
	OnLimited func(w http.ResponseWriter, r *http.Request)
}

// Middleware returns HTTP middleware that applies cfg and the limiter
// backing it, so the caller can Stop it on shutdown. With limiting disabled
// the middleware passes through and the limiter is nil.
func Middleware(cfg Config) (func(http.Handler) http.Handler, *KeyLimiter) {
	if cfg.PerMinute <= 0 {
		return passthrough, nil
	}
	limiter := NewKeyLimiter(cfg.PerMinute/60, cfg.Burst, cfg.TTL)
	return limiter.Wrap(cfg.KeyFunc, cfg.OnLimited), limiter
}

// Wrap returns middleware that spends one of kl's tokens per request.
// Several routes may share one limiter with their own onLimited responses.
// A nil limiter passes everything through; nil keyFn and onLimited take
// the Config defaults.
func (kl *KeyLimiter) Wrap(keyFn KeyFunc, onLimited func(w http.ResponseWriter, r *http.Request)) func(http.Handler) http.Handler {
	if kl == nil {
		return passthrough
	}
	if keyFn == nil {
		keyFn = IPKeyFunc
	}
	if onLimited == nil {
		onLimited = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := kl.Allow(keyFn(r))
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				onLimited(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func passthrough(next http.Handler) http.Handler { return next }
