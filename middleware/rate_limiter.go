package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"snapChallengeAPI/internal/logger"
)

// LimiterStore decides whether the client identified by key may proceed.
type LimiterStore interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiterStore keeps one token bucket per client in process memory.
type MemoryLimiterStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
}

func NewMemoryLimiterStore(rps float64, burst int) *MemoryLimiterStore {
	return &MemoryLimiterStore{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (s *MemoryLimiterStore) Allow(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, exists := s.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow(), nil
}

// Cleanup forgets clients idle for longer than maxIdle.
func (s *MemoryLimiterStore) Cleanup(maxIdle time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, v := range s.visitors {
		if time.Since(v.lastSeen) > maxIdle {
			delete(s.visitors, key)
		}
	}
}

// CleanupVisitors runs Cleanup every minute until ctx is done.
func (s *MemoryLimiterStore) CleanupVisitors(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Cleanup(3 * time.Minute)
		case <-ctx.Done():
			return
		}
	}
}

// redisTokenBucketScript refills and consumes one bucket atomically.
// KEYS[1] = bucket key, ARGV = rate per second, capacity, now (seconds).
var redisTokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", key, "tokens", "last_refill")
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if not tokens or not last_refill then
    tokens = capacity
    last_refill = now
end

local elapsed = now - last_refill
if elapsed > 0 then
    tokens = math.min(capacity, tokens + elapsed * rate)
    last_refill = now
end

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HMSET", key, "tokens", tokens, "last_refill", last_refill)
redis.call("EXPIRE", key, 60)

return allowed
`)

// RedisLimiterStore shares buckets between API instances.
type RedisLimiterStore struct {
	client *redis.Client
	rps    float64
	burst  int
}

func NewRedisLimiterStore(client *redis.Client, rps float64, burst int) *RedisLimiterStore {
	return &RedisLimiterStore{client: client, rps: rps, burst: burst}
}

func (s *RedisLimiterStore) Allow(ctx context.Context, key string) (bool, error) {
	now := float64(time.Now().UnixMicro()) / 1e6
	allowed, err := redisTokenBucketScript.Run(ctx, s.client, []string{"ratelimit:" + key}, s.rps, s.burst, now).Int()
	if err != nil {
		return false, fmt.Errorf("redis limiter error: %w", err)
	}
	return allowed == 1, nil
}

// RateLimitMiddleware rejects clients over their budget. Store errors fail open.
// X-Forwarded-For is only honored when the peer is one of trustedProxies.
func RateLimitMiddleware(store LimiterStore, trustedProxies []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := store.Allow(r.Context(), clientIP(r, trustedProxies))
			if err != nil {
				logger.Warn("RateLimit: %v", err)
				allowed = true
			}
			if !allowed {
				rateLimited.Inc()
				respondWithError(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP walks X-Forwarded-For from the right, skipping trusted hops, and
// stops at the first address a trusted proxy did not add itself.
func clientIP(r *http.Request, trustedProxies []netip.Prefix) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !isTrusted(peer, trustedProxies) {
		return host
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	client := peer
	for i := len(hops) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		client = hop
		if !isTrusted(hop, trustedProxies) {
			break
		}
	}
	return client.Unmap().String()
}

func isTrusted(addr netip.Addr, trustedProxies []netip.Prefix) bool {
	addr = addr.Unmap()
	for _, p := range trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
