package security

import (
	"context"
	"fmt"
	"log"
	"time"
)

// CounterStore is the shared key-value store the gate keeps all of its state
// in. Implementations must serialize operations per key (atomic increment,
// atomic set-with-expiry); nothing here relies on cross-key transactions.
type CounterStore interface {
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	ListPrepend(ctx context.Context, key, value string) error
	ListLength(ctx context.Context, key string) (int64, error)
	KeysWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

const (
	counterPrefix    = "rate_limit:"
	blockPrefix      = "blocked_ip:"
	suspiciousPrefix = "suspicious:"

	windowLength  = time.Minute
	suspiciousTTL = 24 * time.Hour
)

type Config struct {
	GeneralPerMinute    int
	DashboardPerMinute  int
	APIPerMinute        int
	SearchPerMinute     int
	BlockDuration       time.Duration
	SuspiciousThreshold int
}

type RateLimitResult struct {
	Allowed           bool   `json:"allowed"`
	RemainingRequests int    `json:"remaining_requests"`
	ResetTimeSeconds  int    `json:"reset_time_seconds"`
	Message           string `json:"message"`
}

type SecurityMetrics struct {
	BlockedClients       int       `json:"blocked_clients"`
	SuspiciousActivities int       `json:"suspicious_activities"`
	Timestamp            time.Time `json:"timestamp"`
}

// RateGate decides, per inbound call, whether to allow it, and maintains the
// counters, block records and suspicious-activity logs needed to make that
// decision over time. It holds no state of its own; everything lives in the
// store, so the gate is safe to construct fresh per process.
type RateGate struct {
	store CounterStore
	cfg   Config
	now   func() time.Time
}

func NewRateGate(store CounterStore, cfg Config) *RateGate {
	if cfg.GeneralPerMinute <= 0 {
		cfg.GeneralPerMinute = 60
	}
	if cfg.DashboardPerMinute <= 0 {
		cfg.DashboardPerMinute = 30
	}
	if cfg.APIPerMinute <= 0 {
		cfg.APIPerMinute = 100
	}
	if cfg.SearchPerMinute <= 0 {
		cfg.SearchPerMinute = 20
	}
	if cfg.BlockDuration <= 0 {
		cfg.BlockDuration = 30 * time.Minute
	}
	if cfg.SuspiciousThreshold <= 0 {
		cfg.SuspiciousThreshold = 10
	}

	return &RateGate{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// CheckRateLimit counts this call against the client's current one-minute
// window for the given endpoint and decides whether it may proceed. A
// blocked client is rejected before any counter is touched, so it cannot
// inflate its own windows while blocked.
func (g *RateGate) CheckRateLimit(ctx context.Context, clientID, endpoint string, maxPerMinute int) RateLimitResult {
	blocked, err := g.store.Exists(ctx, blockPrefix+clientID)
	if err != nil {
		return g.failOpen(clientID, maxPerMinute, err)
	}
	if blocked {
		return RateLimitResult{Allowed: false, Message: "blocked"}
	}

	key := g.counterKey(endpoint, clientID)
	count, err := g.store.Increment(ctx, key)
	if err != nil {
		return g.failOpen(clientID, maxPerMinute, err)
	}

	if count == 1 {
		// Not transactional with the increment: a concurrent first hit can
		// briefly observe the key without a TTL, and the counter may
		// over-live its bucket by a moment. It cannot leak past one window.
		if err := g.store.Expire(ctx, key, windowLength); err != nil {
			return g.failOpen(clientID, maxPerMinute, err)
		}
	}

	if count > int64(maxPerMinute) {
		g.LogSuspiciousActivity(ctx, clientID, "rate_limit_exceeded",
			fmt.Sprintf("endpoint=%s count=%d limit=%d", endpoint, count, maxPerMinute))

		return RateLimitResult{
			Allowed:          false,
			ResetTimeSeconds: int(windowLength.Seconds()),
			Message:          "rate limit exceeded",
		}
	}

	remaining := maxPerMinute - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return RateLimitResult{
		Allowed:           true,
		RemainingRequests: remaining,
		ResetTimeSeconds:  int(windowLength.Seconds()),
		Message:           "allowed",
	}
}

func (g *RateGate) CheckGeneralRateLimit(ctx context.Context, clientID string) RateLimitResult {
	return g.CheckRateLimit(ctx, clientID, "general", g.cfg.GeneralPerMinute)
}

func (g *RateGate) CheckDashboardRateLimit(ctx context.Context, clientID string) RateLimitResult {
	return g.CheckRateLimit(ctx, clientID, "dashboard", g.cfg.DashboardPerMinute)
}

func (g *RateGate) CheckAPIRateLimit(ctx context.Context, clientID string) RateLimitResult {
	return g.CheckRateLimit(ctx, clientID, "api", g.cfg.APIPerMinute)
}

func (g *RateGate) CheckSearchRateLimit(ctx context.Context, clientID string) RateLimitResult {
	return g.CheckRateLimit(ctx, clientID, "search", g.cfg.SearchPerMinute)
}

// IsBlocked reports whether a block record exists for the client. A store
// failure reads as "not blocked", consistent with the allow-decision policy.
func (g *RateGate) IsBlocked(ctx context.Context, clientID string) bool {
	blocked, err := g.store.Exists(ctx, blockPrefix+clientID)
	if err != nil {
		log.Printf("rategate: block check failed for %s, treating as unblocked: %v", clientID, err)
		return false
	}
	return blocked
}

// BlockClient sets a block record with the given TTL. Re-blocking overwrites
// the reason and resets the TTL.
func (g *RateGate) BlockClient(ctx context.Context, clientID string, duration time.Duration, reason string) {
	if err := g.store.Set(ctx, blockPrefix+clientID, reason, duration); err != nil {
		log.Printf("rategate: failed to block %s: %v", clientID, err)
		return
	}

	log.Printf("rategate: blocked %s for %v: %s", clientID, duration, reason)
}

// UnblockClient removes the block record. No-op if absent.
func (g *RateGate) UnblockClient(ctx context.Context, clientID string) {
	if err := g.store.Delete(ctx, blockPrefix+clientID); err != nil {
		log.Printf("rategate: failed to unblock %s: %v", clientID, err)
	}
}

// LogSuspiciousActivity prepends an entry to the client's suspicious log and
// refreshes its 24h TTL. Crossing the threshold escalates to a temporary
// block; this is the only path from repeated violations to a hard block. A
// failure to log never blocks the triggering request.
func (g *RateGate) LogSuspiciousActivity(ctx context.Context, clientID, activity, details string) {
	key := suspiciousPrefix + clientID
	entry := fmt.Sprintf("%s|%s|%s", g.now().UTC().Format(time.RFC3339), activity, details)

	if err := g.store.ListPrepend(ctx, key, entry); err != nil {
		log.Printf("rategate: failed to log suspicious activity for %s: %v", clientID, err)
		return
	}

	if err := g.store.Expire(ctx, key, suspiciousTTL); err != nil {
		log.Printf("rategate: failed to refresh suspicious log TTL for %s: %v", clientID, err)
	}

	length, err := g.store.ListLength(ctx, key)
	if err != nil {
		log.Printf("rategate: failed to read suspicious log length for %s: %v", clientID, err)
		return
	}

	if length > int64(g.cfg.SuspiciousThreshold) {
		g.BlockClient(ctx, clientID, g.cfg.BlockDuration, "multiple rate limit violations")
	}
}

// GetSecurityMetrics counts block records and suspicious logs by prefix
// enumeration. O(matching keys); meant for admin dashboards, not the hot
// path. Store errors produce a zeroed snapshot.
func (g *RateGate) GetSecurityMetrics(ctx context.Context) SecurityMetrics {
	metrics := SecurityMetrics{Timestamp: g.now().UTC()}

	blocked, err := g.store.KeysWithPrefix(ctx, blockPrefix)
	if err != nil {
		log.Printf("rategate: failed to enumerate block records: %v", err)
		return SecurityMetrics{Timestamp: metrics.Timestamp}
	}

	suspicious, err := g.store.KeysWithPrefix(ctx, suspiciousPrefix)
	if err != nil {
		log.Printf("rategate: failed to enumerate suspicious logs: %v", err)
		return SecurityMetrics{Timestamp: metrics.Timestamp}
	}

	metrics.BlockedClients = len(blocked)
	metrics.SuspiciousActivities = len(suspicious)
	return metrics
}

// failOpen is the single place a store failure becomes an allow decision.
// An unavailable rate limiter must not take down the service it protects.
func (g *RateGate) failOpen(clientID string, maxPerMinute int, err error) RateLimitResult {
	log.Printf("rategate: store unavailable for %s, failing open: %v", clientID, err)

	return RateLimitResult{
		Allowed:           true,
		RemainingRequests: maxPerMinute,
		ResetTimeSeconds:  int(windowLength.Seconds()),
		Message:           "rate limiting unavailable",
	}
}

// counterKey is a pure function of (endpoint, client, wall-clock minute), so
// no two logically distinct windows ever share a key.
func (g *RateGate) counterKey(endpoint, clientID string) string {
	bucket := g.now().Unix() / int64(windowLength.Seconds())
	return fmt.Sprintf("%s%s:%s:%d", counterPrefix, endpoint, clientID, bucket)
}
