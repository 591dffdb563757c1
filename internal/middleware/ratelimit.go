package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when Redis cannot be reached.
type FailPolicy int

const (
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

// RateRule is a fixed-window budget of Limit requests per Window.
type RateRule struct {
	Name   string
	Limit  int
	Window time.Duration
	Policy FailPolicy
}

// Budgets for the write-heavy and abuse-prone endpoints.
var (
	SignupRule  = RateRule{Name: "signup", Limit: 5, Window: 10 * time.Minute}
	LoginRule   = RateRule{Name: "login", Limit: 10, Window: 5 * time.Minute}
	FollowRule  = RateRule{Name: "follow", Limit: 30, Window: time.Minute}
	UploadRule  = RateRule{Name: "upload", Limit: 10, Window: time.Minute}
	SearchRule  = RateRule{Name: "search", Limit: 30, Window: time.Minute}
	CommentRule = RateRule{Name: "comment", Limit: 10, Window: time.Minute}
)

var errNoRateStore = errors.New("rate limit store unavailable")

// RateLimiter counts requests per rule and caller in Redis.
type RateLimiter struct {
	rdb    *redis.Client
	bypass bool
}

// NewRateLimiter returns a limiter over rdb. Local and test environments
// bypass all limits.
func NewRateLimiter(rdb *redis.Client, env string) *RateLimiter {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "test", "development", "dev", "stress":
		return &RateLimiter{rdb: rdb, bypass: true}
	}
	return &RateLimiter{rdb: rdb}
}

// RateDecision is the outcome of one Allow call.
type RateDecision struct {
	Allowed   bool
	Remaining int
	// Reset is how long until the window restarts.
	Reset time.Duration
}

// Allow records one request by id against rule.
func (l *RateLimiter) Allow(ctx context.Context, rule RateRule, id string) (RateDecision, error) {
	if l == nil || l.bypass {
		return RateDecision{Allowed: true, Remaining: rule.Limit}, nil
	}
	if l.rdb == nil {
		return RateDecision{}, errNoRateStore
	}

	key := "rl:" + rule.Name + ":" + id
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return RateDecision{}, err
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, rule.Window).Err(); err != nil {
			return RateDecision{}, err
		}
	}
	reset, err := l.rdb.PTTL(ctx, key).Result()
	if err != nil || reset < 0 {
		reset = rule.Window
	}

	return RateDecision{
		Allowed:   count <= int64(rule.Limit),
		Remaining: max(rule.Limit-int(count), 0),
		Reset:     reset,
	}, nil
}

// Handler enforces rule, keyed by the authenticated user when there is one
// and by client IP otherwise.
func (l *RateLimiter) Handler(rule RateRule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
			id = fmt.Sprintf("user:%d", uid)
		}

		decision, err := l.Allow(c.UserContext(), rule, id)
		if err != nil {
			if rule.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit unavailable, rejecting",
					slog.String("rule", rule.Name),
					slog.String("error", err.Error()))
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
				})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(decision.Reset.Round(time.Second)/time.Second)))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
