package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"ksk-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const clientKey = "ksk.client"

// ZapLogger logs one line per request.
func ZapLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// streamToken also accepts ?token= since EventSource cannot set headers.
func streamToken(c *gin.Context) string {
	if token := bearerToken(c); token != "" {
		return token
	}
	return c.Query("token")
}

// OptionalAuth attaches the client named by a valid bearer token, if any.
func OptionalAuth(registry *service.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if client, err := registry.Resolve(c.Request.Context(), token); err == nil {
				c.Set(clientKey, client)
			}
		}
		c.Next()
	}
}

// RequireSession rejects requests without a valid bearer session token.
func RequireSession(registry *service.Registry) gin.HandlerFunc {
	return requireSession(registry, bearerToken)
}

// RequireStreamSession is RequireSession for the SSE stream.
func RequireStreamSession(registry *service.Registry) gin.HandlerFunc {
	return requireSession(registry, streamToken)
}

func requireSession(registry *service.Registry, tokenFrom func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		client, err := registry.Resolve(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		c.Set(clientKey, client)
		c.Next()
	}
}

func RequireDispatcher() gin.HandlerFunc {
	return func(c *gin.Context) {
		if client := currentClient(c); client == nil || !client.Sessions.IsDispatcher() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "dispatcher access required"})
			return
		}
		c.Next()
	}
}

func RequireCitizen() gin.HandlerFunc {
	return func(c *gin.Context) {
		if client := currentClient(c); client == nil || client.Sessions.IsDispatcher() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "citizen access required"})
			return
		}
		c.Next()
	}
}

func currentClient(c *gin.Context) *service.Client {
	v, ok := c.Get(clientKey)
	if !ok {
		return nil
	}
	client, _ := v.(*service.Client)
	return client
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles each session independently.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		idle:     3 * time.Minute,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

// Cleanup removes visitors idle for longer than the idle window.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, v := range rl.visitors {
		if time.Since(v.lastSeen) > rl.idle {
			delete(rl.visitors, key)
		}
	}
}

// Run cleans up idle visitors every minute until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}

// Middleware must run after RequireSession.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if client := currentClient(c); client != nil {
			key = client.ID
		}
		if !rl.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
