package server

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/pixelbin/internal/auth/domain"
)

const contextUserKey = "current_user"

// parseBearerToken enforces the inbound credential format: exactly two
// space-separated tokens with the literal scheme "Bearer".
func parseBearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", false
	}
	if parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// AuthRequired resolves the bearer token into the current user.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := parseBearerToken(c.GetHeader("Authorization"))
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.authsvc.Verify(c.Request.Context(), tokenString)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) (*authdomain.User, bool) {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*authdomain.User)
	return user, ok
}

// attemptLimiter is a small in-process sliding window used on the
// credential endpoints.
type attemptLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	limit    int
	attempts map[string][]time.Time
}

func newAttemptLimiter(limit int, window time.Duration) *attemptLimiter {
	return &attemptLimiter{
		window:   window,
		limit:    limit,
		attempts: make(map[string][]time.Time),
	}
}

func (l *attemptLimiter) Allow(key string) bool {
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.attempts[key][:0]
	for _, at := range l.attempts[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	if len(kept) >= l.limit {
		l.attempts[key] = kept
		return false
	}
	l.attempts[key] = append(kept, now)
	return true
}

func (s *Server) loginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.loginLimiter.Allow(c.ClientIP()) {
			if s.obsMetrics != nil {
				s.obsMetrics.RecordRateLimitDecision("auth", "denied")
			}
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
