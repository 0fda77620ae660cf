package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/pixelbin/internal/auth/domain"
)

// Issuer mints and verifies HS256 session tokens.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Claims is the session token payload. Subject carries the identity's
// external id.
type Claims struct {
	jwt.RegisteredClaims
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssueAccess mints a short-lived access token for the subject.
func (i *Issuer) IssueAccess(subject string) (string, error) {
	return i.issue(subject, i.accessTTL)
}

// IssueRefresh mints a long-lived refresh token for the subject.
func (i *Issuer) IssueRefresh(subject string) (string, error) {
	return i.issue(subject, i.refreshTTL)
}

func (i *Issuer) issue(subject string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify parses a token and returns its subject. Expired tokens are reported
// distinctly so callers can tell a stale session from a forged one.
func (i *Issuer) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(tokenString), &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.ErrTokenExpired
		}
		return "", domain.ErrTokenMalformed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", domain.ErrTokenMalformed
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", domain.ErrClaimsMissing
	}
	return claims.Subject, nil
}
