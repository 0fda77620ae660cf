package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/pixelbin/internal/auth/domain"
)

func newTestIssuer() *Issuer {
	return NewIssuer("test-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestIssueAndVerify(t *testing.T) {
	issuer := newTestIssuer()

	access, err := issuer.IssueAccess("user-123")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	subject, err := issuer.Verify(access)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != "user-123" {
		t.Fatalf("expected subject user-123, got %s", subject)
	}
}

func TestVerifyExpired(t *testing.T) {
	issuer := newTestIssuer()
	tokenString, err := issuer.IssueAccess("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	issuer.now = func() time.Time { return time.Now().Add(16 * time.Minute) }
	if _, err := issuer.Verify(tokenString); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	issuer := newTestIssuer()
	for _, tokenString := range []string{"", "garbage", "a.b.c"} {
		if _, err := issuer.Verify(tokenString); !errors.Is(err, domain.ErrTokenMalformed) {
			t.Fatalf("expected ErrTokenMalformed for %q, got %v", tokenString, err)
		}
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	other := NewIssuer("another-secret", 15*time.Minute, 7*24*time.Hour)
	tokenString, err := other.IssueAccess("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	issuer := newTestIssuer()
	if _, err := issuer.Verify(tokenString); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestVerifyWrongAlgorithm(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "user-123",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	issuer := newTestIssuer()
	if _, err := issuer.Verify(unsigned); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestVerifyMissingSubject(t *testing.T) {
	issuer := newTestIssuer()
	tokenString, err := issuer.IssueAccess("")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Verify(tokenString); !errors.Is(err, domain.ErrClaimsMissing) {
		t.Fatalf("expected ErrClaimsMissing, got %v", err)
	}
}
