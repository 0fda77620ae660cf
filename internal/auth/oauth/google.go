package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/pixelbin/internal/auth/domain"
	"github.com/smallbiznis/pixelbin/internal/config"
	obstracing "github.com/smallbiznis/pixelbin/internal/observability/tracing"
)

const exchangeTimeout = 10 * time.Second

// Identity is the verified subject extracted from a provider ID token.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// Resolver exchanges an authorization code for a verified identity.
type Resolver interface {
	Resolve(ctx context.Context, code string) (*Identity, error)
}

type googleResolver struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
	now          func() time.Time
}

// NewGoogleResolver builds the Google code-exchange resolver. The sign-in
// widget performs the browser leg, so the exchange uses the fixed
// "postmessage" redirect.
func NewGoogleResolver(cfg config.Config) Resolver {
	return &googleResolver{
		clientID:     cfg.GoogleClientID,
		clientSecret: cfg.GoogleClientSecret,
		tokenURL:     cfg.GoogleTokenURL,
		httpClient:   obstracing.WrapHTTPClient(&http.Client{Timeout: exchangeTimeout}),
		now:          time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	IDToken     string `json:"id_token"`
}

func (r *googleResolver) Resolve(ctx context.Context, code string) (*Identity, error) {
	if strings.TrimSpace(code) == "" {
		return nil, domain.ErrProviderExchangeFailed
	}

	token, err := r.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(token.IDToken) == "" {
		return nil, domain.ErrMissingIdentityAssertion
	}

	return r.parseAssertion(token.IDToken)
}

func (r *googleResolver) exchangeCode(ctx context.Context, code string) (*tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", "postmessage")
	form.Set("client_id", r.clientID)
	form.Set("client_secret", r.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderExchangeFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderExchangeFailed, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, domain.ErrProviderExchangeFailed
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, domain.ErrProviderExchangeFailed
	}
	return &token, nil
}

// parseAssertion validates the ID token's claims. The token arrives over the
// TLS channel to the provider's own token endpoint, so claim checks rather
// than signature verification establish its provenance.
func (r *googleResolver) parseAssertion(idToken string) (*Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, domain.ErrInvalidAssertion
	}

	issuer, err := claims.GetIssuer()
	if err != nil {
		return nil, domain.ErrInvalidAssertion
	}
	switch issuer {
	case "accounts.google.com", "https://accounts.google.com":
	default:
		return nil, domain.ErrInvalidAssertion
	}

	audience, err := claims.GetAudience()
	if err != nil || !containsAudience(audience, r.clientID) {
		return nil, domain.ErrInvalidAssertion
	}

	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil || !expiry.After(r.now()) {
		return nil, domain.ErrInvalidAssertion
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return nil, domain.ErrInvalidAssertion
	}
	email := stringClaim(claims, "email")
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(email) == "" {
		return nil, domain.ErrInvalidAssertion
	}

	return &Identity{
		Subject: subject,
		Email:   email,
		Name:    stringClaim(claims, "name"),
		Picture: stringClaim(claims, "picture"),
	}, nil
}

func containsAudience(audience jwt.ClaimStrings, clientID string) bool {
	for _, aud := range audience {
		if aud == clientID {
			return true
		}
	}
	return false
}

func stringClaim(claims jwt.MapClaims, key string) string {
	value, _ := claims[key].(string)
	return value
}
