package domain

import "context"

// SignupRequest registers a new email identity.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// SignupResult carries the new identity's external id. Signup never issues
// tokens; callers log in separately.
type SignupResult struct {
	UserUID string `json:"user_uid"`
}

// LoginRequest authenticates an email identity.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// GoogleLoginRequest exchanges a provider authorization code.
type GoogleLoginRequest struct {
	Code string `json:"code" binding:"required"`
}

// TokenPair is the issued session material.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Service exposes the credential and session lifecycle.
type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*SignupResult, error)
	Login(ctx context.Context, req LoginRequest) (*TokenPair, error)
	GoogleLogin(ctx context.Context, req GoogleLoginRequest) (*TokenPair, error)
	Verify(ctx context.Context, token string) (*User, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	UserInfo(ctx context.Context, user *User, keys []string) (map[string]any, error)
}
