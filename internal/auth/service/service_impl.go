package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/pixelbin/internal/auth/domain"
	"github.com/smallbiznis/pixelbin/internal/auth/oauth"
	"github.com/smallbiznis/pixelbin/internal/auth/password"
	"github.com/smallbiznis/pixelbin/internal/auth/token"
	"go.uber.org/zap"
)

type service struct {
	log      *zap.Logger
	repo     domain.Repository
	issuer   *token.Issuer
	resolver oauth.Resolver
	node     *snowflake.Node
	now      func() time.Time
}

func New(log *zap.Logger, repo domain.Repository, issuer *token.Issuer, resolver oauth.Resolver, node *snowflake.Node) domain.Service {
	return &service{
		log:      log.Named("auth.service"),
		repo:     repo,
		issuer:   issuer,
		resolver: resolver,
		node:     node,
		now:      time.Now,
	}
}

func (s *service) Signup(ctx context.Context, req domain.SignupRequest) (*domain.SignupResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	taken, err := s.repo.EmailExists(ctx, email, domain.ProviderEmail)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, domain.ErrDuplicateEmail
	}

	taken, err = s.repo.UsernameExists(ctx, username, domain.ProviderEmail)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, domain.ErrDuplicateUsername
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           s.node.Generate().Int64(),
		ExternalID:   uuid.NewString(),
		Email:        email,
		Username:     username,
		AuthProvider: domain.ProviderEmail,
		PasswordHash: &hash,
		Labels:       []byte("[]"),
		LastActive:   now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("identity created",
		zap.String("user_uid", user.ExternalID),
		zap.String("auth_provider", string(user.AuthProvider)),
	)
	return &domain.SignupResult{UserUID: user.ExternalID}, nil
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*domain.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.FindByEmail(ctx, email, domain.ProviderEmail)
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == nil || !password.Verify(req.Password, *user.PasswordHash) {
		return nil, domain.ErrIncorrectPassword
	}

	s.touchLastActive(ctx, user.ID)
	return s.issuePair(user.ExternalID)
}

func (s *service) GoogleLogin(ctx context.Context, req domain.GoogleLoginRequest) (*domain.TokenPair, error) {
	identity, err := s.resolver.Resolve(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(identity.Email))
	user, err := s.repo.FindByEmail(ctx, email, domain.ProviderGoogle)
	switch {
	case err == nil:
		fields := map[string]any{"last_active": s.now().UTC()}
		if identity.Picture != "" && (user.AvatarURL == nil || *user.AvatarURL != identity.Picture) {
			fields["avatar_url"] = identity.Picture
		}
		if err := s.repo.UpdateFields(ctx, user.ID, fields); err != nil {
			s.log.Warn("federated identity refresh failed", zap.Error(err))
		}
	case err == domain.ErrUserNotFound:
		user, err = s.provisionGoogleUser(ctx, email, identity)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return s.issuePair(user.ExternalID)
}

// provisionGoogleUser creates a first-login federated identity. The username
// defaults to the email local part; collisions get a short uuid suffix.
func (s *service) provisionGoogleUser(ctx context.Context, email string, identity *oauth.Identity) (*domain.User, error) {
	username := slug.Make(localPart(email))
	taken, err := s.repo.UsernameExists(ctx, username, domain.ProviderGoogle)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		username = username + "-" + uuid.NewString()[:8]
	}

	user := &domain.User{
		ID:           s.node.Generate().Int64(),
		ExternalID:   identity.Subject,
		Email:        email,
		Username:     username,
		AuthProvider: domain.ProviderGoogle,
		Labels:       []byte("[]"),
		LastActive:   s.now().UTC(),
	}
	if identity.Picture != "" {
		picture := identity.Picture
		user.AvatarURL = &picture
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("federated identity created",
		zap.String("user_uid", user.ExternalID),
		zap.String("auth_provider", string(user.AuthProvider)),
	)
	return user, nil
}

func (s *service) Verify(ctx context.Context, tokenString string) (*domain.User, error) {
	subject, err := s.issuer.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByExternalID(ctx, subject)
}

// Refresh re-mints only the access token. The refresh token is returned
// unchanged so a client can keep one long-lived credential.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	subject, err := s.issuer.Verify(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByExternalID(ctx, subject)
	if err != nil {
		return nil, err
	}

	access, err := s.issuer.IssueAccess(user.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

var infoFields = map[string]func(*domain.User) any{
	"user_uid":      func(u *domain.User) any { return u.ExternalID },
	"email":         func(u *domain.User) any { return u.Email },
	"username":      func(u *domain.User) any { return u.Username },
	"auth_provider": func(u *domain.User) any { return string(u.AuthProvider) },
	"avatar": func(u *domain.User) any {
		if u.AvatarURL == nil {
			return nil
		}
		return *u.AvatarURL
	},
	"created_at":  func(u *domain.User) any { return u.CreatedAt },
	"last_active": func(u *domain.User) any { return u.LastActive },
	"image_count": func(u *domain.User) any { return u.ImageCount },
	"labels": func(u *domain.User) any {
		labels := []string{}
		if len(u.Labels) > 0 {
			_ = json.Unmarshal(u.Labels, &labels)
		}
		return labels
	},
	"is_premium": func(u *domain.User) any { return u.IsPremium },
}

// UserInfo returns the requested identity fields. An empty key list selects
// every allowed field; password_hash is not an allowed field.
func (s *service) UserInfo(_ context.Context, user *domain.User, keys []string) (map[string]any, error) {
	if len(keys) == 0 {
		keys = make([]string, 0, len(infoFields))
		for key := range infoFields {
			keys = append(keys, key)
		}
	}

	info := make(map[string]any, len(keys))
	for _, raw := range keys {
		key := strings.ToLower(strings.TrimSpace(raw))
		extract, ok := infoFields[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownInfoKey, key)
		}
		info[key] = extract(user)
	}
	return info, nil
}

func (s *service) issuePair(subject string) (*domain.TokenPair, error) {
	access, err := s.issuer.IssueAccess(subject)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.issuer.IssueRefresh(subject)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

func (s *service) touchLastActive(ctx context.Context, id int64) {
	if err := s.repo.UpdateFields(ctx, id, map[string]any{"last_active": s.now().UTC()}); err != nil {
		s.log.Warn("last_active update failed", zap.Error(err))
	}
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
