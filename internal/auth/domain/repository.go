package domain

import "context"

// Repository persists identities.
type Repository interface {
	EmailExists(ctx context.Context, email string, provider Provider) (bool, error)
	UsernameExists(ctx context.Context, username string, provider Provider) (bool, error)
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string, provider Provider) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]any) error
}
