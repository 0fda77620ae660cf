package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/pixelbin/internal/auth/domain"
	"github.com/smallbiznis/pixelbin/pkg/db"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func New(conn *gorm.DB) domain.Repository {
	return &repository{db: conn}
}

func (r *repository) EmailExists(ctx context.Context, email string, provider domain.Provider) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("email = ? AND auth_provider = ?", email, provider).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) UsernameExists(ctx context.Context, username string, provider domain.Provider) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("username = ? AND auth_provider = ?", username, provider).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the identity. The unique indexes are the final arbiter for
// duplicate races; a constraint violation is converted back to the matching
// domain error.
func (r *repository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err == nil {
		return nil
	}
	if !db.IsDuplicateKeyErr(err) {
		return err
	}

	taken, checkErr := r.EmailExists(ctx, user.Email, user.AuthProvider)
	if checkErr == nil && taken {
		return domain.ErrDuplicateEmail
	}
	return domain.ErrDuplicateUsername
}

func (r *repository) FindByEmail(ctx context.Context, email string, provider domain.Provider) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Where("email = ? AND auth_provider = ?", email, provider).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "external_id = ?", externalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
