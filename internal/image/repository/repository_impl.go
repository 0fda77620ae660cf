package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/pixelbin/internal/image/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func New(conn *gorm.DB) domain.Repository {
	return &repository{db: conn}
}

func (r *repository) Create(ctx context.Context, image *domain.Image) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *repository) FindByExternalID(ctx context.Context, externalID string) (*domain.Image, error) {
	var image domain.Image
	err := r.db.WithContext(ctx).
		Where("external_id = ? AND is_deleted = ?", externalID, false).
		First(&image).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrImageNotFound
		}
		return nil, err
	}
	return &image, nil
}

func (r *repository) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&domain.Image{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}

var sortColumns = map[string]string{
	"title":      "title",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// ListExternalIDs returns one fixed-size page of an owner's image ids.
// Unrecognized sort keys, directions, or pages below 1 are caller errors.
func (r *repository) ListExternalIDs(ctx context.Context, q domain.ListQuery) ([]string, error) {
	if q.Page < 1 {
		return nil, domain.ErrInvalidQuery
	}
	column, ok := sortColumns[strings.ToLower(strings.TrimSpace(q.SortBy))]
	if !ok {
		return nil, domain.ErrInvalidQuery
	}
	direction := strings.ToLower(strings.TrimSpace(q.SortDir))
	if direction != "asc" && direction != "desc" {
		return nil, domain.ErrInvalidQuery
	}

	query := r.db.WithContext(ctx).
		Model(&domain.Image{}).
		Where("owner_id = ? AND is_deleted = ?", q.OwnerID, false)

	if len(q.Labels) > 0 {
		var err error
		query, err = r.applyLabelFilter(query, q.Labels)
		if err != nil {
			return nil, err
		}
	}

	var ids []string
	err := query.
		Order(fmt.Sprintf("%s %s", column, direction)).
		Order("id asc").
		Limit(domain.PageSize).
		Offset((q.Page - 1) * domain.PageSize).
		Pluck("external_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// applyLabelFilter keeps rows whose label set intersects the filter set.
// JSON containment has no portable SQL spelling, so each dialect gets its
// own predicate.
func (r *repository) applyLabelFilter(query *gorm.DB, labels []string) (*gorm.DB, error) {
	switch r.db.Dialector.Name() {
	case "postgres":
		return query.Where(
			"EXISTS (SELECT 1 FROM jsonb_array_elements_text(labels::jsonb) AS l(label) WHERE l.label IN ?)",
			labels,
		), nil
	case "mysql":
		encoded, err := json.Marshal(labels)
		if err != nil {
			return nil, err
		}
		return query.Where("JSON_OVERLAPS(labels, ?)", string(encoded)), nil
	case "sqlite":
		return query.Where(
			"EXISTS (SELECT 1 FROM json_each(images.labels) WHERE json_each.value IN ?)",
			labels,
		), nil
	default:
		return nil, fmt.Errorf("label filter unsupported on dialect %q", r.db.Dialector.Name())
	}
}
