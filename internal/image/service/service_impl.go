package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	authdomain "github.com/smallbiznis/pixelbin/internal/auth/domain"
	"github.com/smallbiznis/pixelbin/internal/config"
	"github.com/smallbiznis/pixelbin/internal/image/domain"
	"github.com/smallbiznis/pixelbin/internal/observability/metrics"
	"github.com/smallbiznis/pixelbin/internal/storage"
	"github.com/smallbiznis/pixelbin/internal/thumbnail"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var supportedContentTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/gif":  {},
	"image/webp": {},
}

type service struct {
	log       *zap.Logger
	repo      domain.Repository
	users     authdomain.Repository
	store     storage.Store
	generator *thumbnail.Generator
	metrics   *metrics.Metrics
	node      *snowflake.Node
	signedTTL time.Duration
	now       func() time.Time
}

func New(
	log *zap.Logger,
	cfg config.Config,
	repo domain.Repository,
	users authdomain.Repository,
	store storage.Store,
	generator *thumbnail.Generator,
	m *metrics.Metrics,
	node *snowflake.Node,
) domain.Service {
	return &service{
		log:       log.Named("image.service"),
		repo:      repo,
		users:     users,
		store:     store,
		generator: generator,
		metrics:   m,
		node:      node,
		signedTTL: cfg.SignedURLTTL,
		now:       time.Now,
	}
}

// Upload runs the ingestion pipeline inline: validate, persist metadata,
// bump owner aggregates, then write both blobs. Blob failures leave the row
// degraded rather than failing the request; the flags record exactly what
// landed.
func (s *service) Upload(ctx context.Context, req domain.UploadRequest) (*domain.UploadResult, error) {
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	if _, ok := supportedContentTypes[contentType]; !ok {
		return nil, domain.ErrUnsupportedContentType
	}

	labels := normalizeLabels(req.Labels)
	encodedLabels, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("encode labels: %w", err)
	}

	image := &domain.Image{
		ID:               s.node.Generate().Int64(),
		ExternalID:       uuid.NewString(),
		OwnerID:          req.OwnerID,
		Title:            strings.TrimSpace(req.Title),
		OriginalFileName: strings.TrimSpace(req.OriginalFileName),
		ContentType:      contentType,
		SizeBytes:        int64(len(req.Data)),
		Labels:           datatypes.JSON(encodedLabels),
	}
	if err := s.repo.Create(ctx, image); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMetadataPersistFailed, err)
	}
	s.metrics.RecordUpload(contentType)

	s.bumpOwnerAggregates(ctx, req.OwnerID, labels)

	log := s.log.With(zap.String("image_uid", image.ExternalID))
	if err := s.store.PutOriginal(ctx, image.ExternalID, contentType, req.Data); err != nil {
		log.Error("original blob write failed", zap.Error(err))
		s.metrics.RecordUploadBlobFailure(storage.VariantOriginal)
	} else if err := s.repo.UpdateFields(ctx, image.ID, map[string]any{"is_uploaded": true}); err != nil {
		log.Error("original flag update failed", zap.Error(err))
	}

	thumb, err := s.generator.Generate(req.Data)
	if err != nil {
		log.Warn("thumbnail generation failed", zap.Error(err))
		s.metrics.RecordUploadBlobFailure(storage.VariantThumbnail)
		return &domain.UploadResult{ImageUID: image.ExternalID}, nil
	}
	if err := s.store.PutThumbnail(ctx, image.ExternalID, thumb); err != nil {
		log.Error("thumbnail blob write failed", zap.Error(err))
		s.metrics.RecordUploadBlobFailure(storage.VariantThumbnail)
	} else if err := s.repo.UpdateFields(ctx, image.ID, map[string]any{"is_thumbnail_uploaded": true}); err != nil {
		log.Error("thumbnail flag update failed", zap.Error(err))
	}

	return &domain.UploadResult{ImageUID: image.ExternalID}, nil
}

// bumpOwnerAggregates maintains the denormalized owner columns: image count,
// label union and activity timestamp.
func (s *service) bumpOwnerAggregates(ctx context.Context, ownerID int64, labels []string) {
	fields := map[string]any{
		"image_count": gorm.Expr("image_count + ?", 1),
		"last_active": s.now().UTC(),
	}

	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		s.log.Warn("owner lookup failed", zap.Int64("owner_id", ownerID), zap.Error(err))
	} else if len(labels) > 0 {
		existing := []string{}
		if len(owner.Labels) > 0 {
			_ = json.Unmarshal(owner.Labels, &existing)
		}
		union := normalizeLabels(append(existing, labels...))
		if encoded, err := json.Marshal(union); err == nil {
			fields["labels"] = datatypes.JSON(encoded)
		}
	}

	if err := s.users.UpdateFields(ctx, ownerID, fields); err != nil {
		s.log.Warn("owner aggregate update failed", zap.Int64("owner_id", ownerID), zap.Error(err))
	}
}

// OriginalURL returns a presigned GET for a fully ingested original.
func (s *service) OriginalURL(ctx context.Context, externalID string) (string, error) {
	image, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		return "", err
	}
	if !image.IsUploaded {
		return "", domain.ErrNotYetAvailable
	}

	url, err := s.store.OriginalURL(ctx, image.ExternalID, s.signedTTL)
	if err != nil {
		return "", fmt.Errorf("presign original: %w", err)
	}
	s.metrics.RecordImageServed(storage.VariantOriginal)
	return url, nil
}

// Thumbnail returns the derived PNG bytes.
func (s *service) Thumbnail(ctx context.Context, externalID string) ([]byte, error) {
	image, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if !image.IsThumbnailUploaded {
		return nil, domain.ErrNotYetAvailable
	}

	data, err := s.store.GetThumbnail(ctx, image.ExternalID)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, domain.ErrNotYetAvailable
		}
		return nil, err
	}
	s.metrics.RecordImageServed(storage.VariantThumbnail)
	return data, nil
}

func (s *service) Info(ctx context.Context, externalID string) (*domain.Image, error) {
	return s.repo.FindByExternalID(ctx, externalID)
}

func (s *service) ListUserImages(ctx context.Context, q domain.ListQuery) ([]string, error) {
	return s.repo.ListExternalIDs(ctx, q)
}

func normalizeLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		label = strings.ToLower(strings.TrimSpace(label))
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}
