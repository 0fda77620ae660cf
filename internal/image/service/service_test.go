package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/pixelbin/internal/auth/domain"
	authrepository "github.com/smallbiznis/pixelbin/internal/auth/repository"
	"github.com/smallbiznis/pixelbin/internal/config"
	"github.com/smallbiznis/pixelbin/internal/image/domain"
	"github.com/smallbiznis/pixelbin/internal/image/repository"
	"github.com/smallbiznis/pixelbin/internal/storage"
	"github.com/smallbiznis/pixelbin/internal/thumbnail"
	"github.com/smallbiznis/pixelbin/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	mu            sync.Mutex
	originals     map[string][]byte
	thumbnails    map[string][]byte
	failOriginal  bool
	failThumbnail bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		originals:  make(map[string][]byte),
		thumbnails: make(map[string][]byte),
	}
}

func (f *fakeStore) PutOriginal(_ context.Context, imageID string, _ string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOriginal {
		return errors.New("injected original failure")
	}
	f.originals[imageID] = data
	return nil
}

func (f *fakeStore) PutThumbnail(_ context.Context, imageID string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failThumbnail {
		return errors.New("injected thumbnail failure")
	}
	f.thumbnails[imageID] = data
	return nil
}

func (f *fakeStore) GetThumbnail(_ context.Context, imageID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.thumbnails[imageID]
	if !ok {
		return nil, storage.ErrBlobNotFound
	}
	return data, nil
}

func (f *fakeStore) OriginalURL(_ context.Context, imageID string, _ time.Duration) (string, error) {
	return "https://blobs.test/original/" + imageID, nil
}

type fixture struct {
	svc   domain.Service
	store *fakeStore
	users authdomain.Repository
	owner *authdomain.User
}

func newTestFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&authdomain.User{}, &domain.Image{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	users := authrepository.New(dbConn)
	owner := &authdomain.User{
		ID:           node.Generate().Int64(),
		ExternalID:   "owner-uid",
		Email:        "owner@example.com",
		Username:     "owner",
		AuthProvider: authdomain.ProviderEmail,
		Labels:       []byte("[]"),
	}
	require.NoError(t, users.Create(context.Background(), owner))

	store := newFakeStore()
	cfg := config.Config{SignedURLTTL: 15 * time.Minute}
	svc := New(zap.NewNop(), cfg, repository.New(dbConn), users, store, thumbnail.New(thumbnail.ShapeSquare, 128), nil, node)

	return &fixture{svc: svc, store: store, users: users, owner: owner}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadHappyPath(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	result, err := f.svc.Upload(ctx, domain.UploadRequest{
		OwnerID:          f.owner.ID,
		Title:            "sunset",
		OriginalFileName: "sunset.png",
		ContentType:      "image/png",
		Labels:           []string{"Nature", "nature", " sky "},
		Data:             pngBytes(t),
	})
	require.NoError(t, err)

	info, err := f.svc.Info(ctx, result.ImageUID)
	require.NoError(t, err)
	assert.True(t, info.IsUploaded)
	assert.True(t, info.IsThumbnailUploaded)
	assert.Equal(t, "sunset.png", info.OriginalFileName)

	var labels []string
	require.NoError(t, json.Unmarshal(info.Labels, &labels))
	assert.Equal(t, []string{"nature", "sky"}, labels)

	assert.Contains(t, f.store.originals, result.ImageUID)
	assert.Contains(t, f.store.thumbnails, result.ImageUID)
}

func TestUploadUnsupportedContentType(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, domain.UploadRequest{
		OwnerID:     f.owner.ID,
		Title:       "doc",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-"),
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedContentType)

	ids, err := f.svc.ListUserImages(ctx, domain.ListQuery{
		OwnerID: f.owner.ID, Page: 1, SortBy: "created_at", SortDir: "desc",
	})
	require.NoError(t, err)
	assert.Empty(t, ids, "rejected upload must not leave a row behind")
	assert.Empty(t, f.store.originals)
}

func TestUploadOriginalBlobFailureLeavesRowDegraded(t *testing.T) {
	f := newTestFixture(t)
	f.store.failOriginal = true
	ctx := context.Background()

	result, err := f.svc.Upload(ctx, domain.UploadRequest{
		OwnerID:     f.owner.ID,
		Title:       "degraded",
		ContentType: "image/png",
		Data:        pngBytes(t),
	})
	require.NoError(t, err, "upload must absorb blob failures")

	info, err := f.svc.Info(ctx, result.ImageUID)
	require.NoError(t, err)
	assert.False(t, info.IsUploaded)

	_, err = f.svc.OriginalURL(ctx, result.ImageUID)
	assert.ErrorIs(t, err, domain.ErrNotYetAvailable)
}

func TestUploadThumbnailFailureLeavesOriginalServable(t *testing.T) {
	f := newTestFixture(t)
	f.store.failThumbnail = true
	ctx := context.Background()

	result, err := f.svc.Upload(ctx, domain.UploadRequest{
		OwnerID:     f.owner.ID,
		Title:       "half",
		ContentType: "image/png",
		Data:        pngBytes(t),
	})
	require.NoError(t, err)

	url, err := f.svc.OriginalURL(ctx, result.ImageUID)
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	_, err = f.svc.Thumbnail(ctx, result.ImageUID)
	assert.ErrorIs(t, err, domain.ErrNotYetAvailable)
}

func TestUploadUndecodableBytesDegradeThumbnailOnly(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	// Declared type is allowed but the payload is not a decodable image.
	result, err := f.svc.Upload(ctx, domain.UploadRequest{
		OwnerID:     f.owner.ID,
		Title:       "liar",
		ContentType: "image/png",
		Data:        []byte("not really a png"),
	})
	require.NoError(t, err)

	info, err := f.svc.Info(ctx, result.ImageUID)
	require.NoError(t, err)
	assert.True(t, info.IsUploaded)
	assert.False(t, info.IsThumbnailUploaded)
}

func TestUploadBumpsOwnerAggregates(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Upload(ctx, domain.UploadRequest{
			OwnerID:     f.owner.ID,
			Title:       fmt.Sprintf("img-%d", i),
			ContentType: "image/png",
			Labels:      []string{fmt.Sprintf("label-%d", i)},
			Data:        pngBytes(t),
		})
		require.NoError(t, err)
	}

	owner, err := f.users.FindByID(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), owner.ImageCount)

	var labels []string
	require.NoError(t, json.Unmarshal(owner.Labels, &labels))
	assert.Len(t, labels, 2)
	assert.False(t, owner.LastActive.IsZero())
}

func TestReadPathsMissingImage(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	_, err := f.svc.OriginalURL(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
	_, err = f.svc.Thumbnail(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
	_, err = f.svc.Info(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
}

func TestThumbnailRoundTrip(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	result, err := f.svc.Upload(ctx, domain.UploadRequest{
		OwnerID:     f.owner.ID,
		Title:       "thumb",
		ContentType: "image/png",
		Data:        pngBytes(t),
	})
	require.NoError(t, err)

	data, err := f.svc.Thumbnail(ctx, result.ImageUID)
	require.NoError(t, err)
	thumb, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err, "thumbnail must be png")
	b := thumb.Bounds()
	assert.Equal(t, 128, b.Dx())
	assert.Equal(t, 128, b.Dy())
}

func TestListUserImages(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	var uploaded []string
	for i := 0; i < 3; i++ {
		result, err := f.svc.Upload(ctx, domain.UploadRequest{
			OwnerID:     f.owner.ID,
			Title:       fmt.Sprintf("img-%d", i),
			ContentType: "image/png",
			Data:        pngBytes(t),
		})
		require.NoError(t, err)
		uploaded = append(uploaded, result.ImageUID)
	}

	ids, err := f.svc.ListUserImages(ctx, domain.ListQuery{
		OwnerID: f.owner.ID, Page: 1, SortBy: "title", SortDir: "asc",
	})
	require.NoError(t, err)
	assert.Len(t, ids, len(uploaded))

	_, err = f.svc.ListUserImages(ctx, domain.ListQuery{
		OwnerID: f.owner.ID, Page: 1, SortBy: "nope", SortDir: "asc",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}
