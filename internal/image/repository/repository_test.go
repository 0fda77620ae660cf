package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/pixelbin/internal/image/domain"
	"github.com/smallbiznis/pixelbin/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newTestRepo(t *testing.T) (domain.Repository, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&domain.Image{}))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return New(dbConn), node
}

func seedImage(t *testing.T, repo domain.Repository, node *snowflake.Node, ownerID int64, title string, labels []string, createdAt time.Time) *domain.Image {
	t.Helper()

	encoded, err := json.Marshal(labels)
	require.NoError(t, err)
	image := &domain.Image{
		ID:          node.Generate().Int64(),
		ExternalID:  uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		ContentType: "image/png",
		Labels:      datatypes.JSON(encoded),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), image))
	return image
}

func TestFindByExternalID(t *testing.T) {
	repo, node := newTestRepo(t)
	ctx := context.Background()

	image := seedImage(t, repo, node, 1, "sunset", []string{"nature"}, time.Now())

	found, err := repo.FindByExternalID(ctx, image.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, "sunset", found.Title)

	_, err = repo.FindByExternalID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
}

func TestSoftDeletedRowsAreInvisible(t *testing.T) {
	repo, node := newTestRepo(t)
	ctx := context.Background()

	image := seedImage(t, repo, node, 1, "gone", nil, time.Now())
	require.NoError(t, repo.UpdateFields(ctx, image.ID, map[string]any{"is_deleted": true}))

	_, err := repo.FindByExternalID(ctx, image.ExternalID)
	assert.ErrorIs(t, err, domain.ErrImageNotFound)

	ids, err := repo.ListExternalIDs(ctx, domain.ListQuery{
		OwnerID: 1, Page: 1, SortBy: "created_at", SortDir: "asc",
	})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestListPagination(t *testing.T) {
	repo, node := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < domain.PageSize+10; i++ {
		seedImage(t, repo, node, 1, fmt.Sprintf("img-%03d", i), nil, base.Add(time.Duration(i)*time.Second))
	}

	first, err := repo.ListExternalIDs(ctx, domain.ListQuery{
		OwnerID: 1, Page: 1, SortBy: "created_at", SortDir: "asc",
	})
	require.NoError(t, err)
	assert.Len(t, first, domain.PageSize)

	second, err := repo.ListExternalIDs(ctx, domain.ListQuery{
		OwnerID: 1, Page: 2, SortBy: "created_at", SortDir: "asc",
	})
	require.NoError(t, err)
	assert.Len(t, second, 10)

	seen := make(map[string]struct{})
	for _, id := range append(first, second...) {
		_, dup := seen[id]
		require.False(t, dup, "duplicate id across pages: %s", id)
		seen[id] = struct{}{}
	}
}

func TestListSortByTitle(t *testing.T) {
	repo, node := newTestRepo(t)
	ctx := context.Background()

	now := time.Now()
	seedImage(t, repo, node, 1, "cherry", nil, now)
	seedImage(t, repo, node, 1, "apple", nil, now)
	banana := seedImage(t, repo, node, 1, "banana", nil, now)

	asc, err := repo.ListExternalIDs(ctx, domain.ListQuery{
		OwnerID: 1, Page: 1, SortBy: "title", SortDir: "asc",
	})
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, banana.ExternalID, asc[1])

	desc, err := repo.ListExternalIDs(ctx, domain.ListQuery{
		OwnerID: 1, Page: 1, SortBy: "title", SortDir: "desc",
	})
	require.NoError(t, err)
	assert.NotEqual(t, asc[0], desc[0], "desc must reverse the order")
}

func TestListInvalidQuery(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	cases := []domain.ListQuery{
		{OwnerID: 1, Page: 0, SortBy: "title", SortDir: "asc"},
		{OwnerID: 1, Page: 1, SortBy: "size_bytes", SortDir: "asc"},
		{OwnerID: 1, Page: 1, SortBy: "title", SortDir: "sideways"},
		{OwnerID: 1, Page: 1, SortBy: "", SortDir: "asc"},
	}
	for _, q := range cases {
		_, err := repo.ListExternalIDs(ctx, q)
		assert.ErrorIs(t, err, domain.ErrInvalidQuery, "query %+v", q)
	}
}

func TestListLabelFilter(t *testing.T) {
	repo, node := newTestRepo(t)
	ctx := context.Background()

	now := time.Now()
	seedImage(t, repo, node, 1, "cat", []string{"pets", "cats"}, now)
	dog := seedImage(t, repo, node, 1, "dog", []string{"pets", "dogs"}, now)
	seedImage(t, repo, node, 1, "plain", nil, now)

	pets, err := repo.ListExternalIDs(ctx, domain.ListQuery{
		OwnerID: 1, Page: 1, SortBy: "title", SortDir: "asc", Labels: []string{"pets"},
	})
	require.NoError(t, err)
	assert.Len(t, pets, 2)

	dogs, err := repo.ListExternalIDs(ctx, domain.ListQuery{
		OwnerID: 1, Page: 1, SortBy: "title", SortDir: "asc", Labels: []string{"dogs", "birds"},
	})
	require.NoError(t, err)
	require.Len(t, dogs, 1)
	assert.Equal(t, dog.ExternalID, dogs[0])

	none, err := repo.ListExternalIDs(ctx, domain.ListQuery{
		OwnerID: 1, Page: 1, SortBy: "title", SortDir: "asc", Labels: []string{"birds"},
	})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListScopedToOwner(t *testing.T) {
	repo, node := newTestRepo(t)
	ctx := context.Background()

	now := time.Now()
	mine := seedImage(t, repo, node, 1, "mine", nil, now)
	seedImage(t, repo, node, 2, "theirs", nil, now)

	ids, err := repo.ListExternalIDs(ctx, domain.ListQuery{
		OwnerID: 1, Page: 1, SortBy: "created_at", SortDir: "asc",
	})
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, mine.ExternalID, ids[0])
}
