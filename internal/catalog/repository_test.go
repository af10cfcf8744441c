package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Repository {
	// In-memory database, seeded by the migrations
	repo, err := NewRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.RunMigrations("./migrations"))
	return repo
}

func TestGetAllProducts_SeededCatalog(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.GetAllProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 5)

	first := products[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "Platinum Trophy Run", first.Name)
	assert.Equal(t, int64(3), first.PlatformID)
	assert.Equal(t, "PlayStation", first.Platform)
	assert.Equal(t, "Trophy Hunting", first.Category)
}

func TestGetProduct(t *testing.T) {
	repo := setupTestDB(t)

	p, err := repo.GetProduct(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Ranked Climb to Diamond", p.Name)
	assert.InDelta(t, 59.99, p.Price, 0.001)
	assert.Equal(t, "PC", p.Platform)
}

func TestGetProduct_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetProduct(context.Background(), -1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestGetPlatforms(t *testing.T) {
	repo := setupTestDB(t)

	platforms, err := repo.GetPlatforms(context.Background())
	require.NoError(t, err)
	require.Len(t, platforms, 4)
	assert.Equal(t, "PC", platforms[0].Name)
}

func TestGetCategories(t *testing.T) {
	repo := setupTestDB(t)

	categories, err := repo.GetCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 4)
	assert.Equal(t, "Trophy Hunting", categories[0].Name)
}

func TestGetAllProducts_CancelledContext(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetAllProducts(ctx)
	assert.Error(t, err)
}
