package service

import (
	"testing"

	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/repository"
	"quiz_platform_backend/internal/testutil"
	"quiz_platform_backend/internal/util"
	"quiz_platform_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryCatalog(t *testing.T) {
	db := testutil.NewDB(t)
	// seeding twice must not duplicate anything
	require.NoError(t, database.SeedCategories(db))

	repo := repository.NewCategoryRepository(db)
	svc := NewCategoryService(repo)

	groups, err := svc.ListGroups()
	require.NoError(t, err)
	require.Len(t, groups, 6)
	assert.Equal(t, "General & Knowledge", groups[0].Name)
	assert.Equal(t, "Sports & Entertainment", groups[5].Name)
	require.NotEmpty(t, groups[0].Categories)
	assert.Equal(t, "General Knowledge", groups[0].Categories[0].Name)

	cats, err := svc.ListCategories()
	require.NoError(t, err)
	total := 0
	for _, g := range groups {
		total += len(g.Categories)
	}
	assert.Len(t, cats, total)

	physics := testutil.CategoryBySlug(t, db, "physics")
	require.NoError(t, repo.CreateSubcategory(&model.Subcategory{CategoryID: physics.ID, Name: "Optics", Slug: "optics"}))
	require.NoError(t, repo.CreateSubcategory(&model.Subcategory{CategoryID: physics.ID, Name: "Mechanics", Slug: "mechanics"}))

	subs, err := svc.ListSubcategories(physics.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "Mechanics", subs[0].Name)

	_, err = svc.ListSubcategories("missing")
	assert.ErrorIs(t, err, util.ErrNotFound)
}
