package repository

import (
	"quiz_platform_backend/internal/model"

	"gorm.io/gorm"
)

type CategoryRepository struct {
	DB *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

func (r *CategoryRepository) FindCategory(id string) (*model.Category, error) {
	var c model.Category
	if err := r.DB.Where("id = ?", id).First(&c).Error; err != nil {
		return nil, notFound(err, "category", id)
	}
	return &c, nil
}

func (r *CategoryRepository) FindSubcategory(id string) (*model.Subcategory, error) {
	var s model.Subcategory
	if err := r.DB.Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err, "subcategory", id)
	}
	return &s, nil
}

func (r *CategoryRepository) ListCategories() ([]model.Category, error) {
	var cats []model.Category
	err := r.DB.Order("sort_order ASC").Order("name ASC").Find(&cats).Error
	return cats, err
}

func (r *CategoryRepository) ListSubcategories(categoryID string) ([]model.Subcategory, error) {
	var subs []model.Subcategory
	err := r.DB.Where("category_id = ?", categoryID).Order("name ASC").Find(&subs).Error
	return subs, err
}

func (r *CategoryRepository) ListGroups() ([]model.CategoryGroup, error) {
	var groups []model.CategoryGroup
	err := r.DB.
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC").Order("name ASC")
		}).
		Order("sort_order ASC").Order("name ASC").
		Find(&groups).Error
	return groups, err
}

func (r *CategoryRepository) CreateSubcategory(sub *model.Subcategory) error {
	return r.DB.Create(sub).Error
}
