package service

import (
	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/repository"
)

// CategoryService 只读分类目录
type CategoryService struct {
	CategoryRepo *repository.CategoryRepository
}

func NewCategoryService(categoryRepo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{CategoryRepo: categoryRepo}
}

func (s *CategoryService) ListCategories() ([]model.Category, error) {
	return s.CategoryRepo.ListCategories()
}

func (s *CategoryService) ListSubcategories(categoryID string) ([]model.Subcategory, error) {
	if _, err := s.CategoryRepo.FindCategory(categoryID); err != nil {
		return nil, err
	}
	return s.CategoryRepo.ListSubcategories(categoryID)
}

func (s *CategoryService) ListGroups() ([]model.CategoryGroup, error) {
	return s.CategoryRepo.ListGroups()
}
