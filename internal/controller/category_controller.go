package controller

import (
	"quiz_platform_backend/internal/service"
	"quiz_platform_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CategoryController struct {
	CategoryService *service.CategoryService
}

func NewCategoryController(categoryService *service.CategoryService) *CategoryController {
	return &CategoryController{CategoryService: categoryService}
}

// @Summary 分类列表
// @Tags 分类
// @Produce json
// @Success 200 {object} util.Response
// @Router /categories [get]
func (c *CategoryController) ListCategories(ctx *gin.Context) {
	categories, err := c.CategoryService.ListCategories()
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, categories)
}

// @Summary 子分类列表
// @Tags 分类
// @Produce json
// @Param id path string true "分类ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /categories/{id}/subcategories [get]
func (c *CategoryController) ListSubcategories(ctx *gin.Context) {
	subs, err := c.CategoryService.ListSubcategories(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, subs)
}

// @Summary 分类分组
// @Tags 分类
// @Produce json
// @Success 200 {object} util.Response
// @Router /category-groups [get]
func (c *CategoryController) ListGroups(ctx *gin.Context) {
	groups, err := c.CategoryService.ListGroups()
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, groups)
}
