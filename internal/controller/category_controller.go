package controller

import (
	"testhub_backend/internal/service"
	"testhub_backend/internal/util"

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
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Category}
// @Router /categories [get]
func (c *CategoryController) ListCategories(ctx *gin.Context) {
	categories, err := c.CategoryService.ListCategories(currentActor(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, categories)
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
	// Slug 留空时由名称生成
	Slug string `json:"slug" binding:"omitempty,max=100,slug"`
}

// @Summary 创建分类
// @Tags 分类
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreateCategoryRequest true "分类信息"
// @Success 201 {object} util.Response{data=model.Category}
// @Failure 409 {object} util.Response "名称或 slug 已存在"
// @Router /manage/categories [post]
func (c *CategoryController) CreateCategory(ctx *gin.Context) {
	var req CreateCategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	category, err := c.CategoryService.CreateCategory(currentActor(ctx), req.Name, req.Slug)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, category)
}

// @Summary 删除分类
// @Description 仅超级管理员，引用该分类的试卷保留并解除关联
// @Tags 分类
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "分类ID"
// @Success 200 {object} util.Response
// @Router /manage/categories/{id} [delete]
func (c *CategoryController) DeleteCategory(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.CategoryService.DeleteCategory(currentActor(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "Category deleted.", nil)
}
