package controller

import (
	"errors"
	"fmt"
	"net/http"
	"testhub_backend/internal/model"
	"testhub_backend/internal/repository"
	"testhub_backend/internal/service"
	"testhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TestController struct {
	TestService *service.TestService
}

func NewTestController(testService *service.TestService) *TestController {
	return &TestController{TestService: testService}
}

// @Summary 首页
// @Description 已发布试卷数量、分类以及最新试卷
// @Tags 试卷
// @Produce json
// @Success 200 {object} util.Response{data=service.HomeSummary}
// @Router /home [get]
func (c *TestController) Home(ctx *gin.Context) {
	summary, err := c.TestService.Home()
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// @Summary 试卷列表
// @Description 教职人员可见全部试卷，普通用户只见已发布
// @Tags 试卷
// @Produce json
// @Security ApiKeyAuth
// @Param category query string false "分类 slug"
// @Param difficulty query string false "难度" Enums(beginner, intermediate, expert)
// @Param search query string false "标题关键字"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /tests [get]
func (c *TestController) ListTests(ctx *gin.Context) {
	page, limit := pagination(ctx)
	filter := repository.TestFilter{
		CategorySlug: ctx.Query("category"),
		Difficulty:   ctx.Query("difficulty"),
		Search:       ctx.Query("search"),
	}

	tests, total, err := c.TestService.ListTests(currentActor(ctx), filter, page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  tests,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// @Summary 试卷详情
// @Tags 试卷
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=service.TestDetail}
// @Failure 404 {object} util.Response
// @Router /tests/{id} [get]
func (c *TestController) GetTest(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	detail, err := c.TestService.GetTest(currentActor(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// @Summary 开始答题
// @Description 按顺序返回题目与选项，不包含正确答案
// @Tags 试卷
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=service.TakeView}
// @Router /tests/{id}/take [get]
func (c *TestController) TakeTest(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	view, err := c.TestService.TakeTest(currentActor(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

type CreateTestRequest struct {
	Title             string `form:"title" binding:"required,max=255"`
	Description       string `form:"description"`
	Difficulty        string `form:"difficulty" binding:"omitempty,oneof=beginner intermediate expert"`
	DurationInMinutes int    `form:"duration_in_minutes" binding:"required,gt=0"`
	CategoryID        *uint  `form:"category_id"`
}

// @Summary 创建试卷
// @Description multipart 表单，可选封面图会被处理为 300x200 PNG
// @Tags 试卷管理
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param title formData string true "标题"
// @Param description formData string false "描述"
// @Param difficulty formData string false "难度"
// @Param duration_in_minutes formData int true "时长（分钟）"
// @Param category_id formData int false "分类ID"
// @Param image formData file false "封面图"
// @Success 201 {object} util.Response{data=model.Test}
// @Router /manage/tests [post]
func (c *TestController) CreateTest(ctx *gin.Context) {
	var req CreateTestRequest
	if err := ctx.ShouldBind(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	in := service.CreateTestInput{
		Title:             req.Title,
		Description:       req.Description,
		Difficulty:        model.Difficulty(req.Difficulty),
		DurationInMinutes: req.DurationInMinutes,
		CategoryID:        req.CategoryID,
	}

	fileHeader, err := ctx.FormFile(util.FormImageField)
	switch {
	case err == nil:
		file, err := fileHeader.Open()
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		defer file.Close()
		in.Image = file
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		util.BadRequest(ctx, err.Error())
		return
	}

	test, err := c.TestService.CreateTest(ctx.Request.Context(), currentActor(ctx), in)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, util.Response{
		Code:    http.StatusCreated,
		Message: fmt.Sprintf("Test %q created successfully! Now add some questions.", test.Title),
		Data:    test,
	})
}

// @Summary 试卷管理详情
// @Description 包含全部题目及选项的正确与否
// @Tags 试卷管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=model.Test}
// @Router /manage/tests/{id} [get]
func (c *TestController) ManageTest(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	test, err := c.TestService.ManageTest(currentActor(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, test)
}

// @Summary 切换发布状态
// @Description 手动在草稿与发布之间切换，不受题目数量约束
// @Tags 试卷管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=model.Test}
// @Router /manage/tests/{id}/toggle-status [post]
func (c *TestController) ToggleStatus(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	test, err := c.TestService.ToggleStatus(currentActor(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	msg := fmt.Sprintf("The test '%s' has been reverted to a draft and is now hidden from students.", test.Title)
	if test.Status == model.TestPublished {
		msg = fmt.Sprintf("The test '%s' has been published and is now visible to students.", test.Title)
	}
	util.SuccessMessage(ctx, msg, gin.H{"id": test.ID, "status": test.Status})
}

// @Summary 删除试卷
// @Description 仅超级管理员，同时删除题目、选项与作答记录
// @Tags 试卷管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response
// @Router /manage/tests/{id} [delete]
func (c *TestController) DeleteTest(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	title, err := c.TestService.DeleteTest(ctx.Request.Context(), currentActor(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, fmt.Sprintf("The test '%s' was permanently deleted.", title), nil)
}

