package controller

import (
	"fmt"
	"testhub_backend/internal/service"
	"testhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

type AnswerRequest struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type AddQuestionRequest struct {
	Text    string          `json:"text" binding:"required"`
	Answers []AnswerRequest `json:"answers" binding:"required"`
}

// @Summary 添加题目
// @Description 空白选项行会被忽略，保留的选项中必须恰好一个正确
// @Tags 题目管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Param body body AddQuestionRequest true "题目"
// @Success 201 {object} util.Response{data=service.QuestionResult}
// @Router /manage/tests/{id}/questions [post]
func (c *QuestionController) AddQuestion(ctx *gin.Context) {
	testID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req AddQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	in := service.QuestionInput{Text: req.Text, Answers: make([]service.AnswerInput, len(req.Answers))}
	for i, a := range req.Answers {
		in.Answers[i] = service.AnswerInput{Text: a.Text, IsCorrect: a.IsCorrect}
	}

	res, err := c.QuestionService.AddQuestion(ctx.Request.Context(), currentActor(ctx), testID, in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, res)
}

// @Summary 删除题目
// @Description 仅试卷创建者或超级管理员
// @Tags 题目管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response{data=service.QuestionResult}
// @Router /manage/questions/{id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	res, err := c.QuestionService.DeleteQuestion(ctx.Request.Context(), currentActor(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "The question was successfully deleted.", res)
}

// @Summary 批量导入题目
// @Description 上传 JSON 文件，根节点为题目数组，全部成功或全部回滚
// @Tags 题目管理
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Param json_file formData file true "题目 JSON 文件"
// @Success 200 {object} util.Response{data=service.ImportResult}
// @Failure 400 {object} util.Response
// @Router /manage/tests/{id}/questions/bulk [post]
func (c *QuestionController) BulkImport(ctx *gin.Context) {
	testID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	fileHeader, err := ctx.FormFile(util.FormImportFileField)
	if err != nil {
		util.BadRequest(ctx, "No file was selected. Please choose a JSON file to upload.")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	res, err := c.QuestionService.BulkImport(ctx.Request.Context(), currentActor(ctx), testID, fileHeader.Filename, file)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, fmt.Sprintf("Successfully added %d new questions to the test.", res.Added), res)
}
