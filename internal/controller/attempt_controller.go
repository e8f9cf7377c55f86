package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testhub_backend/internal/service"
	"testhub_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type AttemptController struct {
	AttemptService *service.AttemptService
}

func NewAttemptController(attemptService *service.AttemptService) *AttemptController {
	return &AttemptController{AttemptService: attemptService}
}

// SubmitRequest 题目ID -> 所选选项ID，未作答的题目省略
type SubmitRequest struct {
	Answers map[string]uint `json:"answers"`
}

const formQuestionPrefix = "question_"

// parseSelections 支持 JSON 和表单两种提交方式，表单字段为 question_<题目ID>
func parseSelections(ctx *gin.Context) (service.Selections, error) {
	selections := service.Selections{}

	if ctx.ContentType() == binding.MIMEJSON {
		var req SubmitRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return nil, err
		}
		for k, v := range req.Answers {
			qid, ok := util.ParseID(k)
			if !ok || v == 0 {
				return nil, fmt.Errorf("invalid answer for question %q", k)
			}
			selections[qid] = v
		}
		return selections, nil
	}

	if err := ctx.Request.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}
	for k, vs := range ctx.Request.PostForm {
		if !strings.HasPrefix(k, formQuestionPrefix) || len(vs) == 0 || vs[0] == "" {
			continue
		}
		qid, ok := util.ParseID(strings.TrimPrefix(k, formQuestionPrefix))
		aid, ok2 := util.ParseID(vs[0])
		if !ok || !ok2 {
			return nil, fmt.Errorf("invalid answer for %s", k)
		}
		selections[qid] = aid
	}
	return selections, nil
}

// @Summary 交卷
// @Description 评分并生成一条作答记录
// @Tags 答题
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Param body body SubmitRequest true "作答"
// @Success 201 {object} util.Response{data=model.TestAttempt}
// @Failure 409 {object} util.Response "不允许重复作答"
// @Router /tests/{id}/submit [post]
func (c *AttemptController) Submit(ctx *gin.Context) {
	testID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	selections, err := parseSelections(ctx)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.AttemptService.Submit(ctx.Request.Context(), currentActor(ctx), testID, selections)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{
		"attemptId": attempt.ID,
		"score":     attempt.Score,
	})
}

// @Summary 作答结果
// @Description 仅作答者本人可查看，包含逐题回顾
// @Tags 答题
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Success 200 {object} util.Response{data=service.ResultView}
// @Failure 403 {object} util.Response
// @Router /results/{id} [get]
func (c *AttemptController) GetResult(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	view, err := c.AttemptService.GetResult(currentActor(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
