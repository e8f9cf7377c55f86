package controller

import (
	"testhub_backend/internal/service"
	"testhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// RecordController 只读的结构化数据接口
type RecordController struct {
	RecordService *service.RecordService
}

func NewRecordController(recordService *service.RecordService) *RecordController {
	return &RecordController{RecordService: recordService}
}

// @Summary 分类记录
// @Tags 记录
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.CategoryRecord}
// @Router /records/categories [get]
func (c *RecordController) Categories(ctx *gin.Context) {
	records, err := c.RecordService.Categories(currentActor(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, records)
}

// @Summary 试卷记录
// @Tags 记录
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=service.TestRecord}
// @Router /records/tests/{id} [get]
func (c *RecordController) Test(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	record, err := c.RecordService.Test(currentActor(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, record)
}

// @Summary 作答记录
// @Tags 记录
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Success 200 {object} util.Response{data=service.AttemptRecord}
// @Router /records/attempts/{id} [get]
func (c *RecordController) Attempt(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	record, err := c.RecordService.Attempt(currentActor(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, record)
}
