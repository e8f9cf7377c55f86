package controller

import (
	"errors"
	"net/http"
	"strconv"
	"testhub_backend/internal/service"
	"testhub_backend/internal/util"
	"testhub_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// currentActor 从令牌声明构造当前用户，未登录时为零值
func currentActor(ctx *gin.Context) service.Actor {
	return service.ActorFromClaims(util.GetUserFromContext(ctx))
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, ok := util.ParseID(ctx.Param(name))
	if !ok {
		util.BadRequest(ctx, "invalid "+name)
	}
	return id, ok
}

func pagination(ctx *gin.Context) (int, int) {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// respondError 把服务层错误映射为 HTTP 状态和提示信息
func respondError(ctx *gin.Context, err error) {
	var (
		verr *service.ValidationError
		ierr *service.ImportError
	)
	switch {
	case errors.As(err, &ierr):
		if ierr.Kind == service.ImportUnexpected {
			logger.Log.Error("bulk import failed unexpectedly", zap.String("path", ctx.FullPath()), zap.Error(ierr.Err))
			util.Error(ctx, http.StatusInternalServerError, ierr.UserMessage())
			return
		}
		util.BadRequest(ctx, ierr.UserMessage())
	case errors.As(err, &verr):
		util.BadRequest(ctx, verr.Message)
	case errors.Is(err, util.ErrPermissionDenied):
		util.ForbiddenMessage(ctx, "You do not have permission to perform this action.")
	case errors.Is(err, util.ErrInvalidCredentials):
		util.Error(ctx, http.StatusUnauthorized, "Invalid username/email or password.")
	case errors.Is(err, util.ErrTestNotFound),
		errors.Is(err, util.ErrTestNotPublished),
		errors.Is(err, util.ErrCategoryNotFound),
		errors.Is(err, util.ErrQuestionNotFound),
		errors.Is(err, util.ErrAttemptNotFound),
		errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrUsernameTaken),
		errors.Is(err, util.ErrEmailRegistered),
		errors.Is(err, util.ErrCategoryExists),
		errors.Is(err, util.ErrTestAlreadySubmitted),
		errors.Is(err, util.ErrSubmitInProgress):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidSelection),
		errors.Is(err, util.ErrInvalidImage),
		errors.Is(err, util.ErrInvalidQuestion):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
