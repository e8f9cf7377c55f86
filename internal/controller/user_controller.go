package controller

import (
	"testhub_backend/internal/service"
	"testhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// @Summary 获取个人资料
// @Tags 用户
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.User}
// @Router /profile [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	user, err := c.UserService.Profile(currentActor(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
}

// @Summary 修改密码
// @Tags 用户
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body ChangePasswordRequest true "密码信息"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /profile/password [put]
func (c *UserController) ChangePassword(ctx *gin.Context) {
	var req ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.UserService.ChangePassword(currentActor(ctx), req.CurrentPassword, req.NewPassword, req.PasswordConfirm); err != nil {
		respondError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "Your password was successfully updated.", nil)
}

// @Summary 注销账号
// @Description 删除账号及其作答记录、创建的试卷
// @Tags 用户
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /profile [delete]
func (c *UserController) DeleteAccount(ctx *gin.Context) {
	if err := c.UserService.DeleteAccount(ctx.Request.Context(), currentActor(ctx)); err != nil {
		respondError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "Your account has been deleted.", nil)
}
