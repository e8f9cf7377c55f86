package service

import (
	"testhub_backend/internal/model"
	"testhub_backend/internal/util"
)

// Actor 发起操作的用户。由控制器从令牌声明构造并显式传给每个服务方法。
type Actor struct {
	UserID   uint
	Username string
	Role     model.UserRole
}

func ActorFromClaims(claims *util.Claims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}
}

func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

func (a Actor) IsStaff() bool {
	return a.Authenticated() && a.Role.IsStaff()
}

func (a Actor) IsSuperuser() bool {
	return a.Authenticated() && a.Role.IsSuperuser()
}

func requireAuthenticated(a Actor) error {
	if !a.Authenticated() {
		return util.ErrPermissionDenied
	}
	return nil
}

func requireStaff(a Actor) error {
	if !a.IsStaff() {
		return util.ErrPermissionDenied
	}
	return nil
}

func requireSuperuser(a Actor) error {
	if !a.IsSuperuser() {
		return util.ErrPermissionDenied
	}
	return nil
}
