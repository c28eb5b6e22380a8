package service

import "github.com/scentshop/internal/constants"

// Actor 当前操作主体
type Actor struct {
	UserID uint
	Role   string
}

// IsAdmin 是否管理员
func (a Actor) IsAdmin() bool {
	return a.Role == constants.RoleAdmin
}

// EventActor 事件操作方
func (a Actor) EventActor() string {
	if a.IsAdmin() {
		return constants.ActorAdmin
	}
	return constants.ActorUser
}

func requireAdmin(actor Actor) error {
	if !actor.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}
