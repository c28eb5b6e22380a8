package admin

import "github.com/scentshop/internal/provider"

// Handler 后台管理接口处理器入口
// 说明：该处理器仅用于管理端 API，路由层已完成 RBAC 校验。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
