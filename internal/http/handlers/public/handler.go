package public

import "github.com/scentshop/internal/provider"

// Handler 前台/公开接口处理器入口
// 说明：该处理器用于商品浏览与顾客侧 API，通知接口管理员与顾客共用。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
