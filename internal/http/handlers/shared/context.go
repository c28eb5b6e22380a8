package shared

import (
	"strconv"
	"strings"

	"github.com/scentshop/internal/http/response"
	"github.com/scentshop/internal/service"

	"github.com/gin-gonic/gin"
)

// 鉴权中间件写入的上下文键
const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "user_role"
)

// GetActor 从上下文读取当前操作主体，缺失时直接返回 401。
func GetActor(c *gin.Context) (service.Actor, bool) {
	value, exists := c.Get(ContextUserIDKey)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
		return service.Actor{}, false
	}
	userID, ok := value.(uint)
	if !ok || userID == 0 {
		RespondError(c, response.CodeInternal, "user id type invalid", nil)
		return service.Actor{}, false
	}
	return service.Actor{UserID: userID, Role: c.GetString(ContextRoleKey)}, true
}

// ParseUintParam 解析路径中的正整数 ID。
func ParseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		RespondError(c, response.CodeBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}
