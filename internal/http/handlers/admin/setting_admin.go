package admin

import (
	"github.com/scentshop/internal/http/response"
	"github.com/scentshop/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminGetSettings 通知设置
func (h *Handler) AdminGetSettings(c *gin.Context) {
	setting, err := h.SettingService.Get(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "setting fetch failed", err)
		return
	}
	response.Success(c, setting)
}

// AdminUpdateSettings 部分更新通知设置
func (h *Handler) AdminUpdateSettings(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req service.AdminSettingPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	setting, err := h.SettingService.Update(c.Request.Context(), actor, req)
	if err != nil {
		respondWithMappedError(c, err, adminSettingErrorRules, "setting update failed")
		return
	}
	response.Success(c, setting)
}
