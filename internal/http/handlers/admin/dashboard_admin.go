package admin

import (
	"strconv"

	"github.com/scentshop/internal/http/response"

	"github.com/gin-gonic/gin"
)

// AdminGetStats 后台首页统计，refresh=true 时跳过缓存
func (h *Handler) AdminGetStats(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	forceRefresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	stats, err := h.DashboardService.GetAdminStats(c.Request.Context(), actor, forceRefresh)
	if err != nil {
		respondWithMappedError(c, err, nil, "stats fetch failed")
		return
	}
	response.Success(c, stats)
}
