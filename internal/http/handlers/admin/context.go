package admin

import (
	handlershared "github.com/scentshop/internal/http/handlers/shared"
	"github.com/scentshop/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func getActor(c *gin.Context) (service.Actor, bool) {
	return handlershared.GetActor(c)
}

func parseID(c *gin.Context, name string) (uint, bool) {
	return handlershared.ParseUintParam(c, name)
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}
