package public

import (
	handlershared "github.com/scentshop/internal/http/handlers/shared"
	"github.com/scentshop/internal/service"

	"github.com/gin-gonic/gin"
)

func getActor(c *gin.Context) (service.Actor, bool) {
	return handlershared.GetActor(c)
}

func parseID(c *gin.Context, name string) (uint, bool) {
	return handlershared.ParseUintParam(c, name)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}
