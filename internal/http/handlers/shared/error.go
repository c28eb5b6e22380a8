package shared

import (
	"errors"

	"github.com/scentshop/internal/http/response"
	"github.com/scentshop/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil || c.Request == nil {
		return logger.S()
	}
	return logger.FromContext(c.Request.Context())
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.NewAppError(code, msg, err)
	if err != nil {
		log := RequestLog(c)
		if appErr.Internal() {
			log.Errorw("handler_error", "code", appErr.Code, "message", appErr.Message, "error", err)
		} else {
			log.Warnw("handler_rejected", "code", appErr.Code, "message", appErr.Message, "error", err)
		}
	}
	appErr.Write(c)
}

// MappedError 业务错误到接口错误码的映射；msg 为空时使用错误自身文本。
type MappedError struct {
	Target error
	Code   int
	Msg    string
}

// RespondMappedError 按规则表匹配错误，未命中时按兜底码返回并记录原始错误。
func RespondMappedError(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			msg := rule.Msg
			if msg == "" {
				msg = err.Error()
			}
			RespondError(c, rule.Code, msg, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackMsg, err)
}

// ConcatMappedErrors 合并多组映射规则。
func ConcatMappedErrors(groups ...[]MappedError) []MappedError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}
