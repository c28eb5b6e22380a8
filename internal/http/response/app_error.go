package response

import "github.com/gin-gonic/gin"

// AppError 接口错误：业务码、对外消息与内部原因
type AppError struct {
	Code    int
	Message string
	Cause   error
}

// NewAppError 创建接口错误
func NewAppError(code int, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Internal 500 及以上视为服务端故障
func (e *AppError) Internal() bool {
	return e.Code >= CodeInternal
}

// Write 输出错误响应，原因不对外暴露
func (e *AppError) Write(c *gin.Context) {
	Error(c, e.Code, e.Message)
}
