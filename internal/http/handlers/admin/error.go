package admin

import (
	handlershared "github.com/scentshop/internal/http/handlers/shared"
	"github.com/scentshop/internal/http/response"
	"github.com/scentshop/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError = handlershared.MappedError

var adminCommonErrorRules = []mappedHandlerError{
	{Target: service.ErrAdminRequired, Code: response.CodeForbidden},
	{Target: service.ErrForbidden, Code: response.CodeForbidden},
}

var adminOrderErrorRules = []mappedHandlerError{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound},
	{Target: service.ErrOrderStatusInvalid, Code: response.CodeConflict},
	{Target: service.ErrOrderTransitionConflict, Code: response.CodeConflict},
	{Target: service.ErrOnlinePaymentPending, Code: response.CodeConflict},
	{Target: service.ErrInsufficientStock, Code: response.CodeConflict},
	{Target: service.ErrOrderItemsEmpty, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidOrderItem, Code: response.CodeBadRequest},
	{Target: service.ErrCustomerInfoRequired, Code: response.CodeBadRequest},
	{Target: service.ErrProductNotFound, Code: response.CodeBadRequest},
}

var adminProductErrorRules = []mappedHandlerError{
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound},
	{Target: service.ErrProductNameRequired, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidPrice, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidStock, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidSize, Code: response.CodeBadRequest},
	{Target: service.ErrEnableEmptySize, Code: response.CodeBadRequest},
}

var adminReviewErrorRules = []mappedHandlerError{
	{Target: service.ErrReviewNotFound, Code: response.CodeNotFound},
}

var adminUserErrorRules = []mappedHandlerError{
	{Target: service.ErrUserNotFound, Code: response.CodeNotFound},
	{Target: service.ErrInvalidUserStatus, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidTier, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidLoyaltyMode, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidRole, Code: response.CodeBadRequest},
	{Target: service.ErrPasswordTooShort, Code: response.CodeBadRequest, Msg: "password must be at least 8 characters"},
	{Target: service.ErrEmailExists, Code: response.CodeConflict},
}

var adminPostErrorRules = []mappedHandlerError{
	{Target: service.ErrPostNotFound, Code: response.CodeNotFound},
	{Target: service.ErrPostTitleRequired, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidPostStatus, Code: response.CodeBadRequest},
	{Target: service.ErrSlugExists, Code: response.CodeConflict},
}

var adminSettingErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidSettingValue, Code: response.CodeBadRequest},
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// respondWithMappedError 在模块规则前追加通用的权限规则
func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackMsg string) {
	handlershared.RespondMappedError(c, err, handlershared.ConcatMappedErrors(adminCommonErrorRules, rules), response.CodeInternal, fallbackMsg)
}
