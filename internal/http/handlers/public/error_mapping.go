package public

import (
	handlershared "github.com/scentshop/internal/http/handlers/shared"
	"github.com/scentshop/internal/http/response"
	"github.com/scentshop/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError = handlershared.MappedError

var authErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest},
	{Target: service.ErrPasswordTooShort, Code: response.CodeBadRequest, Msg: "password must be at least 8 characters"},
	{Target: service.ErrEmailExists, Code: response.CodeConflict},
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized},
	{Target: service.ErrUserDisabled, Code: response.CodeUnauthorized},
	{Target: service.ErrUserNotFound, Code: response.CodeNotFound},
}

var verifyCodeErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest},
	{Target: service.ErrPasswordTooShort, Code: response.CodeBadRequest, Msg: "password must be at least 8 characters"},
	{Target: service.ErrVerifyCodeInvalid, Code: response.CodeBadRequest, Msg: "invalid or expired code"},
	{Target: service.ErrVerifyCodeExpired, Code: response.CodeBadRequest, Msg: "invalid or expired code"},
	{Target: service.ErrVerifyCodeAttemptsExceeded, Code: response.CodeTooManyRequests},
	{Target: service.ErrVerifyCodeTooFrequent, Code: response.CodeTooManyRequests},
	{Target: service.ErrUserNotFound, Code: response.CodeBadRequest},
	{Target: service.ErrUserDisabled, Code: response.CodeUnauthorized},
	{Target: service.ErrEmailServiceDisabled, Code: response.CodeInternal, Msg: "email service unavailable"},
	{Target: service.ErrEmailServiceNotConfigured, Code: response.CodeInternal, Msg: "email service unavailable"},
}

var accountErrorRules = []mappedHandlerError{
	{Target: service.ErrUserNotFound, Code: response.CodeNotFound},
	{Target: service.ErrPasswordTooShort, Code: response.CodeBadRequest, Msg: "password must be at least 8 characters"},
	{Target: service.ErrPasswordRequired, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidPassword, Code: response.CodeBadRequest},
	{Target: service.ErrPasswordNotSet, Code: response.CodeBadRequest},
	{Target: service.ErrPasswordAlreadySet, Code: response.CodeConflict},
	{Target: service.ErrActiveOrdersExist, Code: response.CodeConflict, Msg: "you cannot delete your account while you have active orders"},
}

var postErrorRules = []mappedHandlerError{
	{Target: service.ErrPostNotFound, Code: response.CodeNotFound},
}

var orderAccessErrorRules = []mappedHandlerError{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound},
	{Target: service.ErrForbidden, Code: response.CodeForbidden},
	{Target: service.ErrLoginRequired, Code: response.CodeUnauthorized},
}

var orderCreateErrorRules = []mappedHandlerError{
	{Target: service.ErrOrderItemsEmpty, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidOrderItem, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidSize, Code: response.CodeBadRequest},
	{Target: service.ErrCustomerInfoRequired, Code: response.CodeBadRequest},
	{Target: service.ErrProductNotFound, Code: response.CodeBadRequest},
	{Target: service.ErrProductUnavailable, Code: response.CodeBadRequest},
}

var orderActionErrorRules = []mappedHandlerError{
	{Target: service.ErrOrderStatusInvalid, Code: response.CodeConflict},
	{Target: service.ErrOrderTransitionConflict, Code: response.CodeConflict},
	{Target: service.ErrPaymentMethodLocked, Code: response.CodeConflict},
	{Target: service.ErrOrderNotPayable, Code: response.CodeConflict},
	{Target: service.ErrInvalidPaymentMethod, Code: response.CodeBadRequest},
}

var reviewErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidRating, Code: response.CodeBadRequest},
	{Target: service.ErrReviewNotAllowed, Code: response.CodeForbidden},
	{Target: service.ErrAlreadyReviewed, Code: response.CodeConflict},
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound},
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound},
}

var notificationErrorRules = []mappedHandlerError{
	{Target: service.ErrNotificationNotFound, Code: response.CodeNotFound},
	{Target: service.ErrForbidden, Code: response.CodeForbidden},
	{Target: service.ErrLoginRequired, Code: response.CodeUnauthorized},
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackMsg string) {
	handlershared.RespondMappedError(c, err, rules, response.CodeInternal, fallbackMsg)
}

func respondOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, handlershared.ConcatMappedErrors(orderCreateErrorRules, orderAccessErrorRules), "order create failed")
}

func respondOrderActionError(c *gin.Context, err error) {
	respondWithMappedError(c, err, handlershared.ConcatMappedErrors(orderAccessErrorRules, orderActionErrorRules), "order update failed")
}
