package controller

import (
	"io"
	"net/http"
	"strings"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Laisky/multilingual-news/internal/web/news/model"
	"github.com/Laisky/multilingual-news/library/db/mongo"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusOf the http status of err
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnauthorized),
		errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound), mongo.NotFound(err):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConflict),
		errors.Is(err, model.ErrInvalidTransition),
		mongo.IsDuplicateKey(err):
		return http.StatusConflict
	case errors.Is(err, model.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, model.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageOf the client facing message of err
func messageOf(err error, status int) string {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case status == http.StatusInternalServerError:
		return "internal server error"
	case status == http.StatusUnauthorized && errors.Is(err, model.ErrInvalidCredentials):
		return model.ErrInvalidCredentials.Error()
	default:
		return err.Error()
	}
}

// requestLogger the request scoped logger, the shared one outside the logger middleware
func requestLogger(ctx *gin.Context) glog.Logger {
	if logger := gmw.GetLogger(ctx); logger != nil {
		return logger
	}
	return glog.Shared
}

// abortErr write err as `{"error": msg}` and stop the chain
func abortErr(ctx *gin.Context, err error) {
	status := statusOf(err)
	logger := requestLogger(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err), zap.Int("status", status))
	} else {
		logger.Debug("request rejected", zap.Error(err), zap.Int("status", status))
	}

	ctx.AbortWithStatusJSON(status, errorResponse{Error: messageOf(err, status)})
}

// bindErr turn a binding failure into a validation error
func bindErr(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		if len(verrs) == 1 {
			return model.Invalid(verrs[0].Field(), "%s", ruleMessage(verrs[0]))
		}
		return model.Invalid("", "%s", strings.Join(msgs, "; "))
	}

	return model.Invalid("body", "malformed request: %s", err.Error())
}

func fieldMessage(fe validator.FieldError) string {
	return fe.Field() + ": " + ruleMessage(fe)
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "objectid":
		return "must be an object id"
	case "langcode":
		return "must be a language code"
	case "email":
		return "must be an email address"
	case "url":
		return "must be a url"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed on " + fe.Tag()
	}
}

// bindJSON bind the request body into obj, writing the error response on failure
func bindJSON(ctx *gin.Context, obj any) bool {
	if err := ctx.ShouldBindJSON(obj); err != nil {
		abortErr(ctx, bindErr(err))
		return false
	}
	return true
}

// bindOptionalJSON like bindJSON, an empty body leaves obj unchanged
func bindOptionalJSON(ctx *gin.Context, obj any) bool {
	if err := ctx.ShouldBindJSON(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		abortErr(ctx, bindErr(err))
		return false
	}
	return true
}

// bindQuery bind the query string into obj
func bindQuery(ctx *gin.Context, obj any) bool {
	if err := ctx.ShouldBindQuery(obj); err != nil {
		abortErr(ctx, bindErr(err))
		return false
	}
	return true
}
