package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/fault"
)

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// fail maps err to a status and writes the error body. Only the category
// error's own message reaches the client; anything uncategorized is a 500
// with a generic message.
func fail(c *gin.Context, err error) {
	var (
		validation *fault.ValidationError
		notFound   *fault.NotFoundError
		conflict   *fault.ConflictError
		status     int
		message    string
	)
	switch {
	case errors.As(err, &validation):
		status, message = http.StatusBadRequest, validation.Error()
	case errors.As(err, &notFound):
		status, message = http.StatusNotFound, notFound.Error()
	case errors.As(err, &conflict):
		status, message = http.StatusConflict, conflict.Error()
	default:
		status, message = http.StatusInternalServerError, "internal server error"
		zctx.From(c.Request.Context()).Error("Request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{Code: status, Message: message})
}
