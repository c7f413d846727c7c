package handler

import (
	"errors"
	"io"
	"net/http"

	"vertax/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// bindJSON decodes and validates the request body into req.
func bindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return bindError(err)
	}
	return nil
}

// bindOptionalJSON is bindJSON for endpoints whose body may be omitted. An empty body,
// including a chunked one with no declared length, leaves req untouched.
func bindOptionalJSON(c *gin.Context, req any) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return bindError(err)
	}
	return nil
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.ErrPayloadTooLarge()
	}
	return apperror.Validation(err.Error())
}
