package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rafflelab/backend/pkg/errorx"
)

type response struct {
	Code  int64  `json:"code"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func newResponse(data any) response {
	return response{
		Code: 0,
		Data: data,
	}
}

func newErrorResponse(err error) response {
	errx := errorx.Error{}
	if errors.As(err, &errx) {
		return response{
			Code:  int64(errx.Code),
			Error: errx.Message,
		}
	}

	return response{
		Code:  int64(errorx.Unknown.Code),
		Error: errorx.Unknown.Message,
	}
}

// StatusCode maps an error to its HTTP status. Foreseeable settlement
// conditions are reported as 404, anything uncoded as 500.
func StatusCode(err error) int {
	errx := errorx.Error{}
	if !errors.As(err, &errx) {
		return http.StatusInternalServerError
	}

	switch errx.Code {
	case errorx.NotFound, errorx.PeerplaysAccountMissing, errorx.InsufficientBalance:
		return http.StatusNotFound
	case errorx.BadRequest, errorx.AlreadyExists:
		return http.StatusBadRequest
	case errorx.Unauthenticated:
		return http.StatusUnauthorized
	case errorx.PermissionDenied:
		return http.StatusForbidden
	case errorx.TooManyRequests:
		return http.StatusTooManyRequests
	case errorx.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(StatusCode(err), newErrorResponse(err))
}

// AbortWithError writes err and stops the remaining handlers of the request.
func AbortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(StatusCode(err), newErrorResponse(err))
}
