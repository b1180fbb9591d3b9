package router

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rafflelab/backend/pkg/errorx"
	"github.com/rafflelab/backend/pkg/xcontext"
)

func wrapHandler[Request, Response any](
	router *Router,
	method string,
	handler HandlerFunc[Request, Response],
) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := router.requestContext(c)

		var req Request
		var err error
		switch method {
		case http.MethodGet:
			err = c.ShouldBindQuery(&req)
		default:
			// An empty body is an empty request.
			if err = c.ShouldBindJSON(&req); errors.Is(err, io.EOF) {
				err = nil
			}
		}
		if err != nil {
			xcontext.Logger(ctx).Debugf("Cannot bind request of %s: %v", c.FullPath(), err)
			writeError(c, errorx.New(errorx.BadRequest, "Invalid request"))
			return
		}

		resp, err := handler(ctx, &req)
		if err != nil {
			if !errorx.IsCoded(err) {
				xcontext.Logger(ctx).Errorf("Unexpected error on %s: %v", c.FullPath(), err)
			}

			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, newResponse(resp))
	}
}
