package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rafflelab/backend/pkg/xcontext"
)

func Logger(ctx context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		info := fmt.Sprintf("%s | %s | %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			xcontext.Logger(ctx).Errorf(info)
		case c.Writer.Status() >= http.StatusBadRequest:
			xcontext.Logger(ctx).Warnf(info)
		default:
			xcontext.Logger(ctx).Infof(info)
		}
	}
}
