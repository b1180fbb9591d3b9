package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rafflelab/backend/internal/common"
)

func Prometheus() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		status := fmt.Sprint(c.Writer.Status())
		common.IncCounter(common.HTTPRequestTotal, path, status)
		if histogram, ok := common.PromHistograms[common.HTTPRequestDurationSeconds]; ok {
			histogram.WithLabelValues(path, status).Observe(time.Since(start).Seconds())
		}
	}
}
