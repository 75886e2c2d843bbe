package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	tracecontext "tripfeed/pkg/context"
	"tripfeed/pkg/logger"
)

// HeaderUserID 网关认证后写入的用户ID
const HeaderUserID = "X-User-ID"

// Identity 读取网关透传的用户身份。本服务不做认证，缺省为匿名用户
func Identity(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderUserID)
		if raw == "" {
			c.Next()
			return
		}

		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID < 0 {
			log.Warn(c.Request.Context(), "Malformed user header",
				logger.F("header", HeaderUserID),
				logger.F("value", raw))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_PARAMS",
				"message": "invalid " + HeaderUserID + " header",
			})
			return
		}

		c.Request = c.Request.WithContext(tracecontext.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}
