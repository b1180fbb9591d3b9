package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rafflelab/backend/internal/model"
	"github.com/rafflelab/backend/pkg/authenticator"
	"github.com/rafflelab/backend/pkg/errorx"
	"github.com/rafflelab/backend/pkg/router"
	"github.com/rafflelab/backend/pkg/xcontext"
	"golang.org/x/exp/slices"
)

const bearerPrefix = "Bearer "

// Authenticate accepts requests carrying a valid operator token whose role is
// one of roles. Any role is accepted when roles is empty. Requests pass
// through unchecked when no token secret is configured.
func Authenticate(
	ctx context.Context,
	engine authenticator.TokenEngine[model.AccessToken],
	roles ...string,
) gin.HandlerFunc {
	if xcontext.Configs(ctx).Token.Secret == "" {
		xcontext.Logger(ctx).Warnf("Token secret is not set, management apis are not authenticated")
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			router.AbortWithError(c, errorx.New(errorx.Unauthenticated, "Missing access token"))
			return
		}

		token, err := engine.Verify(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			xcontext.Logger(ctx).Debugf("Cannot verify access token: %v", err)
			router.AbortWithError(c, errorx.New(errorx.Unauthenticated, "Invalid access token"))
			return
		}

		if len(roles) > 0 && !slices.Contains(roles, token.Role) {
			router.AbortWithError(c, errorx.New(errorx.PermissionDenied, "Role %s is not allowed", token.Role))
			return
		}

		c.Request = c.Request.WithContext(xcontext.WithRequestUserID(c.Request.Context(), token.ID))
		c.Next()
	}
}
