package middleware

import (
	"strings"

	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/internal/util"
	"quiz_platform_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware 校验外部认证服务签发的 JWT
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT rejected", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

type UserActivityRepo interface {
	Touch(userID, username string) error
}

// ActivityMiddleware 记录令牌主体，供排行榜展示用户名
func ActivityMiddleware(repo UserActivityRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims != nil {
			if err := repo.Touch(claims.UserID, claims.Username); err != nil {
				logger.Log.Warn("Failed to record user activity", zap.String("user_id", claims.UserID), zap.Error(err))
			}
		}
		c.Next()
	}
}
