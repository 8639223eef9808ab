package middleware

import (
	"database/sql"
	"errors"

	"growda-api/internal/ctx"
	"growda-api/internal/shared"
	"growda-api/internal/users"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type UserMiddleware struct {
	manager *users.UserManager
}

var userMiddleware *UserMiddleware

func InitUserMiddleware(redisClient *redis.Client, rdb *sql.DB, log *zap.SugaredLogger) {
	userMiddleware = &UserMiddleware{manager: users.NewUserManager(redisClient, rdb, log)}
}

func GetUserMiddleware() (*UserMiddleware, error) {
	if userMiddleware == nil {
		return nil, errors.New("user middleware not initialized")
	}
	return userMiddleware, nil
}

func (u *UserMiddleware) ExtractUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(cc echo.Context) error {
		c := cc.(*ctx.Context)
		c.User = nil

		apiKey, err := shared.ExtractAPIKey(c)
		if err != nil {
			return next(c)
		}
		user, err := u.manager.GetUserFromKey(c.Request().Context(), apiKey)
		if err != nil {
			return next(c)
		}
		c.User = user
		c.Log = c.Log.With("user_id", c.User.UserID)
		c.LogValues.UserID = user.UserID
		c.LogValues.Role = user.Role
		return next(c)
	}
}

func (u *UserMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(cc echo.Context) error {
		c := cc.(*ctx.Context)
		if c.User == nil || c.User.Role != "admin" {
			return c.String(401, "unauthorized")
		}
		return next(c)
	}
}
