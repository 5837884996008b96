package middleware

import (
	"net/http"

	"github.com/visioweb/askboard/database/model"
	"github.com/visioweb/askboard/web/entity"
	"github.com/visioweb/askboard/web/session"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

// UserLoader resolves the user id stored in the session.
type UserLoader interface {
	GetUser(id int) (*model.User, error)
}

// LoadUser puts the logged in user, if any, into the context.
func LoadUser(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := session.GetLoginUserId(c); id > 0 {
			if user, err := users.GetUser(id); err == nil {
				c.Set(userKey, user)
			} else {
				// the account is gone
				_ = session.ClearSession(c)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the user put into the context by LoadUser, or nil.
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	return nil
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, entity.Msg{Success: false, Msg: msg})
}

func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			abort(c, http.StatusUnauthorized, "login required")
			return
		}
		c.Next()
	}
}
