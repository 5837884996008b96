package middleware

import (
	"net/http"

	"github.com/visioweb/askboard/database/model"

	"github.com/gin-gonic/gin"
)

// Requirement is a condition the logged in user must meet.
type Requirement func(*model.User) bool

func Confirmed(u *model.User) bool { return u.Confirmed }

func Admin(u *model.User) bool { return u.IsAdmin }

// Require checks that there is a logged in user meeting every requirement.
func Require(msg string, reqs ...Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abort(c, http.StatusUnauthorized, "login required")
			return
		}
		for _, ok := range reqs {
			if !ok(user) {
				abort(c, http.StatusForbidden, msg)
				return
			}
		}
		c.Next()
	}
}

func ConfirmedRequired() gin.HandlerFunc {
	return Require("account is not confirmed", Confirmed)
}

func AdminRequired() gin.HandlerFunc {
	return Require("admin only", Admin)
}
