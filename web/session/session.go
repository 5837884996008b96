// Package session keeps the id of the logged in user in the signed session cookie.
package session

import (
	"net/http"

	"github.com/visioweb/askboard/database/model"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	loginUser  = "LOGIN_USER"
	optionsKey = "SESSION_OPTIONS"
	// CookieName is the name of the session cookie.
	CookieName = "askboard"
	// RememberMaxAge keeps a "remember me" session for 30 days.
	RememberMaxAge = 30 * 24 * 60 * 60
)

// NewOptions returns the cookie options shared by every session. Secure cookies are
// only sent over HTTPS.
func NewOptions(secure bool) sessions.Options {
	return sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Sessions installs the session middleware on store with opts. Handlers that change the
// cookie lifetime start from the same opts.
func Sessions(store sessions.Store, opts sessions.Options) gin.HandlerFunc {
	store.Options(opts)
	handler := sessions.Sessions(CookieName, store)
	return func(c *gin.Context) {
		c.Set(optionsKey, opts)
		handler(c)
	}
}

func optionsWithMaxAge(c *gin.Context, maxAge int) sessions.Options {
	opts := NewOptions(false)
	if v, ok := c.Get(optionsKey); ok {
		opts = v.(sessions.Options)
	}
	opts.MaxAge = maxAge
	return opts
}

// SetLoginUser stores the user id. With remember set the cookie outlives the browser
// session.
func SetLoginUser(c *gin.Context, user *model.User, remember bool) error {
	s := sessions.Default(c)
	s.Set(loginUser, user.Id)
	if remember {
		s.Options(optionsWithMaxAge(c, RememberMaxAge))
	}
	return s.Save()
}

// GetLoginUserId returns the id of the logged in user, or 0.
func GetLoginUserId(c *gin.Context) int {
	s := sessions.Default(c)
	if obj := s.Get(loginUser); obj != nil {
		if id, ok := obj.(int); ok {
			return id
		}
	}
	return 0
}

func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(optionsWithMaxAge(c, -1))
	return s.Save()
}
