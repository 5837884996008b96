package controller

import (
	"net/http"
	"text/template"

	"github.com/visioweb/askboard/database/model"
	"github.com/visioweb/askboard/logger"
	"github.com/visioweb/askboard/web/entity"
	"github.com/visioweb/askboard/web/middleware"
	"github.com/visioweb/askboard/web/session"

	"github.com/gin-gonic/gin"
)

// AuthController handles registration, login and account confirmation.
type AuthController struct {
	BaseController
}

// NewAuthController creates a new AuthController and initializes its routes.
func NewAuthController(g *gin.RouterGroup, services *Services) *AuthController {
	a := &AuthController{BaseController{services: services}}
	a.initRouter(g)
	return a
}

func (a *AuthController) initRouter(g *gin.RouterGroup) {
	limited := g.Group("", middleware.RateLimitMiddleware(middleware.DefaultRateLimitConfig()))
	limited.POST("/register", a.register)
	limited.POST("/login", a.login)

	auth := g.Group("", middleware.LoginRequired())
	auth.POST("/logout", a.logout)
	auth.GET("/me", a.me)
	auth.GET("/confirm/:token", a.confirm)
	auth.POST("/confirm", a.resendConfirmation)
}

// register creates the account, logs it in and mails the confirmation token.
func (a *AuthController) register(c *gin.Context) {
	var form entity.RegisterForm
	if !bindForm(c, &form) {
		return
	}
	user, err := a.services.Users.Register(&form)
	if err != nil {
		jsonMsg(c, "", err)
		return
	}
	if err := session.SetLoginUser(c, user, false); err != nil {
		logger.Warning("Unable to save session: ", err)
	}
	a.sendConfirmation(c, user)
	jsonMsgObj(c, "a confirmation token has been sent to your email", user, nil)
}

func (a *AuthController) login(c *gin.Context) {
	var form entity.LoginForm
	if !bindForm(c, &form) {
		return
	}
	if err := form.CheckValid(); err != nil {
		jsonMsg(c, "", err)
		return
	}

	safeUser := template.HTMLEscapeString(form.Login)
	user := a.services.Users.CheckUser(form.Login, form.Password)
	if user == nil {
		logger.Warningf("wrong username or password for \"%s\", IP: \"%s\"", safeUser, getRemoteIp(c))
		pureJsonMsg(c, http.StatusUnauthorized, false, "wrong username or password")
		return
	}

	if err := session.SetLoginUser(c, user, form.Remember); err != nil {
		logger.Warning("Unable to save session: ", err)
		pureJsonMsg(c, http.StatusInternalServerError, false, "login failed")
		return
	}
	logger.Infof("%s logged in successfully, Ip Address: %s", safeUser, getRemoteIp(c))
	jsonMsgObj(c, "logged in", user, nil)
}

func (a *AuthController) logout(c *gin.Context) {
	if user := a.user(c); user != nil {
		logger.Infof("%s logged out successfully", user.Username)
	}
	if err := session.ClearSession(c); err != nil {
		logger.Warning("Unable to save session after clearing:", err)
	}
	jsonMsg(c, "logged out", nil)
}

func (a *AuthController) me(c *gin.Context) {
	jsonObj(c, a.user(c), nil)
}

func (a *AuthController) confirm(c *gin.Context) {
	user := a.user(c)
	if user.Confirmed {
		jsonMsg(c, "account already confirmed", nil)
		return
	}
	if !a.services.Users.Confirm(user, c.Param("token")) {
		pureJsonMsg(c, http.StatusBadRequest, false, "the confirmation link is invalid or has expired")
		return
	}
	logger.Infof("user %d confirmed the account", user.Id)
	jsonMsg(c, "you have confirmed your account", nil)
}

func (a *AuthController) resendConfirmation(c *gin.Context) {
	user := a.user(c)
	if user.Confirmed {
		jsonMsg(c, "account already confirmed", nil)
		return
	}
	a.sendConfirmation(c, user)
	jsonMsg(c, "a new confirmation token has been sent to your email", nil)
}

// sendConfirmation logs delivery failures; the account can always ask for a new token.
func (a *AuthController) sendConfirmation(c *gin.Context, user *model.User) {
	tok, err := a.services.Users.GenerateConfirmationToken(user, 0)
	if err != nil {
		logger.Warning("generate confirmation token err:", err)
		return
	}
	if err := a.services.Mail.SendConfirmation(user, tok); err != nil {
		logger.Warningf("confirmation mail to user %d failed, IP: %s", user.Id, getRemoteIp(c))
	}
}
