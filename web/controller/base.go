// Package controller provides the HTTP handlers of the askboard JSON API.
package controller

import (
	"github.com/visioweb/askboard/config"
	"github.com/visioweb/askboard/database/model"
	"github.com/visioweb/askboard/web/middleware"
	"github.com/visioweb/askboard/web/service"

	"github.com/gin-gonic/gin"
)

// Services are the dependencies shared by the controllers.
type Services struct {
	Config    *config.Config
	Users     *service.UserService
	Questions *service.QuestionService
	Answers   *service.AnswerService
	Mail      *service.MailService
}

// NewServices builds the services for cfg with mail delivered according to cfg.Mail.
func NewServices(cfg *config.Config) *Services {
	return &Services{
		Config:    cfg,
		Users:     service.NewUserService(cfg),
		Questions: service.NewQuestionService(cfg),
		Answers:   service.NewAnswerService(cfg),
		Mail:      service.NewMailService(cfg.Mail),
	}
}

// BaseController provides common functionality for all controllers.
type BaseController struct {
	services *Services
}

// user returns the logged in user. Handlers behind the login middleware always have one.
func (a *BaseController) user(c *gin.Context) *model.User {
	return middleware.CurrentUser(c)
}
