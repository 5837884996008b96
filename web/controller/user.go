package controller

import (
	"github.com/gin-gonic/gin"
)

// UserController serves public profile data.
type UserController struct {
	BaseController
}

func NewUserController(g *gin.RouterGroup, services *Services) *UserController {
	a := &UserController{BaseController{services: services}}
	a.initRouter(g)
	return a
}

func (a *UserController) initRouter(g *gin.RouterGroup) {
	g.GET("/:id", a.get)
	g.GET("/:id/questions", a.questions)
}

func (a *UserController) get(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	user, err := a.services.Users.GetUser(id)
	if err != nil {
		jsonMsg(c, "", err)
		return
	}
	jsonObj(c, gin.H{"id": user.Id, "username": user.Username}, nil)
}

func (a *UserController) questions(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	if _, err := a.services.Users.GetUser(id); err != nil {
		jsonMsg(c, "", err)
		return
	}
	page, err := a.services.Questions.ListByAuthor(id, queryInt(c, "page", 1))
	jsonObj(c, page, err)
}
