package controller

import (
	"github.com/visioweb/askboard/web/middleware"

	"github.com/gin-gonic/gin"
)

type AnswerController struct {
	BaseController
}

func NewAnswerController(g *gin.RouterGroup, services *Services) *AnswerController {
	a := &AnswerController{BaseController{services: services}}
	a.initRouter(g)
	return a
}

func (a *AnswerController) initRouter(g *gin.RouterGroup) {
	g.GET("/:id", a.get)
	g.DELETE("/:id", middleware.LoginRequired(), a.delete)
}

func (a *AnswerController) get(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	answer, err := a.services.Answers.Get(id)
	jsonObj(c, answer, err)
}

func (a *AnswerController) delete(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	jsonMsg(c, "answer deleted", a.services.Answers.Delete(id, a.user(c)))
}
