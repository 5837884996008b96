package controller

import (
	"github.com/visioweb/askboard/logger"
	"github.com/visioweb/askboard/web/middleware"

	"github.com/gin-gonic/gin"
)

const maxLogCount = 1000

// AdminController exposes operator endpoints to admins.
type AdminController struct {
	BaseController
}

func NewAdminController(g *gin.RouterGroup, services *Services) *AdminController {
	a := &AdminController{BaseController{services: services}}
	a.initRouter(g)
	return a
}

func (a *AdminController) initRouter(g *gin.RouterGroup) {
	g.Use(middleware.AdminRequired())
	g.GET("/logs", a.getLogs)
}

// getLogs returns the newest buffered log lines at or above level.
func (a *AdminController) getLogs(c *gin.Context) {
	count := queryInt(c, "count", 100)
	if count <= 0 || count > maxLogCount {
		count = maxLogCount
	}
	level := c.DefaultQuery("level", "INFO")
	jsonObj(c, logger.GetLogs(count, level), nil)
}
