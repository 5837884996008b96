package controller

import (
	"github.com/visioweb/askboard/database/model"
	"github.com/visioweb/askboard/web/entity"
	"github.com/visioweb/askboard/web/middleware"

	"github.com/gin-gonic/gin"
)

// questionView is a question with its upvote count and whether the viewer upvoted it.
type questionView struct {
	*model.Question
	Upvotes int64 `json:"upvotes"`
	Upvoted bool  `json:"upvoted"`
}

// QuestionController serves questions, their answers and upvotes.
type QuestionController struct {
	BaseController
}

func NewQuestionController(g *gin.RouterGroup, services *Services) *QuestionController {
	a := &QuestionController{BaseController{services: services}}
	a.initRouter(g)
	return a
}

func (a *QuestionController) initRouter(g *gin.RouterGroup) {
	g.GET("", a.list)
	g.GET("/:id", a.get)
	g.GET("/:id/answers", a.listAnswers)

	confirmed := g.Group("", middleware.ConfirmedRequired())
	confirmed.POST("", a.create)
	confirmed.POST("/:id/upvote", a.upvote)
	confirmed.DELETE("/:id/upvote", a.downvote)
	confirmed.POST("/:id/answers", a.answer)

	auth := g.Group("", middleware.LoginRequired())
	auth.DELETE("/:id", a.delete)
	auth.PUT("/:id/correct", a.setCorrect)
	auth.DELETE("/:id/correct", a.clearCorrect)
}

func (a *QuestionController) list(c *gin.Context) {
	page, err := a.services.Questions.List(queryInt(c, "page", 1))
	jsonObj(c, page, err)
}

func (a *QuestionController) view(c *gin.Context, q *model.Question) (*questionView, error) {
	count, err := a.services.Questions.CountUpvotes(q.Id)
	if err != nil {
		return nil, err
	}
	v := &questionView{Question: q, Upvotes: count}
	if user := a.user(c); user != nil {
		v.Upvoted = a.services.Users.HasUpvotedQuestion(user, q)
	}
	return v, nil
}

func (a *QuestionController) get(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	q, err := a.services.Questions.Get(id)
	if err != nil {
		jsonMsg(c, "", err)
		return
	}
	v, err := a.view(c, q)
	jsonObj(c, v, err)
}

func (a *QuestionController) create(c *gin.Context) {
	var form entity.QuestionForm
	if !bindForm(c, &form) {
		return
	}
	q, err := a.services.Questions.Create(a.user(c), &form)
	jsonMsgObj(c, "your question has been published", q, err)
}

func (a *QuestionController) delete(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	jsonMsg(c, "question deleted", a.services.Questions.Delete(id, a.user(c)))
}

func (a *QuestionController) vote(c *gin.Context, up bool) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	q, err := a.services.Questions.Get(id)
	if err != nil {
		jsonMsg(c, "", err)
		return
	}
	if up {
		err = a.services.Users.Upvote(a.user(c), q)
	} else {
		err = a.services.Users.Downvote(a.user(c), q)
	}
	if err != nil {
		jsonMsg(c, "", err)
		return
	}
	v, err := a.view(c, q)
	jsonObj(c, v, err)
}

func (a *QuestionController) upvote(c *gin.Context) {
	a.vote(c, true)
}

func (a *QuestionController) downvote(c *gin.Context) {
	a.vote(c, false)
}

func (a *QuestionController) listAnswers(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	if _, err := a.services.Questions.Get(id); err != nil {
		jsonMsg(c, "", err)
		return
	}
	page, err := a.services.Answers.ListForQuestion(id, queryInt(c, "page", 1))
	jsonObj(c, page, err)
}

func (a *QuestionController) answer(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	var form entity.AnswerForm
	if !bindForm(c, &form) {
		return
	}
	answer, err := a.services.Answers.Create(a.user(c), id, &form)
	jsonMsgObj(c, "your answer has been published", answer, err)
}

func (a *QuestionController) setCorrect(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	var form entity.CorrectAnswerForm
	if !bindForm(c, &form) {
		return
	}
	if err := form.CheckValid(); err != nil {
		jsonMsg(c, "", err)
		return
	}
	err := a.services.Questions.SetCorrectAnswer(id, form.AnswerId, a.user(c))
	jsonMsg(c, "correct answer set", err)
}

func (a *QuestionController) clearCorrect(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	jsonMsg(c, "correct answer cleared", a.services.Questions.ClearCorrectAnswer(id, a.user(c)))
}
