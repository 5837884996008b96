package service

import (
	"github.com/visioweb/askboard/config"
	"github.com/visioweb/askboard/database"
	"github.com/visioweb/askboard/database/model"
	"github.com/visioweb/askboard/web/entity"

	"gorm.io/gorm"
)

type AnswerService struct {
	cfg *config.Config
}

func NewAnswerService(cfg *config.Config) *AnswerService {
	return &AnswerService{cfg: cfg}
}

func (s *AnswerService) Create(author *model.User, questionID int, form *entity.AnswerForm) (*model.Answer, error) {
	if !author.Confirmed {
		return nil, ErrNotConfirmed
	}
	if err := form.CheckValid(); err != nil {
		return nil, err
	}
	db := database.GetDB()

	var count int64
	if err := db.Model(model.Question{}).Where("id = ?", questionID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	answer := &model.Answer{
		Body:       form.Body,
		AuthorId:   author.Id,
		QuestionId: questionID,
	}
	if err := db.Create(answer).Error; err != nil {
		return nil, err
	}
	answer.Author = author
	return answer, nil
}

func (s *AnswerService) Get(id int) (*model.Answer, error) {
	answer := &model.Answer{}
	err := database.GetDB().Preload("Author").First(answer, id).Error
	if database.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return answer, nil
}

// ListForQuestion returns a page of the answers to a question, oldest first.
func (s *AnswerService) ListForQuestion(questionID int, page int) (*entity.Page[model.Answer], error) {
	perPage := s.cfg.AnswersPerPage
	db := database.GetDB()

	var total int64
	if err := db.Model(model.Answer{}).Where("question_id = ?", questionID).Count(&total).Error; err != nil {
		return nil, err
	}
	var answers []model.Answer
	err := db.Preload("Author").
		Where("question_id = ?", questionID).
		Order("timestamp ASC, id ASC").
		Offset(entity.Offset(page, perPage)).
		Limit(perPage).
		Find(&answers).
		Error
	if err != nil {
		return nil, err
	}
	return entity.NewPage(answers, page, perPage, total), nil
}

// Delete removes an answer. Only its author or an admin may delete it. A question that
// had it as correct answer is left without one.
func (s *AnswerService) Delete(id int, actor *model.User) error {
	answer, err := s.Get(id)
	if err != nil {
		return err
	}
	if answer.AuthorId != actor.Id && !actor.IsAdmin {
		return ErrForbidden
	}
	return database.GetDB().Transaction(func(tx *gorm.DB) error {
		err := tx.Model(model.Question{}).
			Where("id = ? AND correct_answer_id = ?", answer.QuestionId, answer.Id).
			Update("correct_answer_id", nil).
			Error
		if err != nil {
			return err
		}
		return tx.Delete(&model.Answer{}, answer.Id).Error
	})
}
