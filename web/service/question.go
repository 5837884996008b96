package service

import (
	"github.com/visioweb/askboard/config"
	"github.com/visioweb/askboard/database"
	"github.com/visioweb/askboard/database/model"
	"github.com/visioweb/askboard/logger"
	"github.com/visioweb/askboard/web/entity"

	"gorm.io/gorm"
)

type QuestionService struct {
	cfg *config.Config
}

func NewQuestionService(cfg *config.Config) *QuestionService {
	return &QuestionService{cfg: cfg}
}

// Create publishes a question. Only confirmed users may ask.
func (s *QuestionService) Create(author *model.User, form *entity.QuestionForm) (*model.Question, error) {
	if !author.Confirmed {
		return nil, ErrNotConfirmed
	}
	if err := form.CheckValid(); err != nil {
		return nil, err
	}
	question := &model.Question{
		Title:    form.Title,
		Body:     form.Body,
		AuthorId: author.Id,
	}
	if err := database.GetDB().Create(question).Error; err != nil {
		return nil, err
	}
	question.Author = author
	return question, nil
}

// Get loads a question with its author and correct answer.
func (s *QuestionService) Get(id int) (*model.Question, error) {
	question := &model.Question{}
	err := database.GetDB().
		Preload("Author").
		Preload("CorrectAnswer").
		Preload("CorrectAnswer.Author").
		First(question, id).
		Error
	if database.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return question, nil
}

// List returns a page of questions, newest first.
func (s *QuestionService) List(page int) (*entity.Page[model.Question], error) {
	return s.list(database.GetDB().Model(model.Question{}), page)
}

func (s *QuestionService) ListByAuthor(authorID int, page int) (*entity.Page[model.Question], error) {
	return s.list(database.GetDB().Model(model.Question{}).Where("author_id = ?", authorID), page)
}

func (s *QuestionService) list(query *gorm.DB, page int) (*entity.Page[model.Question], error) {
	perPage := s.cfg.QuestionsPerPage
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}
	var questions []model.Question
	err := query.Session(&gorm.Session{}).
		Preload("Author").
		Order("timestamp DESC, id DESC").
		Offset(entity.Offset(page, perPage)).
		Limit(perPage).
		Find(&questions).
		Error
	if err != nil {
		return nil, err
	}
	return entity.NewPage(questions, page, perPage, total), nil
}

// Delete removes a question with its answers and upvotes. Only the author or an admin
// may delete.
func (s *QuestionService) Delete(id int, actor *model.User) error {
	question, err := s.Get(id)
	if err != nil {
		return err
	}
	if question.AuthorId != actor.Id && !actor.IsAdmin {
		return ErrForbidden
	}
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(model.Question{}).Where("id = ?", id).Update("correct_answer_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&model.Upvote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Question{}, id).Error
	})
	if err != nil {
		return err
	}
	logger.Infof("question %d deleted by user %d", id, actor.Id)
	return nil
}

// SetCorrectAnswer marks answerID as the accepted answer. Only the question author may
// do so and the answer must belong to the question.
func (s *QuestionService) SetCorrectAnswer(questionID, answerID int, actor *model.User) error {
	question, err := s.Get(questionID)
	if err != nil {
		return err
	}
	if question.AuthorId != actor.Id {
		return ErrForbidden
	}
	answer := &model.Answer{}
	err = database.GetDB().First(answer, answerID).Error
	if database.IsNotFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if answer.QuestionId != question.Id {
		return ErrAnswerMismatch
	}
	return database.GetDB().Model(model.Question{}).
		Where("id = ?", question.Id).
		Update("correct_answer_id", answer.Id).
		Error
}

func (s *QuestionService) ClearCorrectAnswer(questionID int, actor *model.User) error {
	question, err := s.Get(questionID)
	if err != nil {
		return err
	}
	if question.AuthorId != actor.Id {
		return ErrForbidden
	}
	return database.GetDB().Model(model.Question{}).
		Where("id = ?", question.Id).
		Update("correct_answer_id", nil).
		Error
}

func (s *QuestionService) CountUpvotes(id int) (int64, error) {
	var count int64
	err := database.GetDB().Model(model.Upvote{}).Where("question_id = ?", id).Count(&count).Error
	return count, err
}
