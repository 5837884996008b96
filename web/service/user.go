// Package service implements the askboard operations over the database models: accounts,
// confirmation, upvotes, questions, answers and outgoing mail.
package service

import (
	"errors"
	"strings"
	"time"

	"github.com/visioweb/askboard/config"
	"github.com/visioweb/askboard/database"
	"github.com/visioweb/askboard/database/model"
	"github.com/visioweb/askboard/logger"
	"github.com/visioweb/askboard/util/token"
	"github.com/visioweb/askboard/web/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserService struct {
	cfg    *config.Config
	signer *token.Signer
}

func NewUserService(cfg *config.Config) *UserService {
	return &UserService{cfg: cfg, signer: token.NewSigner(cfg.SecretKey)}
}

// Register creates an unconfirmed account. The account is an admin when its email is
// ADMIN_EMAIL.
func (s *UserService) Register(form *entity.RegisterForm) (*model.User, error) {
	if err := form.CheckValid(); err != nil {
		return nil, err
	}
	isAdmin := s.cfg.AdminEmail != "" && strings.EqualFold(form.Email, s.cfg.AdminEmail)
	return s.create(form, isAdmin, false)
}

// CreateUser creates an already confirmed account, for operators.
func (s *UserService) CreateUser(form *entity.RegisterForm, isAdmin bool) (*model.User, error) {
	if err := form.CheckValid(); err != nil {
		return nil, err
	}
	return s.create(form, isAdmin, true)
}

func (s *UserService) create(form *entity.RegisterForm, isAdmin, confirmed bool) (*model.User, error) {
	email := strings.ToLower(form.Email)
	if err := checkTaken(form.Username, email); err != nil {
		return nil, err
	}

	user := &model.User{
		Username:  form.Username,
		Email:     email,
		Confirmed: confirmed,
		IsAdmin:   isAdmin,
	}
	if err := user.SetPassword(form.Password); err != nil {
		return nil, err
	}
	if err := insertUser(user); err != nil {
		return nil, err
	}
	logger.Infof("registered user %d (%s)", user.Id, user.Username)
	return user, nil
}

// checkTaken returns ErrUsernameTaken or ErrEmailTaken when an account already uses
// username or email.
func checkTaken(username, email string) error {
	db := database.GetDB()
	var count int64
	if err := db.Model(model.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUsernameTaken
	}
	if err := db.Model(model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailTaken
	}
	return nil
}

// insertUser stores user. A concurrent registration that took the username or email
// after checkTaken ran surfaces as the same taken error.
func insertUser(user *model.User) error {
	err := database.GetDB().Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if taken := checkTaken(user.Username, user.Email); taken != nil {
			return taken
		}
	}
	return err
}

// CheckUser returns the account matching login (username or email) and password, or nil.
func (s *UserService) CheckUser(login string, password string) *model.User {
	db := database.GetDB()

	user := &model.User{}
	err := db.Model(model.User{}).
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil
	} else if err != nil {
		logger.Warning("check user err:", err)
		return nil
	}

	if !user.CheckPassword(password) {
		return nil
	}
	return user
}

func (s *UserService) GetUser(id int) (*model.User, error) {
	user := &model.User{}
	err := database.GetDB().First(user, id).Error
	if database.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUserByEmail(email string) (*model.User, error) {
	user := &model.User{}
	err := database.GetDB().
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GenerateConfirmationToken signs a token for user. A non-positive ttl uses the
// configured confirmation lifetime.
func (s *UserService) GenerateConfirmationToken(user *model.User, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ConfirmationTTL
	}
	return s.signer.Sign(user.Id, ttl)
}

// Confirm marks user as confirmed when tok is a valid, unexpired token issued for this
// user. It returns false for any other token.
func (s *UserService) Confirm(user *model.User, tok string) bool {
	id, err := s.signer.Verify(tok)
	if err != nil {
		logger.Debug("confirmation rejected: ", err)
		return false
	}
	if id != user.Id {
		return false
	}
	err = database.GetDB().Model(model.User{}).
		Where("id = ?", user.Id).
		Update("confirmed", true).
		Error
	if err != nil {
		logger.Warning("confirm user err:", err)
		return false
	}
	user.Confirmed = true
	return true
}

// Upvote records the user's upvote on question unless it already exists. Unconfirmed
// users can not vote.
func (s *UserService) Upvote(user *model.User, question *model.Question) error {
	if !user.Confirmed {
		return ErrNotConfirmed
	}
	if s.HasUpvotedQuestion(user, question) {
		return nil
	}
	upvote := &model.Upvote{UserId: user.Id, QuestionId: question.Id}
	// a concurrent upvote of the same pair hits the unique index and is ignored
	return database.GetDB().Clauses(clause.OnConflict{DoNothing: true}).Create(upvote).Error
}

// Downvote removes the user's upvote on question if there is one.
func (s *UserService) Downvote(user *model.User, question *model.Question) error {
	if !s.HasUpvotedQuestion(user, question) {
		return nil
	}
	return database.GetDB().
		Where("user_id = ? AND question_id = ?", user.Id, question.Id).
		Delete(&model.Upvote{}).
		Error
}

func (s *UserService) HasUpvotedQuestion(user *model.User, question *model.Question) bool {
	var count int64
	err := database.GetDB().Model(model.Upvote{}).
		Where("user_id = ? AND question_id = ?", user.Id, question.Id).
		Count(&count).
		Error
	if err != nil {
		logger.Warning("count upvotes err:", err)
		return false
	}
	return count > 0
}

// SetAdmin grants or revokes the admin flag of the account with email.
func (s *UserService) SetAdmin(email string, isAdmin bool) error {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		return err
	}
	return database.GetDB().Model(user).Update("is_admin", isAdmin).Error
}
