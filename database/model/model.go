// Package model defines the gorm entities of askboard: users, their questions and
// answers, and the upvotes users give to questions.
package model

import (
	"time"

	"github.com/visioweb/askboard/util/common"
	"github.com/visioweb/askboard/util/crypto"
	"gorm.io/gorm"
)

// User is an account. It owns the questions and answers it wrote and the upvotes it gave.
// Only the bcrypt hash of the password is stored.
type User struct {
	Id           int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string `json:"username" gorm:"size:64;uniqueIndex"`
	Email        string `json:"email" gorm:"size:64;uniqueIndex"`
	PasswordHash string `json:"-" gorm:"size:128"`
	Confirmed    bool   `json:"confirmed" gorm:"default:false"`
	IsAdmin      bool   `json:"isAdmin" gorm:"default:false"`

	Questions []Question `json:"-" gorm:"foreignKey:AuthorId"`
	Answers   []Answer   `json:"-" gorm:"foreignKey:AuthorId"`
	Upvotes   []Upvote   `json:"-" gorm:"foreignKey:UserId"`
}

// SetPassword replaces the stored hash with the hash of password.
func (u *User) SetPassword(password string) error {
	if password == "" {
		return common.NewError("password can not be empty")
	}
	hash, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return crypto.CheckPasswordHash(u.PasswordHash, password)
}

// Question belongs to its author and owns its answers and upvotes; deleting a question
// deletes both. CorrectAnswer is nil until the author picks one of the answers.
type Question struct {
	Id              int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Title           string    `json:"title" gorm:"type:text"`
	Body            string    `json:"body" gorm:"type:text"`
	AuthorId        int       `json:"authorId" gorm:"index"`
	Author          *User     `json:"author,omitempty" gorm:"foreignKey:AuthorId"`
	Timestamp       time.Time `json:"timestamp" gorm:"index"`
	CorrectAnswerId *int      `json:"correctAnswerId"`
	// questions and answers reference each other, so this key is not migrated as a
	// constraint; the service layer keeps it pointing at an answer of this question.
	CorrectAnswer *Answer  `json:"correctAnswer,omitempty" gorm:"foreignKey:CorrectAnswerId;-:migration"`
	Answers       []Answer `json:"-" gorm:"foreignKey:QuestionId;constraint:OnDelete:CASCADE"`
	Upvotes       []Upvote `json:"-" gorm:"foreignKey:QuestionId;constraint:OnDelete:CASCADE"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.Timestamp.IsZero() {
		q.Timestamp = time.Now().UTC()
	}
	return nil
}

// HasCorrectAnswer reports whether the author marked one of the answers as correct.
func (q *Question) HasCorrectAnswer() bool {
	return q.CorrectAnswerId != nil
}

// Answer belongs to exactly one question.
type Answer struct {
	Id         int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Body       string    `json:"body" gorm:"type:text"`
	Timestamp  time.Time `json:"timestamp" gorm:"index"`
	AuthorId   int       `json:"authorId" gorm:"index"`
	Author     *User     `json:"author,omitempty" gorm:"foreignKey:AuthorId"`
	QuestionId int       `json:"questionId" gorm:"index;not null"`
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	return nil
}

// Upvote records that a user upvoted a question. There is at most one per pair.
type Upvote struct {
	Id         int   `json:"id" gorm:"primaryKey;autoIncrement"`
	UserId     int   `json:"userId" gorm:"uniqueIndex:idx_upvotes_user_question"`
	User       *User `json:"-" gorm:"foreignKey:UserId"`
	QuestionId int   `json:"questionId" gorm:"uniqueIndex:idx_upvotes_user_question;index"`
}
