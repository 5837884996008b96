package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/visioweb/askboard/config"
	"github.com/visioweb/askboard/database"
	"github.com/visioweb/askboard/database/model"
	"github.com/visioweb/askboard/web/entity"
)

func setup(t *testing.T) *config.Config {
	t.Helper()
	dbConfig := &config.DatabaseConfig{
		Type:   config.DatabaseTypeSQLite,
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	}
	require.NoError(t, database.InitDB(dbConfig))
	t.Cleanup(func() { _ = database.CloseDB() })

	return &config.Config{
		Env:              config.EnvDevelopment,
		SecretKey:        "test-secret",
		AdminEmail:       "admin@example.com",
		QuestionsPerPage: 2,
		AnswersPerPage:   2,
		ConfirmationTTL:  time.Hour,
		Database:         dbConfig,
	}
}

func mustUser(t *testing.T, cfg *config.Config, username string) *model.User {
	t.Helper()
	user, err := NewUserService(cfg).CreateUser(&entity.RegisterForm{
		Username: username,
		Email:    username + "@example.com",
		Password: "password-" + username,
	}, false)
	require.NoError(t, err)
	return user
}

func mustQuestion(t *testing.T, cfg *config.Config, author *model.User, title string) *model.Question {
	t.Helper()
	q, err := NewQuestionService(cfg).Create(author, &entity.QuestionForm{Title: title, Body: "body of " + title})
	require.NoError(t, err)
	return q
}
