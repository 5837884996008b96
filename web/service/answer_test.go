package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visioweb/askboard/database"
	"github.com/visioweb/askboard/database/model"
	"github.com/visioweb/askboard/web/entity"
)

func TestCreateAnswer(t *testing.T) {
	cfg := setup(t)
	s := NewAnswerService(cfg)
	author := mustUser(t, cfg, "ann")
	q := mustQuestion(t, cfg, author, "q")

	a, err := s.Create(author, q.Id, &entity.AnswerForm{Body: " yes "})
	require.NoError(t, err)
	assert.Equal(t, "yes", a.Body)
	assert.Equal(t, q.Id, a.QuestionId)
	assert.False(t, a.Timestamp.IsZero())

	_, err = s.Create(author, 999, &entity.AnswerForm{Body: "orphan"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Create(author, q.Id, &entity.AnswerForm{})
	var formErr *entity.FormError
	assert.ErrorAs(t, err, &formErr)
}

func TestListAnswersOldestFirst(t *testing.T) {
	cfg := setup(t)
	s := NewAnswerService(cfg)
	author := mustUser(t, cfg, "ann")
	q := mustQuestion(t, cfg, author, "q")
	other := mustQuestion(t, cfg, author, "other")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, body := range []string{"first", "second", "third"} {
		a := &model.Answer{Body: body, AuthorId: author.Id, QuestionId: q.Id, Timestamp: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, database.GetDB().Create(a).Error)
	}
	_, err := s.Create(author, other.Id, &entity.AnswerForm{Body: "elsewhere"})
	require.NoError(t, err)

	page, err := s.ListForQuestion(q.Id, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "first", page.Items[0].Body)
	assert.Equal(t, "second", page.Items[1].Body)
	require.NotNil(t, page.Items[0].Author)

	page, err = s.ListForQuestion(q.Id, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "third", page.Items[0].Body)
	assert.False(t, page.HasNext)
}

func TestDeleteAnswerClearsCorrectAnswer(t *testing.T) {
	cfg := setup(t)
	s := NewAnswerService(cfg)
	questions := NewQuestionService(cfg)
	author := mustUser(t, cfg, "ann")
	helper := mustUser(t, cfg, "bob")
	q := mustQuestion(t, cfg, author, "q")

	a, err := s.Create(helper, q.Id, &entity.AnswerForm{Body: "accepted"})
	require.NoError(t, err)
	require.NoError(t, questions.SetCorrectAnswer(q.Id, a.Id, author))

	assert.ErrorIs(t, s.Delete(a.Id, author), ErrForbidden)
	require.NoError(t, s.Delete(a.Id, helper))

	got, err := questions.Get(q.Id)
	require.NoError(t, err)
	assert.False(t, got.HasCorrectAnswer())
	assert.ErrorIs(t, s.Delete(a.Id, helper), ErrNotFound)
}
