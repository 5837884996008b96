package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPassword(t *testing.T) {
	u := &User{Username: "ann"}
	require.NoError(t, u.SetPassword("correct horse"))

	assert.NotEqual(t, "correct horse", u.PasswordHash)
	assert.True(t, u.CheckPassword("correct horse"))
	assert.False(t, u.CheckPassword("battery staple"))
	assert.False(t, u.CheckPassword(""))
}

func TestSetPasswordRejectsEmpty(t *testing.T) {
	u := &User{}
	assert.Error(t, u.SetPassword(""))
	assert.Empty(t, u.PasswordHash)
	assert.False(t, u.CheckPassword(""))
}

func TestSetPasswordSaltsEachHash(t *testing.T) {
	a, b := &User{}, &User{}
	require.NoError(t, a.SetPassword("same"))
	require.NoError(t, b.SetPassword("same"))
	assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
}

func TestHasCorrectAnswer(t *testing.T) {
	q := &Question{}
	assert.False(t, q.HasCorrectAnswer())
	id := 3
	q.CorrectAnswerId = &id
	assert.True(t, q.HasCorrectAnswer())
}
