package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/studyhub-auth/internal/repository/common"
)

func TestConflictField(t *testing.T) {
	assert.Equal(t, "email", conflictField("accounts_email_key"))
	assert.Equal(t, "username", conflictField("accounts_username_key"))
	assert.Equal(t, "username", conflictField(""))
}

func TestErrAccountExists_IsAlreadyExists(t *testing.T) {
	var err error = &ErrAccountExists{Field: "email"}

	assert.True(t, errors.Is(err, common.ErrAlreadyExists))
	assert.Contains(t, err.Error(), "email")

	var target *ErrAccountExists
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, "email", target.Field)
}
