package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type signupDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
	Username string `json:"username" validate:"required,username"`
}

type commentDTO struct {
	Content string `json:"content" validate:"required,max=10"`
	Type    string `json:"type" validate:"omitempty,oneof=info success"`
}

func TestStruct(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Struct(signupDTO{
		Email:    "ada@example.com",
		Password: "SecurePass12!@",
		Username: "ada_l",
	}))

	err := Struct(signupDTO{Email: "nope", Password: "short", Username: "ada"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "email must be a valid email")
		assert.Contains(t, err.Error(), "password must be at least 12 characters long")
	}

	err = Struct(signupDTO{})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "email is required")
		assert.Contains(t, err.Error(), "username is required")
	}

	err = Struct(commentDTO{Content: "this is far too long", Type: "bogus"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "content must be at most 10")
		assert.Contains(t, err.Error(), "type must be one of [info success]")
	}
}
