package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,pwd"`
	Phone    string `json:"phone_number" validate:"omitempty,phone"`
	First    string `json:"first_name" validate:"required,name"`
}

func TestToDetails(t *testing.T) {
	v := validator.New()
	Configure(v)

	err := v.Struct(signup{Email: "nope", Password: "short", Phone: "0612", First: ""})
	details := ToDetails(err)

	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be between 8 and 72 characters", details["password"])
	assert.Equal(t, "must be a valid phone number in E.164 format", details["phone_number"])
	assert.Equal(t, "is required", details["first_name"])
}

func TestToDetailsPayloadErrors(t *testing.T) {
	assert.Nil(t, ToDetails(nil))

	var dst map[string]any
	err := json.Unmarshal([]byte("{"), &dst)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	assert.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(errors.New("eof")))
}
