package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/tmaswali/shule/core"
	"github.com/tmaswali/shule/core/user"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
		Role     string `json:"role" validate:"required,allroles"`
	}

	LoginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	ChangePasswordRequest struct {
		Password string `json:"password" validate:"required"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (r *LoginRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.Role = core.CleanString(r.Role, true /* lower */)
	return validate.Struct(r)
}

func (r *ChangePasswordRequest) Validate(validate *validator.Validate, usrAttrs ...string) error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if tag := user.CheckPasswordPolicy(r.Password, usrAttrs...); tag != "" {
		return core.NewValidationError(nil, core.FieldError{
			Field: "password",
			Error: user.PasswordPolicyText(tag),
		})
	}
	return nil
}
