package prompt

import (
	"errors"

	"github.com/manifoldco/promptui"

	"github.com/marmos91/aliasd/pkg/models"
)

// ErrPasswordMismatch indicates passwords don't match.
var ErrPasswordMismatch = errors.New("passwords do not match")

// Password prompts for a masked password.
func Password(label string) (string, error) {
	return password(label, nil)
}

// NewPassword prompts for a password twice. The first entry must satisfy
// models.ValidatePassword.
func NewPassword() (string, error) {
	pw, err := password("Password", models.ValidatePassword)
	if err != nil {
		return "", err
	}

	confirm, err := password("Confirm password", nil)
	if err != nil {
		return "", err
	}

	if pw != confirm {
		return "", ErrPasswordMismatch
	}
	return pw, nil
}

func password(label string, validate promptui.ValidateFunc) (string, error) {
	p := promptui.Prompt{
		Label:    label,
		Mask:     '*',
		Validate: validate,
	}
	result, err := p.Run()
	return result, wrapError(err)
}
