package identity

import (
	"errors"
	"fmt"
	"net/mail"
	"unicode"
)

var ErrValidation = errors.New("validation failed")

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return nil
}

// validatePassword requires eight characters with upper, lower and digit.
func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must have at least 8 characters", ErrValidation)
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return fmt.Errorf("%w: password must contain an uppercase letter, a lowercase letter and a digit", ErrValidation)
	}
	return nil
}

func validateCode(code string) error {
	if len(code) != 6 {
		return fmt.Errorf("%w: code must have 6 characters", ErrValidation)
	}
	return nil
}

func (p SignUpParams) Validate() error {
	if len([]rune(p.Name)) < 2 {
		return fmt.Errorf("%w: name must have at least 2 characters", ErrValidation)
	}
	if err := validateEmail(p.Email); err != nil {
		return err
	}
	return validatePassword(p.Password)
}
