package service

import (
	"net/mail"
	"strings"

	"github.com/samber/oops"

	"github.com/dtroode/authd/internal/model"
)

const maxEmailLength = 254

// NormalizeEmail trims and lower-cases an email address and rejects
// anything that is not a bare addr-spec.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(email) > maxEmailLength {
		return "", invalidEmail()
	}

	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email {
		return "", invalidEmail()
	}

	return email, nil
}

func invalidEmail() error {
	return oops.Code("AUTH_INVALID_EMAIL").Wrap(model.ErrInvalidEmail)
}
