package service

import (
	"unicode"
	"unicode/utf8"

	"github.com/samber/oops"

	"github.com/dtroode/authd/internal/model"
)

// PasswordPolicy describes the strength requirements for new passwords.
// MinClasses counts how many of lower case, upper case, digits and symbols
// must appear.
type PasswordPolicy struct {
	MinLength  int
	MaxLength  int
	MinClasses int
}

// DefaultPasswordPolicy is used when no policy is configured.
var DefaultPasswordPolicy = PasswordPolicy{
	MinLength:  8,
	MaxLength:  128,
	MinClasses: 3,
}

// Validate returns model.ErrWeakPassword when the password violates the policy.
func (p PasswordPolicy) Validate(password string) error {
	length := utf8.RuneCountInString(password)
	if length < p.MinLength {
		return weakPassword("too_short")
	}
	if p.MaxLength > 0 && length > p.MaxLength {
		return weakPassword("too_long")
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r), unicode.IsSpace(r):
			symbol = true
		}
	}

	classes := 0
	for _, present := range []bool{lower, upper, digit, symbol} {
		if present {
			classes++
		}
	}
	if classes < p.MinClasses {
		return weakPassword("too_few_character_classes")
	}

	return nil
}

func weakPassword(reason string) error {
	return oops.Code("AUTH_WEAK_PASSWORD").
		With("reason", reason).
		Wrap(model.ErrWeakPassword)
}
