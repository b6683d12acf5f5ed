package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dtroode/authd/internal/model"
)

func TestPasswordPolicy_Validate(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "strong", password: "Str0ngP@ss"},
		{name: "three classes", password: "lowerUPPER123"},
		{name: "unicode letters count", password: "Пароль123x"},
		{name: "too short", password: "S0r@t", wantErr: true},
		{name: "too long", password: "Aa1!" + strings.Repeat("x", 125), wantErr: true},
		{name: "only lower", password: "alllowercase", wantErr: true},
		{name: "two classes", password: "lowercase123", wantErr: true},
		{name: "empty", password: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DefaultPasswordPolicy.Validate(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrWeakPassword)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPasswordPolicy_Boundaries(t *testing.T) {
	p := PasswordPolicy{MinLength: 8, MaxLength: 10, MinClasses: 1}

	assert.Error(t, p.Validate("aaaaaaa"))
	assert.NoError(t, p.Validate("aaaaaaaa"))
	assert.NoError(t, p.Validate("aaaaaaaaaa"))
	assert.Error(t, p.Validate("aaaaaaaaaaa"))
}
