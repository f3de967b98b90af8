package auth

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	maxUsernameLen = 64
	// maxEmailLen is the RFC 5321 path limit, in bytes.
	maxEmailLen = 254
)

// RegisterInput is the registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

func (s *Service) validateRegister(in RegisterInput) (RegisterInput, error) {
	out := RegisterInput{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.TrimSpace(in.Email),
		Password: in.Password,
	}

	if out.Username == "" {
		return RegisterInput{}, ValidationError{Field: "username", Reason: "can't be blank"}
	}
	if utf8.RuneCountInString(out.Username) > maxUsernameLen {
		return RegisterInput{}, ValidationError{Field: "username", Reason: "is too long"}
	}
	if strings.ContainsAny(out.Username, " \t\r\n/") {
		return RegisterInput{}, ValidationError{Field: "username", Reason: "is invalid"}
	}

	if out.Email == "" {
		return RegisterInput{}, ValidationError{Field: "email", Reason: "can't be blank"}
	}
	if len(out.Email) > maxEmailLen {
		return RegisterInput{}, ValidationError{Field: "email", Reason: "is too long"}
	}
	if !validEmail(out.Email) {
		return RegisterInput{}, ValidationError{Field: "email", Reason: "is invalid"}
	}

	n := utf8.RuneCountInString(out.Password)
	if n == 0 {
		return RegisterInput{}, ValidationError{Field: "password", Reason: "can't be blank"}
	}
	if n < s.pwMin {
		return RegisterInput{}, ValidationError{Field: "password", Reason: "is too short"}
	}
	if s.pwMax > 0 && n > s.pwMax {
		return RegisterInput{}, ValidationError{Field: "password", Reason: "is too long"}
	}

	return out, nil
}

func validateLogin(email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ValidationError{Field: "email", Reason: "can't be blank"}
	}
	if password == "" {
		return "", ValidationError{Field: "password", Reason: "can't be blank"}
	}
	return email, nil
}

// validEmail accepts a bare addr-spec; display names and angle brackets are rejected.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s && strings.Contains(s[strings.LastIndexByte(s, '@')+1:], ".")
}
