package auth

import "errors"

type credentialsDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

var (
	errEmailTaken         = errors.New("Email already registered")
	errInvalidCredentials = errors.New("Invalid email or password")
)
