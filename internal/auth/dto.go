package auth

import "strings"

// LoginDTO accepts a username, email address or phone number in the
// Username field; the service routes the lookup by shape.
type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Nickname string `json:"nickname,omitempty"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutDTO optionally carries the refresh token so it can be blacklisted
// together with the access token.
type LogoutDTO struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d LoginDTO) Validate() error {
	if d.Username == "" {
		return ValidationError{Msg: "username is required"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

func (d RegisterDTO) Validate() error {
	if d.Username == "" {
		return ValidationError{Msg: "username is required"}
	}
	if len(d.Password) < 6 {
		return ValidationError{Msg: "password must be at least 6 characters"}
	}
	if d.Email == "" || !strings.Contains(d.Email, "@") {
		return ValidationError{Msg: "a valid email is required"}
	}
	if d.Phone != "" && !IsPhone(d.Phone) {
		return ValidationError{Msg: "phone number is not valid"}
	}
	return nil
}

func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return ValidationError{Msg: "refresh_token is required"}
	}
	return nil
}
