package models

import "time"

// Credentials is the access/refresh token pair issued at login.
type Credentials struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Complete reports whether both tokens are present.
func (c Credentials) Complete() bool {
	return c.Access != "" && c.Refresh != ""
}

// Empty reports whether neither token is present.
func (c Credentials) Empty() bool {
	return c.Access == "" && c.Refresh == ""
}

// Partial reports the invalid state where only one of the tokens is stored.
func (c Credentials) Partial() bool {
	return !c.Complete() && !c.Empty()
}

type OTPChallenge struct {
	Message     string `json:"message"`
	PhoneNumber string `json:"phone_number"`
	OTP         string `json:"otp,omitempty"`
	UserCreated bool   `json:"user_created"`
}

type LoginResult struct {
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

func (r LoginResult) Credentials() Credentials {
	return Credentials{Access: r.AccessToken, Refresh: r.RefreshToken}
}

// RefreshResult is the token-refresh response. Refresh is only set when the
// backend rotates refresh tokens.
type RefreshResult struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// SessionEvent describes a change in the client session lifecycle.
type SessionEvent struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
	UserID     string    `json:"user_id,omitempty"`
}

// Message is the generic acknowledgement body most mutating endpoints return.
type Message struct {
	Message string `json:"message"`
}
