package models

import "time"

// User is the session snapshot of the signed-in profile. It is display data
// only and may be stale.
type User struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Email       string    `json:"email,omitempty"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	County      string    `json:"county,omitempty"`
	ProfilePic  string    `json:"profile_pic,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

func (u User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.PhoneNumber
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}

type ProfileUpdate struct {
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	County     *string `json:"county,omitempty"`
	ProfilePic *string `json:"profile_pic,omitempty"`
}
