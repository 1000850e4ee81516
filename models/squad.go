package models

import "time"

type Squad struct {
	ID                    string        `json:"id"`
	Name                  string        `json:"name"`
	Description           string        `json:"description,omitempty"`
	MaxMembers            *int          `json:"max_members,omitempty"`
	County                string        `json:"county"`
	IsPublic              bool          `json:"is_public"`
	VoterRegistrationDate string        `json:"voter_registration_date,omitempty"`
	Owner                 string        `json:"owner,omitempty"`
	Members               []SquadMember `json:"members,omitempty"`
	MemberCount           int           `json:"member_count"`
	RegistrationProgress  float64       `json:"registration_progress"`
	RegistrationCenter    *Center       `json:"registration_center,omitempty"`
	RemainingSlots        *int          `json:"remaining_slots,omitempty"`
	CreatedAt             time.Time     `json:"created_at,omitempty"`
}

type SquadMember struct {
	ID            string    `json:"id"`
	User          string    `json:"user"`
	Role          string    `json:"role"`
	HasRegistered bool      `json:"has_registered"`
	JoinedAt      time.Time `json:"joined_at,omitempty"`
}

type SquadCreate struct {
	Name                  string     `json:"name" validate:"required,max=100"`
	Description           string     `json:"description,omitempty"`
	MaxMembers            *int       `json:"max_members,omitempty" validate:"omitempty,gt=0"`
	County                string     `json:"county" validate:"required"`
	IsPublic              bool       `json:"is_public"`
	VoterRegistrationDate string     `json:"voter_registration_date" validate:"required,datetime=2006-01-02"`
	RegistrationCenter    *CenterRef `json:"registration_center,omitempty"`
}

// CenterRef identifies a registration center by name and county when creating
// a squad; the backend resolves or creates the center.
type CenterRef struct {
	Name         string `json:"name" validate:"required"`
	County       string `json:"county" validate:"required"`
	Constituency string `json:"constituency,omitempty"`
	Ward         string `json:"ward,omitempty"`
	Address      string `json:"address,omitempty"`
}

type SquadFilter struct {
	County   string
	IsPublic *bool
	Search   string
	Page     int
}

// Membership is the caller's current squad membership.
type Membership struct {
	ID            string    `json:"id"`
	Squad         *Squad    `json:"squad,omitempty"`
	Role          string    `json:"role"`
	HasRegistered bool      `json:"has_registered"`
	JoinedAt      time.Time `json:"joined_at,omitempty"`
}

type JoinResult struct {
	Message    string      `json:"message"`
	Membership SquadMember `json:"membership"`
}

type SquadMessage struct {
	Message string `json:"message" validate:"required,max=1000"`
	Channel string `json:"channel,omitempty" validate:"omitempty,oneof=sms whatsapp"`
}

type LeaderboardEntry struct {
	County               string    `json:"county"`
	SquadName            string    `json:"squad_name"`
	MemberCount          int       `json:"member_count"`
	RegistrationProgress float64   `json:"registration_progress"`
	CreatedAt            time.Time `json:"created_at"`
}
