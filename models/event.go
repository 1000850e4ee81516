package models

import "time"

type Event struct {
	ID           string         `json:"id"`
	Squad        string         `json:"squad"`
	Center       string         `json:"center"`
	Datetime     time.Time      `json:"datetime"`
	MeetingPoint string         `json:"meeting_point,omitempty"`
	Note         string         `json:"note,omitempty"`
	CreatedAt    time.Time      `json:"created_at,omitempty"`
	RSVPCounts   map[string]int `json:"rsvp_counts,omitempty"`
}

type EventCreate struct {
	Squad        string    `json:"squad" validate:"required"`
	Center       string    `json:"center" validate:"required"`
	Datetime     time.Time `json:"datetime" validate:"required"`
	MeetingPoint string    `json:"meeting_point,omitempty"`
	Note         string    `json:"note,omitempty"`
}

type EventFilter struct {
	Squad  string
	Center string
	Page   int
}

type RSVP struct {
	ID          string    `json:"id"`
	Event       string    `json:"event"`
	User        string    `json:"user"`
	Status      string    `json:"status"`
	RespondedAt time.Time `json:"responded_at,omitempty"`
}

type RSVPResult struct {
	Message string `json:"message"`
	RSVP    RSVP   `json:"rsvp"`
}
