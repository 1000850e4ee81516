package models

import "time"

type Invite struct {
	ID             string     `json:"id"`
	Event          string     `json:"event,omitempty"`
	Squad          string     `json:"squad,omitempty"`
	Inviter        string     `json:"inviter,omitempty"`
	InviteeContact string     `json:"invitee_contact"`
	Channel        string     `json:"channel"`
	Status         string     `json:"status"`
	Message        string     `json:"message,omitempty"`
	SentAt         time.Time  `json:"sent_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
}

type InviteCreate struct {
	Event          string `json:"event,omitempty" validate:"required_without=Squad"`
	Squad          string `json:"squad,omitempty" validate:"required_without=Event"`
	InviteeContact string `json:"invitee_contact" validate:"required,max=15"`
	Channel        string `json:"channel" validate:"required,oneof=whatsapp sms"`
	Message        string `json:"message,omitempty"`
}

// WhatsAppInvite targets exactly one of a squad or an event.
type WhatsAppInvite struct {
	SquadID      string   `json:"squad_id,omitempty" validate:"required_without=EventID,excluded_with=EventID"`
	EventID      string   `json:"event_id,omitempty" validate:"required_without=SquadID,excluded_with=SquadID"`
	PhoneNumbers []string `json:"phone_numbers" validate:"required,min=1,dive,required,max=15"`
}

type BulkInvite struct {
	SquadID      string   `json:"squad_id,omitempty" validate:"required_without=EventID"`
	EventID      string   `json:"event_id,omitempty" validate:"required_without=SquadID"`
	Channel      string   `json:"channel" validate:"required,oneof=whatsapp sms"`
	PhoneNumbers []string `json:"phone_numbers" validate:"required,min=1,dive,required,max=15"`
	Message      string   `json:"message,omitempty"`
}

// InviteBatch is the response of the WhatsApp and bulk invite endpoints.
type InviteBatch struct {
	Message string   `json:"message"`
	Invites []Invite `json:"invites"`
	Links   []string `json:"whatsapp_links,omitempty"`
}
