package enums

const (
	SquadResource  = "squads"
	CenterResource = "centers"
	EventResource  = "events"
	InviteResource = "invites"
	AuthResource   = "auth"
)
