package enums

const (
	InviteChannelWhatsApp = "whatsapp"
	InviteChannelSMS      = "sms"
)

const (
	InviteStatusSent      = "sent"
	InviteStatusDelivered = "delivered"
	InviteStatusFailed    = "failed"
)
