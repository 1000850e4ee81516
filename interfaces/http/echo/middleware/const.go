package middleware

const (
	Authorization  = "Authorization"
	TokenKey       = "requestToken"
	SessionUserKey = "sessionUser"
)
