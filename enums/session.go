package enums

// Session lifecycle event names.
const (
	SessionEventLogin          = "login"
	SessionEventRenewed        = "renewed"
	SessionEventExpired        = "expired"
	SessionEventLogout         = "logout"
	SessionEventProfileUpdated = "profile_updated"
)

// Session storage backends.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)
