package enums

type Role string

const (
	RoleLeader Role = "leader"
	RoleMember Role = "member"
)
