package rbac

type Role string
type Action string

const (
	RoleViewer  Role = "viewer"
	RoleMember  Role = "member"
	RoleTriager Role = "triager"
	RoleAdmin   Role = "admin"
)

const (
	ActionRead    Action = "read"
	ActionComment Action = "comment"
	ActionTriage  Action = "triage"
	ActionAdmin   Action = "admin"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleTriager:
		return action == ActionRead || action == ActionComment || action == ActionTriage
	case RoleMember:
		return action == ActionRead || action == ActionComment
	case RoleViewer:
		return action == ActionRead
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleViewer, RoleMember, RoleTriager, RoleAdmin:
		return Role(role)
	default:
		return RoleViewer
	}
}
