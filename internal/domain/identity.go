package domain

import "fmt"

// Role tags the kind of caller behind a request.
type Role int

const (
	RoleAnonymous Role = iota
	RoleUser
	RoleSuperuser
)

func (r Role) String() string {
	switch r {
	case RoleAnonymous:
		return "anonymous"
	case RoleUser:
		return "user"
	case RoleSuperuser:
		return "superuser"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Identity is the resolved caller of a request. UserID is zero for anonymous
// callers.
type Identity struct {
	Role   Role
	UserID int64
}

// Anonymous returns the identity of an unauthenticated caller.
func Anonymous() Identity {
	return Identity{Role: RoleAnonymous}
}

// UserIdentity returns the identity of a regular authenticated customer.
func UserIdentity(id int64) Identity {
	return Identity{Role: RoleUser, UserID: id}
}

// SuperuserIdentity returns the identity of an administrator.
func SuperuserIdentity(id int64) Identity {
	return Identity{Role: RoleSuperuser, UserID: id}
}
