package group

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a member's role within a group
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleAdmin, RoleOwner:
		return true
	}
	return false
}

// CanManage reports whether r may manage the group's members and settings
func (r Role) CanManage() bool {
	return r == RoleAdmin || r == RoleOwner
}

// Group represents a small group. Inactive groups are soft-deleted.
type Group struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Category    string    `db:"category"`
	Schedule    *string   `db:"schedule"`
	CreatedBy   uuid.UUID `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
	IsActive    bool      `db:"is_active"`
}

// Summary is a group annotated with its live member count and the caller's membership
type Summary struct {
	Group
	MembersCount int  `db:"members_count"`
	IsJoined     bool `db:"is_joined"`
}

// Member represents a user's membership in a group
type Member struct {
	GroupID  uuid.UUID `db:"group_id"`
	UserID   uuid.UUID `db:"user_id"`
	Role     Role      `db:"role"`
	JoinedAt time.Time `db:"joined_at"`
}

// ListParams filters and pages a group listing
type ListParams struct {
	Category string
	Limit    int
	Offset   int
}
