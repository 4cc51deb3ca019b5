package group

import (
	"github.com/google/uuid"

	"github.com/fkhayef/fellowship/internal/profile"
)

// CreateGroupRequest represents the request to create a new group
type CreateGroupRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Schedule    *string `json:"schedule,omitempty"`
}

// UpdateGroupRequest represents the request to update a group
type UpdateGroupRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Schedule    *string `json:"schedule,omitempty"`
}

// UpdateRoleRequest represents the request to change a member's role
type UpdateRoleRequest struct {
	Role Role `json:"role"`
}

// TransferRequest names the member who becomes owner
type TransferRequest struct {
	UserID uuid.UUID `json:"userId"`
}

// GroupResponse represents the response for a group
type GroupResponse struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Category     string            `json:"category"`
	Schedule     *string           `json:"schedule"`
	CreatedAt    string            `json:"createdAt"`
	MembersCount int               `json:"membersCount"`
	IsJoined     bool              `json:"isJoined"`
	Creator      profile.Author    `json:"creator"`
	Role         *Role             `json:"role,omitempty"`
	Members      []*MemberResponse `json:"members,omitempty"`
}

// MemberResponse represents a member in a group response
type MemberResponse struct {
	UserID   uuid.UUID      `json:"userId"`
	Role     Role           `json:"role"`
	JoinedAt string         `json:"joinedAt"`
	Profile  profile.Author `json:"profile"`
}

// ListResponse is a page of groups
type ListResponse struct {
	Groups     []*GroupResponse `json:"groups"`
	TotalCount int              `json:"totalCount"`
}

// CreateResponse is returned after creating a group
type CreateResponse struct {
	Success bool           `json:"success"`
	Group   *GroupResponse `json:"group"`
}

// MembershipResponse is returned after a membership changes
type MembershipResponse struct {
	Success      bool            `json:"success"`
	Member       *MemberResponse `json:"member,omitempty"`
	MembersCount int             `json:"membersCount"`
}

// LeaveResponse is returned after leaving a group. GroupClosed is set when
// the caller was the last member and the group was deactivated.
type LeaveResponse struct {
	Success      bool `json:"success"`
	GroupClosed  bool `json:"groupClosed"`
	MembersCount int  `json:"membersCount"`
}

// ToResponse converts a Summary to a GroupResponse DTO
func (s *Summary) ToResponse(creator profile.Author) *GroupResponse {
	return &GroupResponse{
		ID:           s.ID,
		Name:         s.Name,
		Description:  s.Description,
		Category:     s.Category,
		Schedule:     s.Schedule,
		CreatedAt:    s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		MembersCount: s.MembersCount,
		IsJoined:     s.IsJoined,
		Creator:      creator,
	}
}

// ToResponse converts a Member model to a MemberResponse DTO
func (m *Member) ToResponse(author profile.Author) *MemberResponse {
	return &MemberResponse{
		UserID:   m.UserID,
		Role:     m.Role,
		JoinedAt: m.JoinedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Profile:  author,
	}
}
