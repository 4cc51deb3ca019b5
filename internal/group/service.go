package group

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/fkhayef/fellowship/internal/profile"
	"github.com/fkhayef/fellowship/pkg/apperror"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Common errors
var (
	ErrGroupNotFound     = apperror.NotFound("Group not found")
	ErrMemberNotFound    = apperror.NotFound("Member not found")
	ErrNotMember         = apperror.NotFound("You are not a member of this group")
	ErrAlreadyMember     = apperror.Conflict("You are already a member of this group")
	ErrLastAdmin         = apperror.Conflict("You are the only admin of this group. Promote another member to admin before leaving.")
	ErrKeepOneAdmin      = apperror.Conflict("A group must keep at least one admin")
	ErrNotManager        = apperror.Forbidden("Only group admins can do this")
	ErrOwnerRequired     = apperror.Forbidden("Only a group owner can do this")
	ErrCannotRemoveOwner = apperror.Forbidden("An owner cannot be removed by another member")
	ErrRemoveSelf        = apperror.Validation("Use leave to remove yourself from a group")
	ErrMissingFields     = apperror.Validation("Name, description and category are required")
	ErrInvalidCategory   = apperror.Validation("Invalid category")
	ErrInvalidRole       = apperror.Validation("Role must be member, admin or owner")
)

// Store is the group persistence the service needs
type Store interface {
	Create(ctx context.Context, creatorID uuid.UUID, req *CreateGroupRequest) (*Group, error)
	GetSummary(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*Summary, error)
	List(ctx context.Context, params ListParams, viewer *uuid.UUID) ([]*Summary, int, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateGroupRequest) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	GetMember(ctx context.Context, groupID, userID uuid.UUID) (*Member, error)
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]*Member, error)
	AddMember(ctx context.Context, groupID, userID uuid.UUID, role Role) (*Member, error)
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
	RemoveLastMember(ctx context.Context, groupID, userID uuid.UUID) error
	CountMembers(ctx context.Context, groupID uuid.UUID, roles ...Role) (int, error)
	SetRole(ctx context.Context, groupID, userID uuid.UUID, role Role) (*Member, error)
	Transfer(ctx context.Context, groupID, from, to uuid.UUID, demote bool) error
}

// Activity is told when a manager changes someone's role
type Activity interface {
	RoleChanged(ctx context.Context, actorID, groupID, memberID uuid.UUID, role string)
}

// Service handles group and membership business logic
type Service struct {
	repo     Store
	authors  profile.Directory
	activity Activity
}

// NewService creates a new group service. activity may be nil.
func NewService(repo Store, authors profile.Directory, activity Activity) *Service {
	return &Service{repo: repo, authors: authors, activity: activity}
}

// Create creates a new group and adds the creator as admin
func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, req *CreateGroupRequest) (*GroupResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" || req.Description == "" || req.Category == "" {
		return nil, ErrMissingFields
	}
	if !IsValidCategory(req.Category) {
		return nil, ErrInvalidCategory.WithDetails("category must be one of: " + strings.Join(Categories, ", "))
	}
	req.Schedule = trimOptional(req.Schedule)

	g, err := s.repo.Create(ctx, creatorID, req)
	if err != nil {
		return nil, err
	}

	creator, err := s.author(ctx, g.CreatedBy)
	if err != nil {
		return nil, err
	}

	role := RoleAdmin
	resp := (&Summary{Group: *g, MembersCount: 1, IsJoined: true}).ToResponse(creator)
	resp.Role = &role
	return resp, nil
}

// List returns a page of active groups with live member counts
func (s *Service) List(ctx context.Context, params ListParams, viewer *uuid.UUID) (*ListResponse, error) {
	if params.Limit < 1 {
		params.Limit = defaultLimit
	}
	if params.Limit > maxLimit {
		params.Limit = maxLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	groups, total, err := s.repo.List(ctx, params, viewer)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(groups))
	for i, g := range groups {
		ids[i] = g.CreatedBy
	}
	creators, err := s.authors.Authors(ctx, ids)
	if err != nil {
		return nil, err
	}

	resp := &ListResponse{Groups: make([]*GroupResponse, len(groups)), TotalCount: total}
	for i, g := range groups {
		resp.Groups[i] = g.ToResponse(creators[g.CreatedBy])
	}
	return resp, nil
}

// Get returns a group with its members and the viewer's role
func (s *Service) Get(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*GroupResponse, error) {
	g, err := s.summary(ctx, id, viewer)
	if err != nil {
		return nil, err
	}

	members, err := s.repo.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(members)+1)
	ids = append(ids, g.CreatedBy)
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	authors, err := s.authors.Authors(ctx, ids)
	if err != nil {
		return nil, err
	}

	resp := g.ToResponse(authors[g.CreatedBy])
	resp.Members = make([]*MemberResponse, len(members))
	for i, m := range members {
		resp.Members[i] = m.ToResponse(authors[m.UserID])
		if viewer != nil && m.UserID == *viewer {
			role := m.Role
			resp.Role = &role
		}
	}
	return resp, nil
}

// Members lists the members of an active group
func (s *Service) Members(ctx context.Context, id uuid.UUID) ([]*MemberResponse, error) {
	resp, err := s.Get(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	return resp.Members, nil
}

// Update edits a group's details. The caller must be an admin or owner. A
// blank schedule clears it; an absent one leaves it unchanged.
func (s *Service) Update(ctx context.Context, callerID, id uuid.UUID, req *UpdateGroupRequest) (*GroupResponse, error) {
	if _, err := s.manager(ctx, callerID, id); err != nil {
		return nil, err
	}

	for _, field := range []*string{req.Name, req.Description, req.Category} {
		if field == nil {
			continue
		}
		*field = strings.TrimSpace(*field)
		if *field == "" {
			return nil, ErrMissingFields
		}
	}
	if req.Category != nil && !IsValidCategory(*req.Category) {
		return nil, ErrInvalidCategory
	}
	if req.Schedule != nil {
		schedule := strings.TrimSpace(*req.Schedule)
		req.Schedule = &schedule
	}

	if err := s.repo.Update(ctx, id, req); err != nil {
		return nil, err
	}
	return s.Get(ctx, id, &callerID)
}

// Delete soft-deletes a group. The caller must be an admin or owner.
func (s *Service) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	if _, err := s.manager(ctx, callerID, id); err != nil {
		return err
	}
	return s.repo.Deactivate(ctx, id)
}

// Join adds the caller to a group as a member
func (s *Service) Join(ctx context.Context, callerID, id uuid.UUID) (*MembershipResponse, error) {
	if _, err := s.summary(ctx, id, nil); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetMember(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	m, err := s.repo.AddMember(ctx, id, callerID, RoleMember)
	if err != nil {
		return nil, err
	}
	return s.membershipChanged(ctx, m)
}

// Leave removes the caller from a group. The only admin or owner cannot leave
// while other members remain. When the caller is the last member, the group
// is closed as well.
func (s *Service) Leave(ctx context.Context, callerID, id uuid.UUID) (*LeaveResponse, error) {
	if _, err := s.summary(ctx, id, nil); err != nil {
		return nil, err
	}

	m, err := s.repo.GetMember(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotMember
	}

	if m.Role.CanManage() {
		managers, err := s.repo.CountMembers(ctx, id, RoleAdmin, RoleOwner)
		if err != nil {
			return nil, err
		}
		if managers == 1 {
			total, err := s.repo.CountMembers(ctx, id)
			if err != nil {
				return nil, err
			}
			if total > 1 {
				return nil, ErrLastAdmin
			}
			if err := s.repo.RemoveLastMember(ctx, id, callerID); err != nil {
				return nil, err
			}
			return &LeaveResponse{Success: true, GroupClosed: true}, nil
		}
	}

	if err := s.repo.RemoveMember(ctx, id, callerID); err != nil {
		return nil, err
	}
	count, err := s.repo.CountMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	return &LeaveResponse{Success: true, MembersCount: count}, nil
}

// UpdateRole changes another member's role. Admins and owners may promote and
// demote; only an owner may grant or take away ownership. The last admin or
// owner cannot be demoted.
func (s *Service) UpdateRole(ctx context.Context, callerID, id, userID uuid.UUID, role Role) (*MembershipResponse, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	caller, err := s.manager(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	target, err := s.member(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if (role == RoleOwner || target.Role == RoleOwner) && caller.Role != RoleOwner {
		return nil, ErrOwnerRequired
	}
	if target.Role.CanManage() && !role.CanManage() {
		if err := s.keepsManager(ctx, id); err != nil {
			return nil, err
		}
	}

	m, err := s.repo.SetRole(ctx, id, userID, role)
	if err != nil {
		return nil, err
	}
	if target.Role != role {
		s.roleChanged(ctx, callerID, m)
	}
	return s.membershipChanged(ctx, m)
}

// RemoveMember removes another member from a group. The rules:
//   - admins and owners may remove plain members;
//   - removing an admin takes an owner;
//   - an owner can never be removed this way;
//   - the last admin or owner can never be removed.
//
// Admins may remove plain members because creators start as admin and a group
// only gains an owner through Transfer; an owner-only rule would leave new
// groups unable to remove anyone.
func (s *Service) RemoveMember(ctx context.Context, callerID, id, userID uuid.UUID) (*MembershipResponse, error) {
	if callerID == userID {
		return nil, ErrRemoveSelf
	}

	caller, err := s.manager(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	target, err := s.member(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	switch target.Role {
	case RoleOwner:
		return nil, ErrCannotRemoveOwner
	case RoleAdmin:
		if caller.Role != RoleOwner {
			return nil, ErrOwnerRequired
		}
		if err := s.keepsManager(ctx, id); err != nil {
			return nil, err
		}
	}

	if err := s.repo.RemoveMember(ctx, id, userID); err != nil {
		return nil, err
	}
	count, err := s.repo.CountMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	return &MembershipResponse{Success: true, MembersCount: count}, nil
}

// Transfer makes userID an owner. A caller who was owner becomes admin. An
// admin may only transfer while the group has no owner yet.
func (s *Service) Transfer(ctx context.Context, callerID, id, userID uuid.UUID) (*MembershipResponse, error) {
	if callerID == userID {
		return nil, ErrInvalidRole.WithDetails("ownership must go to another member")
	}

	caller, err := s.manager(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.member(ctx, id, userID); err != nil {
		return nil, err
	}

	if caller.Role != RoleOwner {
		owners, err := s.repo.CountMembers(ctx, id, RoleOwner)
		if err != nil {
			return nil, err
		}
		if owners > 0 {
			return nil, ErrOwnerRequired
		}
	}

	if err := s.repo.Transfer(ctx, id, callerID, userID, caller.Role == RoleOwner); err != nil {
		return nil, err
	}

	m, err := s.member(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	s.roleChanged(ctx, callerID, m)
	return s.membershipChanged(ctx, m)
}

func (s *Service) roleChanged(ctx context.Context, callerID uuid.UUID, m *Member) {
	if s.activity != nil {
		s.activity.RoleChanged(ctx, callerID, m.GroupID, m.UserID, string(m.Role))
	}
}

func (s *Service) summary(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*Summary, error) {
	g, err := s.repo.GetSummary(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

func (s *Service) member(ctx context.Context, id, userID uuid.UUID) (*Member, error) {
	m, err := s.repo.GetMember(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

// manager returns the caller's membership of an active group, requiring admin or owner
func (s *Service) manager(ctx context.Context, callerID, id uuid.UUID) (*Member, error) {
	if _, err := s.summary(ctx, id, nil); err != nil {
		return nil, err
	}
	m, err := s.repo.GetMember(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.Role.CanManage() {
		return nil, ErrNotManager
	}
	return m, nil
}

func (s *Service) keepsManager(ctx context.Context, id uuid.UUID) error {
	managers, err := s.repo.CountMembers(ctx, id, RoleAdmin, RoleOwner)
	if err != nil {
		return err
	}
	if managers <= 1 {
		return ErrKeepOneAdmin
	}
	return nil
}

func (s *Service) membershipChanged(ctx context.Context, m *Member) (*MembershipResponse, error) {
	count, err := s.repo.CountMembers(ctx, m.GroupID)
	if err != nil {
		return nil, err
	}
	author, err := s.author(ctx, m.UserID)
	if err != nil {
		return nil, err
	}
	return &MembershipResponse{Success: true, Member: m.ToResponse(author), MembersCount: count}, nil
}

func (s *Service) author(ctx context.Context, id uuid.UUID) (profile.Author, error) {
	authors, err := s.authors.Authors(ctx, []uuid.UUID{id})
	if err != nil {
		return profile.Author{}, err
	}
	return authors[id], nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
