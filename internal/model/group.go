package model

import "time"

// Group invitation status values.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
)

// Group represents a circle of players who organize private matches
// together.  Each group has one owner; other users become members by
// accepting an invitation.  This struct corresponds to a row in the
// `groups` table.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – user who created the group.
//  Name      – unique group name per owner.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Group struct {
	ID        uint64    // groups.id
	OwnerID   uint64    // groups.owner_id
	Name      string    // groups.name
	CreatedAt time.Time // groups.created_at
	UpdatedAt time.Time // groups.updated_at
}

// GroupMember links a user to a group.  The pair (GroupID, UserID) is
// unique.  The owner is inserted as the first member on creation.
//
// Fields:
//  ID       – primary key identifier.
//  GroupID  – group the user belongs to.
//  UserID   – member user.
//  JoinedAt – when the membership was created.
type GroupMember struct {
	ID       uint64    // group_members.id
	GroupID  uint64    // group_members.group_id
	UserID   uint64    // group_members.user_id
	JoinedAt time.Time // group_members.joined_at
}

// GroupInvite records a pending, accepted or declined invitation of a
// user into a group.  Accepting an invite creates the corresponding
// GroupMember row.
//
// Fields:
//  ID        – primary key identifier.
//  GroupID   – group the user is invited to.
//  UserID    – invited user.
//  InviterID – member who sent the invitation.
//  Status    – pending, accepted or declined.
//  CreatedAt – when the invite was sent.
//  UpdatedAt – when the invite was answered.
type GroupInvite struct {
	ID        uint64    // group_invites.id
	GroupID   uint64    // group_invites.group_id
	UserID    uint64    // group_invites.user_id
	InviterID uint64    // group_invites.inviter_id
	Status    string    // group_invites.status
	CreatedAt time.Time // group_invites.created_at
	UpdatedAt time.Time // group_invites.updated_at
}
