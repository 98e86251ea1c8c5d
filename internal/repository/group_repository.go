package repository

import (
	"context"
	"database/sql"

	"github.com/pitchside/pitchside/internal/model"
)

// GroupRepo provides access to groups, group members and group
// invitations.  Membership is granted either at creation (the owner)
// or by accepting an invitation sent by an existing member.
type GroupRepo struct {
	db *sql.DB
}

// NewGroupRepo returns a new GroupRepo bound to the given database.
func NewGroupRepo(db *sql.DB) *GroupRepo { return &GroupRepo{db: db} }

// Create inserts a group and its owner as the first member inside one
// transaction.  Group names are unique per owner; a duplicate returns
// ErrConflict.
func (r *GroupRepo) Create(ctx context.Context, g *model.Group) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO groups (owner_id, name) VALUES (?, ?)`, g.OwnerID, g.Name)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id) VALUES (?, ?)`, g.ID, g.OwnerID); err != nil {
		return err
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT id, owner_id, name, created_at, updated_at FROM groups WHERE id = ?`, g.ID).
		Scan(&g.ID, &g.OwnerID, &g.Name, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID fetches a single group.  ErrGroupNotFound is returned when
// the id matches no row.
func (r *GroupRepo) GetByID(ctx context.Context, id uint64) (model.Group, error) {
	var g model.Group
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, created_at, updated_at FROM groups WHERE id = ? LIMIT 1`, id).
		Scan(&g.ID, &g.OwnerID, &g.Name, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Group{}, ErrGroupNotFound
	}
	if err != nil {
		return model.Group{}, err
	}
	return g, nil
}

// IsMember reports whether the user belongs to the group.
func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ? LIMIT 1`,
		groupID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByUser returns every group the user is a member of.
func (r *GroupRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Group, error) {
	const q = `SELECT g.id, g.owner_id, g.name, g.created_at, g.updated_at
               FROM groups g
               JOIN group_members m ON m.group_id = g.id
               WHERE m.user_id = ?
               ORDER BY g.name`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	groups := make([]model.Group, 0)
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

// MemberInfo is one group member joined with the user's display name.
type MemberInfo struct {
	UserID      uint64 `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// Members lists a group's members ordered by join time.
func (r *GroupRepo) Members(ctx context.Context, groupID uint64) ([]MemberInfo, error) {
	const q = `SELECT m.user_id, u.display_name
               FROM group_members m
               JOIN users u ON u.id = m.user_id
               WHERE m.group_id = ?
               ORDER BY m.joined_at`
	rows, err := r.db.QueryContext(ctx, q, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	members := make([]MemberInfo, 0)
	for rows.Next() {
		var m MemberInfo
		if err := rows.Scan(&m.UserID, &m.DisplayName); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

// CreateInvite records a pending invitation of a user into a group.
// The inviter must be a member (checked by the handler).  A second
// pending invite for the same user and group, or inviting an existing
// member, returns ErrAlreadyJoined.
func (r *GroupRepo) CreateInvite(ctx context.Context, inv *model.GroupInvite) error {
	member, err := r.IsMember(ctx, inv.GroupID, inv.UserID)
	if err != nil {
		return err
	}
	if member {
		return ErrAlreadyJoined
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO group_invites (group_id, user_id, inviter_id, status) VALUES (?, ?, ?, ?)`,
		inv.GroupID, inv.UserID, inv.InviterID, model.InviteStatusPending)
	if err != nil {
		if isDuplicate(err) {
			return ErrAlreadyJoined
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	inv.Status = model.InviteStatusPending
	return nil
}

// RespondInvite answers a pending invitation on behalf of the invited
// user.  Accepting inserts the membership row in the same
// transaction.  Answering an invite that is not pending, or one
// addressed to another user, returns ErrConflict / ErrForbidden.
func (r *GroupRepo) RespondInvite(ctx context.Context, inviteID, userID uint64, accept bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const sel = `SELECT group_id, user_id, status FROM group_invites WHERE id = ? FOR UPDATE`
	var groupID, invitedID uint64
	var status string
	err = tx.QueryRowContext(ctx, sel, inviteID).Scan(&groupID, &invitedID, &status)
	if err == sql.ErrNoRows {
		return ErrGroupNotFound
	}
	if err != nil {
		return err
	}
	if invitedID != userID {
		return ErrForbidden
	}
	if status != model.InviteStatusPending {
		return ErrConflict
	}

	next := model.InviteStatusDeclined
	if accept {
		next = model.InviteStatusAccepted
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE group_invites SET status = ? WHERE id = ?`, next, inviteID); err != nil {
		return err
	}
	if accept {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, user_id) VALUES (?, ?)`, groupID, userID); err != nil {
			if isDuplicate(err) {
				return ErrAlreadyJoined
			}
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// InviteDetail is a pending invitation joined with group and inviter
// names, shown on the invited user's notifications screen.
type InviteDetail struct {
	ID          uint64 `json:"id"`
	GroupID     uint64 `json:"group_id"`
	GroupName   string `json:"group_name"`
	InviterID   uint64 `json:"inviter_id"`
	InviterName string `json:"inviter_name"`
	Status      string `json:"status"`
}

// ListInvitesForUser returns the user's pending invitations.
func (r *GroupRepo) ListInvitesForUser(ctx context.Context, userID uint64) ([]InviteDetail, error) {
	const q = `SELECT i.id, i.group_id, g.name, i.inviter_id, u.display_name, i.status
               FROM group_invites i
               JOIN groups g ON g.id = i.group_id
               JOIN users u ON u.id = i.inviter_id
               WHERE i.user_id = ? AND i.status = 'pending'
               ORDER BY i.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	invites := make([]InviteDetail, 0)
	for rows.Next() {
		var d InviteDetail
		if err := rows.Scan(&d.ID, &d.GroupID, &d.GroupName, &d.InviterID, &d.InviterName, &d.Status); err != nil {
			return nil, err
		}
		invites = append(invites, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invites, nil
}
