package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pitchside/pitchside/internal/model"
	"github.com/pitchside/pitchside/internal/queue"
	"github.com/pitchside/pitchside/internal/repository"
	queue_publisher "github.com/pitchside/pitchside/internal/service"
)

// GroupHandler serves player groups and their invitations. Users are
// invited by email; the invited player answers from their invite list.
type GroupHandler struct {
	Groups *repository.GroupRepo
	Users  *repository.UserRepo
}

func NewGroupHandler(g *repository.GroupRepo, u *repository.UserRepo) *GroupHandler {
	return &GroupHandler{Groups: g, Users: u}
}

type createGroupReq struct {
	Name string `json:"name"`
}

type groupResp struct {
	ID        uint64 `json:"id"`
	OwnerID   uint64 `json:"owner_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func toGroupResp(g model.Group) groupResp {
	return groupResp{
		ID:        g.ID,
		OwnerID:   g.OwnerID,
		Name:      g.Name,
		CreatedAt: g.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Create starts a group with the caller as owner and first member.
func (h *GroupHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createGroupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g := model.Group{OwnerID: uid, Name: req.Name}
	if err := h.Groups.Create(ctx, &g); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "group name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create group failed"})
	}
	return c.JSON(http.StatusCreated, toGroupResp(g))
}

// ListMine returns the groups the caller belongs to.
func (h *GroupHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	groups, err := h.Groups.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]groupResp, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResp(g))
	}
	return c.JSON(http.StatusOK, echo.Map{"groups": out})
}

// GetByID returns a group with its member list. Members only.
func (h *GroupHandler) GetByID(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrGroupNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "group not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	member, err := h.Groups.IsMember(ctx, id, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !member {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "group not found"})
	}
	members, err := h.Groups.Members(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"group":   toGroupResp(g),
		"members": members,
	})
}

type inviteReq struct {
	Email string `json:"email"`
}

// Invite adds a pending invitation for the user behind the given
// email. Any member may invite. The invited player is notified through
// the broker.
func (h *GroupHandler) Invite(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group id"})
	}
	var req inviteReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		if err == repository.ErrGroupNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "group not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	member, err := h.Groups.IsMember(ctx, groupID, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !member {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a member of the group"})
	}

	invited, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no user with that email"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if invited.ID == uid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot invite yourself"})
	}

	inv := model.GroupInvite{GroupID: groupID, UserID: invited.ID, InviterID: uid}
	if err := h.Groups.CreateInvite(ctx, &inv); err != nil {
		if err == repository.ErrAlreadyJoined {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already a member or already invited"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create invite failed"})
	}

	gid := groupID
	_ = queue_publisher.PublishMatchNotification(ctx, queue.MatchNotificationEvent{
		Kind:       model.NotificationInvite,
		Message:    fmt.Sprintf("you were invited to join %q", g.Name),
		Recipients: []uint64{invited.ID},
		GroupID:    &gid,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"invite_id": inv.ID,
		"group_id":  inv.GroupID,
		"user_id":   inv.UserID,
		"status":    inv.Status,
	})
}

type respondReq struct {
	Accept bool `json:"accept"`
}

// Respond answers a pending invitation addressed to the caller.
// Accepting joins the group in the same transaction as the status
// change.
func (h *GroupHandler) Respond(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	inviteID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invite id"})
	}
	var req respondReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Groups.RespondInvite(ctx, inviteID, uid, req.Accept); err != nil {
		switch err {
		case repository.ErrGroupNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "invite belongs to another user"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "invite already answered"})
		case repository.ErrAlreadyJoined:
			return c.JSON(http.StatusConflict, echo.Map{"error": "already a member"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "respond failed"})
		}
	}
	status := "declined"
	if req.Accept {
		status = "accepted"
	}
	return c.JSON(http.StatusOK, echo.Map{"invite_id": inviteID, "status": status})
}

// ListInvites returns the caller's pending invitations.
func (h *GroupHandler) ListInvites(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	invites, err := h.Groups.ListInvitesForUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"invites": invites})
}
