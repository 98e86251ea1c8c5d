package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pitchside/pitchside/internal/availability"
	"github.com/pitchside/pitchside/internal/cache"
	"github.com/pitchside/pitchside/internal/model"
	"github.com/pitchside/pitchside/internal/queue"
	"github.com/pitchside/pitchside/internal/repository"
	queue_publisher "github.com/pitchside/pitchside/internal/service"
)

// EventHandler serves event booking: creating an event on a free slot,
// browsing, joining and leaving, and the per-field availability grid.
type EventHandler struct {
	Events *repository.EventRepo
	Fields *cache.FieldCache
	Groups *repository.GroupRepo
}

func NewEventHandler(e *repository.EventRepo, f *cache.FieldCache, g *repository.GroupRepo) *EventHandler {
	return &EventHandler{Events: e, Fields: f, Groups: g}
}

// ----- availability -----

// Availability resolves the slot grid of a field for one calendar day.
// Query parameters:
//
//	date          – required, "2006-01-02"
//	selected      – optional slot label the client currently has chosen
//	exclude_event – optional event id left out of the booked set, used
//	                while editing so the event's own slot stays free
//
// Changing the date resets the selection: clients re-request with an
// empty selected, and a selected label that is booked stays booked.
func (h *EventHandler) Availability(c echo.Context) error {
	fieldID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid field id"})
	}
	date, err := availability.ParseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Fields.GetByID(ctx, fieldID); err != nil {
		if err == cache.ErrFieldNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "field not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	var excludeID uint64
	if raw := c.QueryParam("exclude_event"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exclude_event"})
		}
		excludeID = n
	}

	slots, err := h.Events.ListActiveSlots(ctx, fieldID, date, excludeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	grid := availability.Resolve(availability.BookedSet(slots), c.QueryParam("selected"))

	return c.JSON(http.StatusOK, echo.Map{
		"field_id": fieldID,
		"date":     date.Format("2006-01-02"),
		"slots":    grid,
	})
}

// ----- create / read -----

// eventResp is the JSON shape of a single event. Models carry no json
// tags, so handlers map them explicitly.
type eventResp struct {
	ID          uint64  `json:"id"`
	FieldID     uint64  `json:"field_id"`
	Date        string  `json:"date"`
	TimeSlot    string  `json:"time_slot"`
	Title       string  `json:"title"`
	OrganizerID uint64  `json:"organizer_id"`
	MaxPlayers  uint32  `json:"max_players"`
	IsPrivate   bool    `json:"is_private"`
	GroupID     *uint64 `json:"group_id,omitempty"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toEventResp(ev model.Event) eventResp {
	return eventResp{
		ID:          ev.ID,
		FieldID:     ev.FieldID,
		Date:        ev.Date.Format("2006-01-02"),
		TimeSlot:    ev.TimeSlot,
		Title:       ev.Title,
		OrganizerID: ev.OrganizerID,
		MaxPlayers:  ev.MaxPlayers,
		IsPrivate:   ev.IsPrivate,
		GroupID:     ev.GroupID,
		Status:      ev.Status,
		CreatedAt:   ev.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   ev.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type createEventReq struct {
	FieldID    uint64  `json:"field_id"`
	Date       string  `json:"date"`
	TimeSlot   string  `json:"time_slot"`
	Title      string  `json:"title"`
	MaxPlayers uint32  `json:"max_players"`
	IsPrivate  bool    `json:"is_private"`
	GroupID    *uint64 `json:"group_id"`
}

// Create books a slot. The slot label must belong to the canonical
// grid and the date must not lie in the past. The unique key on active
// events makes the database the final arbiter: losing a race for the
// slot answers 409 slot_taken.
func (h *EventHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.FieldID == 0 || req.Title == "" || req.MaxPlayers < 2 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "field_id, title and max_players (>= 2) required"})
	}
	if !availability.ValidSlot(req.TimeSlot) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time_slot is not on the grid"})
	}
	date, err := availability.ParseDate(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	if today := time.Now().UTC().Truncate(24 * time.Hour); date.Before(today) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date is in the past"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if f, err := h.Fields.GetByID(ctx, req.FieldID); err != nil {
		if err == cache.ErrFieldNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "field not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	} else if req.MaxPlayers > f.Capacity {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_players exceeds field capacity"})
	}

	if req.GroupID != nil {
		member, err := h.Groups.IsMember(ctx, *req.GroupID, uid)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if !member {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not a member of the group"})
		}
	}

	ev := model.Event{
		FieldID:     req.FieldID,
		Date:        date,
		TimeSlot:    req.TimeSlot,
		Title:       req.Title,
		OrganizerID: uid,
		MaxPlayers:  req.MaxPlayers,
		IsPrivate:   req.IsPrivate,
		GroupID:     req.GroupID,
	}
	if err := h.Events.Create(ctx, &ev); err != nil {
		if err == repository.ErrSlotTaken {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slot_taken"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, toEventResp(ev))
}

// GetByID returns one event with its participant list. Private events
// are visible to participants and, for group events, group members.
func (h *EventHandler) GetByID(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	participants, err := h.Events.Participants(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if ev.IsPrivate {
		uid, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		if !h.canSeePrivate(ctx, ev, participants, uid) {
			// Hide rather than admit the event exists.
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"event":        toEventResp(ev),
		"participants": participants,
	})
}

func (h *EventHandler) canSeePrivate(ctx context.Context, ev model.Event, participants []repository.ParticipantInfo, uid uint64) bool {
	if ev.OrganizerID == uid {
		return true
	}
	for _, p := range participants {
		if p.UserID == uid {
			return true
		}
	}
	if ev.GroupID != nil {
		member, err := h.Groups.IsMember(ctx, *ev.GroupID, uid)
		return err == nil && member
	}
	return false
}

// ListByField returns the active events of a field on one day.
func (h *EventHandler) ListByField(c echo.Context) error {
	fieldID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid field id"})
	}
	date, err := availability.ParseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.ListByFieldAndDate(ctx, fieldID, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// ListPublic returns public active events over the next two weeks, or
// over the from/to range when given.
func (h *EventHandler) ListPublic(c echo.Context) error {
	from := time.Now().UTC().Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, 14)
	if raw := c.QueryParam("from"); raw != "" {
		d, err := availability.ParseDate(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
		}
		from = d
	}
	if raw := c.QueryParam("to"); raw != "" {
		d, err := availability.ParseDate(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
		}
		to = d
	}
	if to.Before(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to is before from"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.ListPublicUpcoming(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// ListMine returns the events the caller participates in.
func (h *EventHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// ----- update / lifecycle -----

type updateEventReq struct {
	Title      *string `json:"title"`
	Date       *string `json:"date"`
	TimeSlot   *string `json:"time_slot"`
	MaxPlayers *uint32 `json:"max_players"`
	IsPrivate  *bool   `json:"is_private"`
}

// Update edits an event on behalf of its organizer. Moving onto an
// occupied slot answers 409 slot_taken; participants are notified of
// the change through the broker.
func (h *EventHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req updateEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	upd := repository.EventUpdate{
		Title:      req.Title,
		TimeSlot:   req.TimeSlot,
		MaxPlayers: req.MaxPlayers,
		IsPrivate:  req.IsPrivate,
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title must not be empty"})
	}
	if req.TimeSlot != nil && !availability.ValidSlot(*req.TimeSlot) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time_slot is not on the grid"})
	}
	if req.Date != nil {
		d, err := availability.ParseDate(*req.Date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		if today := time.Now().UTC().Truncate(24 * time.Hour); d.Before(today) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date is in the past"})
		}
		upd.Date = &d
	}
	if req.MaxPlayers != nil && *req.MaxPlayers < 2 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_players must be >= 2"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.Update(ctx, id, uid, upd)
	if err != nil {
		switch err {
		case repository.ErrEventNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only the organizer can edit"})
		case repository.ErrSlotTaken:
			return c.JSON(http.StatusConflict, echo.Map{"error": "slot_taken"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "event cannot be edited"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update event failed"})
		}
	}

	h.notifyParticipants(ctx, ev, uid, model.NotificationUpdated,
		fmt.Sprintf("%q moved to %s %s", ev.Title, ev.Date.Format("2006-01-02"), ev.TimeSlot))

	return c.JSON(http.StatusOK, toEventResp(ev))
}

// Cancel calls an event off, releasing its slot for new bookings.
func (h *EventHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Load before cancelling so the notification can name the slot.
	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.Events.Cancel(ctx, id, uid); err != nil {
		switch err {
		case repository.ErrEventNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only the organizer can cancel"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "event is not active"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel event failed"})
		}
	}

	h.notifyParticipants(ctx, ev, uid, model.NotificationCancelled,
		fmt.Sprintf("%q on %s %s was cancelled", ev.Title, ev.Date.Format("2006-01-02"), ev.TimeSlot))

	return c.NoContent(http.StatusNoContent)
}

// Complete marks an event as played.
func (h *EventHandler) Complete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Events.Complete(ctx, id, uid); err != nil {
		switch err {
		case repository.ErrEventNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only the organizer can complete"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "event is not active"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "complete event failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- join / leave -----

// Join adds the caller to an event. Capacity and the status flip to
// full are enforced inside a row-locked transaction so two racing
// joins cannot both take the last place.
func (h *EventHandler) Join(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	// Group events admit group members only.
	if ev.GroupID != nil {
		member, err := h.Groups.IsMember(ctx, *ev.GroupID, uid)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if !member {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not a member of the group"})
		}
	}

	tx, err := h.Events.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "join failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	count, err := h.Events.JoinTx(ctx, tx, id, uid)
	if err != nil {
		switch err {
		case repository.ErrEventNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case repository.ErrEventFull:
			return c.JSON(http.StatusConflict, echo.Map{"error": "event is full"})
		case repository.ErrAlreadyJoined:
			return c.JSON(http.StatusConflict, echo.Map{"error": "already joined"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "event is not open"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "join failed"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "join failed"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"event_id":     id,
		"participants": count,
		"max_players":  ev.MaxPlayers,
	})
}

// Leave removes the caller from an event; a full event reopens.
func (h *EventHandler) Leave(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.Events.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "leave failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Events.LeaveTx(ctx, tx, id, uid); err != nil {
		switch err {
		case repository.ErrEventNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "organizer cannot leave; cancel instead"})
		case repository.ErrNotMember:
			return c.JSON(http.StatusConflict, echo.Map{"error": "not a participant"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "leave failed"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "leave failed"})
	}
	committed = true

	return c.NoContent(http.StatusNoContent)
}

// notifyParticipants publishes one broker message addressed to every
// participant except the acting organizer. Publish failures are
// best-effort and never fail the request.
func (h *EventHandler) notifyParticipants(ctx context.Context, ev model.Event, actorID uint64, kind, message string) {
	ids, err := h.Events.ParticipantIDs(ctx, ev.ID)
	if err != nil {
		return
	}
	recipients := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id != actorID {
			recipients = append(recipients, id)
		}
	}
	if len(recipients) == 0 {
		return
	}
	eventID := ev.ID
	_ = queue_publisher.PublishMatchNotification(ctx, queue.MatchNotificationEvent{
		Kind:       kind,
		Message:    message,
		Recipients: recipients,
		EventID:    &eventID,
		GroupID:    ev.GroupID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}
