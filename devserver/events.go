package devserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pamojavote/pamoja-go/enums"
	"github.com/pamojavote/pamoja-go/models"
)

type rsvpRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=yes no maybe"`
}

// memberOf reports whether userID belongs to the squad of e. Events are only
// visible to squad members.
func (s *state) memberOf(e *eventRecord, userID string) bool {
	return s.membership(e.Squad, userID) != nil
}

func (s *Server) listEvents(c echo.Context) error {
	userID := sessionUser(c)
	squad := c.QueryParam("squad")
	center := c.QueryParam("center")

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	out := s.state.sortedEvents(func(e *eventRecord) bool {
		return s.state.memberOf(e, userID) &&
			(squad == "" || e.Squad == squad) &&
			(center == "" || e.Center == center)
	})
	return paginate(c, out)
}

func (s *Server) getEvent(c echo.Context) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	e := s.state.event(c.Param("id"))
	if e == nil || !s.state.memberOf(e, sessionUser(c)) {
		return notFound()
	}
	return c.JSON(http.StatusOK, s.state.renderEvent(e))
}

// createEvent lets squad leaders schedule a meetup at a known center.
func (s *Server) createEvent(c echo.Context) error {
	var req models.EventCreate
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	userID := sessionUser(c)

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	sq := s.state.squad(req.Squad)
	if sq == nil || !s.state.visible(sq, userID) {
		return fieldErrors(map[string][]string{"squad": {"Invalid pk \"" + req.Squad + "\" - object does not exist."}})
	}
	if s.state.center(req.Center) == nil {
		return fieldErrors(map[string][]string{"center": {"Invalid pk \"" + req.Center + "\" - object does not exist."}})
	}
	if !s.state.canLead(sq, userID) {
		return forbidden()
	}

	e := &eventRecord{Event: models.Event{
		ID:           uuid.NewString(),
		Squad:        sq.ID,
		Center:       req.Center,
		Datetime:     req.Datetime,
		MeetingPoint: req.MeetingPoint,
		Note:         req.Note,
		CreatedAt:    s.now(),
	}}
	s.state.events = append(s.state.events, e)
	return c.JSON(http.StatusCreated, s.state.renderEvent(e))
}

// rsvp creates the caller's RSVP, defaulting to maybe, or updates it.
func (s *Server) rsvp(c echo.Context) error {
	var req rsvpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	userID := sessionUser(c)

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	e := s.state.event(c.Param("id"))
	if e == nil || !s.state.memberOf(e, userID) {
		return notFound()
	}

	key := e.ID + "/" + userID
	r, ok := s.state.rsvps[key]
	if !ok {
		status := req.Status
		if status == "" {
			status = enums.RSVPMaybe
		}
		r = &models.RSVP{ID: uuid.NewString(), Event: e.ID, User: s.state.displayName(userID), Status: status}
		s.state.rsvps[key] = r
	} else if req.Status != "" {
		r.Status = req.Status
	}
	r.RespondedAt = s.now()

	return c.JSON(http.StatusOK, models.RSVPResult{Message: "RSVP updated successfully", RSVP: *r})
}

func (s *Server) upcomingEvents(c echo.Context) error {
	userID := sessionUser(c)
	now := s.now()

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	out := s.state.sortedEvents(func(e *eventRecord) bool {
		return s.state.memberOf(e, userID) && !e.Datetime.Before(now)
	})
	return list(c, out)
}

func (s *Server) squadEvents(c echo.Context) error {
	userID := sessionUser(c)
	squadID := c.Param("id")

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	out := s.state.sortedEvents(func(e *eventRecord) bool {
		return e.Squad == squadID && s.state.memberOf(e, userID)
	})
	return list(c, out)
}
