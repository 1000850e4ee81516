package devserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pamojavote/pamoja-go/enums"
	"github.com/pamojavote/pamoja-go/models"
)

const inviteBaseURL = "https://pamoja.vote"

func (s *Server) listInvites(c echo.Context) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	inviter := s.state.displayName(sessionUser(c))
	out := []models.Invite{}
	for _, inv := range s.state.invites {
		if inv.Inviter == inviter {
			out = append(out, inv)
		}
	}
	return list(c, out)
}

func (s *Server) createInvite(c echo.Context) error {
	var req models.InviteCreate
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if req.Squad != "" && s.state.squad(req.Squad) == nil {
		return fieldErrors(map[string][]string{"squad": {"Invalid pk \"" + req.Squad + "\" - object does not exist."}})
	}
	if req.Event != "" && s.state.event(req.Event) == nil {
		return fieldErrors(map[string][]string{"event": {"Invalid pk \"" + req.Event + "\" - object does not exist."}})
	}

	inv := s.state.addInvite(models.Invite{
		Squad:          req.Squad,
		Event:          req.Event,
		Inviter:        s.state.displayName(sessionUser(c)),
		InviteeContact: req.InviteeContact,
		Channel:        req.Channel,
		Message:        req.Message,
		SentAt:         s.now(),
	})
	return c.JSON(http.StatusCreated, inv)
}

func (s *Server) whatsAppInvites(c echo.Context) error {
	var req models.WhatsAppInvite
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	message, err := s.state.inviteMessage(req.SquadID, req.EventID, false)
	if err != nil {
		return err
	}

	batch := models.InviteBatch{Invites: []models.Invite{}}
	for _, phone := range req.PhoneNumbers {
		inv := s.state.addInvite(models.Invite{
			Squad:          req.SquadID,
			Event:          req.EventID,
			Inviter:        s.state.displayName(sessionUser(c)),
			InviteeContact: phone,
			Channel:        enums.InviteChannelWhatsApp,
			Message:        message,
			SentAt:         s.now(),
		})
		batch.Invites = append(batch.Invites, inv)
		batch.Links = append(batch.Links, whatsAppLink(phone, message))
	}
	batch.Message = fmt.Sprintf("Successfully created %d invites", len(batch.Invites))
	return c.JSON(http.StatusCreated, batch)
}

// bulkInvites silently skips squads the caller does not own, answering with
// an empty batch.
func (s *Server) bulkInvites(c echo.Context) error {
	var req models.BulkInvite
	if err := c.Bind(&req); err != nil {
		return err
	}
	if len(req.PhoneNumbers) == 0 {
		return errorf(http.StatusBadRequest, "phone_numbers is required")
	}
	if req.SquadID == "" && req.EventID == "" {
		return errorf(http.StatusBadRequest, "Either squad_id or event_id is required")
	}
	if req.Channel == "" {
		req.Channel = enums.InviteChannelWhatsApp
	}
	userID := sessionUser(c)

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	batch := models.InviteBatch{Invites: []models.Invite{}}
	message, err := s.state.inviteMessage(req.SquadID, req.EventID, true)
	if req.SquadID != "" {
		if sq := s.state.squad(req.SquadID); sq == nil || sq.ownerID != userID {
			err = forbidden()
		}
	}
	if err == nil {
		if req.Message != "" {
			message = req.Message
		}
		for _, phone := range req.PhoneNumbers {
			batch.Invites = append(batch.Invites, s.state.addInvite(models.Invite{
				Squad:          req.SquadID,
				Event:          req.EventID,
				Inviter:        s.state.displayName(userID),
				InviteeContact: phone,
				Channel:        req.Channel,
				Message:        message,
				SentAt:         s.now(),
			}))
		}
	}
	batch.Message = fmt.Sprintf("Successfully created %d invites", len(batch.Invites))
	return c.JSON(http.StatusCreated, batch)
}

func (s *state) addInvite(inv models.Invite) models.Invite {
	inv.ID = uuid.NewString()
	inv.Status = enums.InviteStatusSent
	s.invites = append(s.invites, inv)
	return inv
}

// inviteMessage renders the shareable text for a squad or an event invite.
// Squad invites name the squad when named is set.
func (s *state) inviteMessage(squadID, eventID string, named bool) (string, error) {
	if squadID != "" {
		sq := s.squad(squadID)
		if sq == nil {
			return "", fieldErrors(map[string][]string{"squad_id": {"Squad not found."}})
		}
		what := "our squad"
		if named {
			what = fmt.Sprintf("our squad '%s'", sq.Name)
		}
		return fmt.Sprintf("Hey! 🇰🇪 Join %s on PamojaVote - we're working together to register as voters. Tap here to join 👉 %s/join/%s",
			what, inviteBaseURL, squadID), nil
	}

	e := s.event(eventID)
	if e == nil {
		return "", fieldErrors(map[string][]string{"event_id": {"Event not found."}})
	}
	place := e.Center
	if center := s.center(e.Center); center != nil {
		place = center.Name
	}
	return fmt.Sprintf("Hey! 🇰🇪 Join us for a voter registration event at %s on %s. Tap here 👉 %s/event/%s",
		place, e.Datetime.Format("2006-01-02 15:04"), inviteBaseURL, eventID), nil
}

func whatsAppLink(phone, message string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(message)
}
