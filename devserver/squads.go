package devserver

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pamojavote/pamoja-go/enums"
	"github.com/pamojavote/pamoja-go/models"
)

func (s *Server) listSquads(c echo.Context) error {
	userID := sessionUser(c)
	county := c.QueryParam("county")
	search := strings.ToLower(strings.TrimSpace(c.QueryParam("search")))
	public := c.QueryParam("is_public")

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	out := []models.Squad{}
	for _, sq := range s.state.squads {
		if !s.state.visible(sq, userID) {
			continue
		}
		if county != "" && !strings.EqualFold(sq.County, county) {
			continue
		}
		if public != "" && fmt.Sprint(sq.IsPublic) != strings.ToLower(public) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(sq.Name), search) &&
			!strings.Contains(strings.ToLower(sq.Description), search) {
			continue
		}
		out = append(out, s.state.renderSquad(sq))
	}
	return paginate(c, out)
}

func (s *Server) publicSquads(c echo.Context) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	out := []models.Squad{}
	for _, sq := range s.state.squads {
		if sq.IsPublic {
			out = append(out, s.state.renderSquad(sq))
		}
	}
	return list(c, out)
}

func (s *Server) createSquad(c echo.Context) error {
	var req models.SquadCreate
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	userID := sessionUser(c)

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	var center *models.Center
	if req.RegistrationCenter != nil {
		center = s.state.resolveCenter(*req.RegistrationCenter)
		if existing := s.state.openSquadAt(center.ID, req.VoterRegistrationDate); existing != nil {
			return fieldErrors(map[string][]string{"non_field_errors": {fmt.Sprintf(
				"A squad %q already exists for %s on %s with available slots. Please join %q instead of creating a new squad.",
				existing.Name, center.Name, req.VoterRegistrationDate, existing.Name,
			)}})
		}
	}

	now := s.now()
	sq := &squadRecord{
		Squad: models.Squad{
			ID:                    uuid.NewString(),
			Name:                  strings.TrimSpace(req.Name),
			Description:           req.Description,
			MaxMembers:            req.MaxMembers,
			County:                req.County,
			IsPublic:              req.IsPublic,
			VoterRegistrationDate: req.VoterRegistrationDate,
			CreatedAt:             now,
		},
		ownerID: userID,
	}
	if center != nil {
		sq.centerID = center.ID
	}
	s.state.squads = append([]*squadRecord{sq}, s.state.squads...)
	s.state.members = append(s.state.members, &memberRecord{
		id:       uuid.NewString(),
		squadID:  sq.ID,
		userID:   userID,
		role:     enums.RoleLeader,
		joinedAt: now,
	})

	return c.JSON(http.StatusCreated, s.state.renderSquad(sq))
}

// openSquadAt finds a squad meeting at the same center on the same date that
// still has room.
func (s *state) openSquadAt(centerID, date string) *squadRecord {
	for _, sq := range s.squads {
		if sq.centerID != centerID || sq.VoterRegistrationDate != date {
			continue
		}
		if sq.MaxMembers == nil || *sq.MaxMembers > len(s.membersOf(sq.ID)) {
			return sq
		}
	}
	return nil
}

// visibleSquad loads the :id squad, answering 404 for squads the caller
// cannot see.
func (s *Server) visibleSquad(c echo.Context) (*squadRecord, error) {
	sq := s.state.squad(c.Param("id"))
	if sq == nil || !s.state.visible(sq, sessionUser(c)) {
		return nil, notFound()
	}
	return sq, nil
}

func (s *Server) getSquad(c echo.Context) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	sq, err := s.visibleSquad(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.state.renderSquad(sq))
}

func (s *Server) joinSquad(c echo.Context) error {
	userID := sessionUser(c)

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	sq, err := s.visibleSquad(c)
	if err != nil {
		return err
	}
	for _, m := range s.state.membershipsOf(userID) {
		if m.squadID != sq.ID {
			other := s.state.squad(m.squadID)
			return errorf(http.StatusBadRequest, fmt.Sprintf(
				"You are already a member of %q. Leave that squad first to join another.", other.Name))
		}
	}
	if sq.ownerID == userID {
		return errorf(http.StatusBadRequest, "You are the owner of this squad and cannot join it as a member.")
	}
	if s.state.membership(sq.ID, userID) != nil {
		return fieldErrors(map[string][]string{"squad_id": {"You are already a member of this squad."}})
	}
	if sq.MaxMembers != nil && len(s.state.membersOf(sq.ID)) >= *sq.MaxMembers {
		return errorf(http.StatusBadRequest, "This squad is full.")
	}

	m := &memberRecord{
		id:       uuid.NewString(),
		squadID:  sq.ID,
		userID:   userID,
		role:     enums.RoleMember,
		joinedAt: s.now(),
	}
	s.state.members = append(s.state.members, m)

	return c.JSON(http.StatusCreated, models.JoinResult{
		Message:    "Successfully joined the squad",
		Membership: s.state.renderMember(m),
	})
}

func (s *Server) leaveSquad(c echo.Context) error {
	userID := sessionUser(c)

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	sq, err := s.visibleSquad(c)
	if err != nil {
		return err
	}
	m := s.state.membership(sq.ID, userID)
	if m == nil {
		return errorf(http.StatusBadRequest, "You are not a member of this squad")
	}
	if m.role == enums.RoleLeader {
		leaders := 0
		for _, other := range s.state.membersOf(sq.ID) {
			if other.role == enums.RoleLeader {
				leaders++
			}
		}
		if leaders == 1 {
			return errorf(http.StatusBadRequest, "Cannot leave squad. You are the only leader.")
		}
	}

	s.state.removeMembers(func(r *memberRecord) bool { return r != m })
	return c.JSON(http.StatusOK, models.Message{Message: "Successfully left the squad"})
}

func (s *Server) mySquads(c echo.Context) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	out := []models.Squad{}
	for _, m := range s.state.membershipsOf(sessionUser(c)) {
		if sq := s.state.squad(m.squadID); sq != nil {
			out = append(out, s.state.renderSquad(sq))
		}
	}
	return list(c, out)
}

func (s *Server) myMembership(c echo.Context) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	memberships := s.state.membershipsOf(sessionUser(c))
	if len(memberships) == 0 {
		return c.JSON(http.StatusOK, models.Message{Message: "Not a member of any squad"})
	}

	m := memberships[0]
	out := models.Membership{
		ID:            m.id,
		Role:          string(m.role),
		HasRegistered: m.hasRegistered,
		JoinedAt:      m.joinedAt,
	}
	if sq := s.state.squad(m.squadID); sq != nil {
		rendered := s.state.renderSquad(sq)
		out.Squad = &rendered
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) clearMembership(c echo.Context) error {
	userID := sessionUser(c)

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	removed := s.state.removeMembers(func(m *memberRecord) bool { return m.userID != userID })
	return c.JSON(http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Cleared %d membership(s)", removed),
		"user":    s.state.displayName(userID),
	})
}

func (s *Server) leaderboard(c echo.Context) error {
	county := c.QueryParam("county")

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	out := []models.LeaderboardEntry{}
	for _, sq := range s.state.squads {
		if county != "" && sq.County != county {
			continue
		}
		rendered := s.state.renderSquad(sq)
		if rendered.MemberCount == 0 {
			continue
		}
		out = append(out, models.LeaderboardEntry{
			County:               rendered.County,
			SquadName:            rendered.Name,
			MemberCount:          rendered.MemberCount,
			RegistrationProgress: rendered.RegistrationProgress,
			CreatedAt:            rendered.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MemberCount > out[j].MemberCount })
	return list(c, out)
}

func (s *Server) squadMembers(c echo.Context) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	sq, err := s.visibleSquad(c)
	if err != nil {
		return err
	}
	out := []models.SquadMember{}
	for _, m := range s.state.membersOf(sq.ID) {
		out = append(out, s.state.renderMember(m))
	}
	return list(c, out)
}

// messageSquad only records the broadcast; leaders and the owner may send.
func (s *Server) messageSquad(c echo.Context) error {
	var req models.SquadMessage
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	sq, err := s.visibleSquad(c)
	if err != nil {
		return err
	}
	if !s.state.canLead(sq, sessionUser(c)) {
		return forbidden()
	}

	recipients := len(s.state.membersOf(sq.ID))
	return c.JSON(http.StatusOK, models.Message{
		Message: fmt.Sprintf("Message sent to %d member(s)", recipients),
	})
}
