package devserver

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pamojavote/pamoja-go/enums"
	"github.com/pamojavote/pamoja-go/models"
)

type squadRecord struct {
	models.Squad
	ownerID  string
	centerID string
}

type memberRecord struct {
	id            string
	squadID       string
	userID        string
	role          enums.Role
	hasRegistered bool
	joinedAt      time.Time
}

type eventRecord struct {
	models.Event
}

// state is the in-memory database. Callers hold mu for the whole request.
type state struct {
	mu sync.Mutex

	users   map[string]*models.User
	phones  map[string]string // phone number -> user id
	squads  []*squadRecord    // newest first
	members []*memberRecord
	centers []models.Center
	events  []*eventRecord
	rsvps   map[string]*models.RSVP // event id + "/" + user id
	invites []models.Invite
}

func newState(centers []models.Center) *state {
	if len(centers) == 0 {
		centers = seedCenters()
	}
	return &state{
		users:   make(map[string]*models.User),
		phones:  make(map[string]string),
		centers: centers,
		rsvps:   make(map[string]*models.RSVP),
	}
}

func seedCenters() []models.Center {
	pt := func(v float64) *float64 { return &v }
	return []models.Center{
		{ID: uuid.NewString(), Name: "Kenyatta International Convention Centre", County: "Nairobi", Constituency: "Starehe", Ward: "Nairobi Central", Address: "Harambee Avenue", Lat: pt(-1.2864), Lng: pt(36.8172)},
		{ID: uuid.NewString(), Name: "Kasarani Primary School", County: "Nairobi", Constituency: "Kasarani", Ward: "Kasarani", Address: "Thika Road", Lat: pt(-1.2195), Lng: pt(36.9095)},
		{ID: uuid.NewString(), Name: "Kisumu Social Hall", County: "Kisumu", Constituency: "Kisumu Central", Ward: "Market Milimani", Address: "Oginga Odinga Street", Lat: pt(-0.0917), Lng: pt(34.7617)},
		{ID: uuid.NewString(), Name: "Tononoka Hall", County: "Mombasa", Constituency: "Mvita", Ward: "Tononoka", Address: "Tom Mboya Avenue", Lat: pt(-4.0435), Lng: pt(39.6682)},
		{ID: uuid.NewString(), Name: "Chuka Town Hall", County: "Tharaka Nithi", Constituency: "Chuka/Igambang'ombe", Ward: "Karingani", Lat: pt(-0.3333), Lng: pt(37.6500)},
	}
}

func (s *state) userByPhone(phone string) *models.User {
	if id, ok := s.phones[phone]; ok {
		return s.users[id]
	}
	return nil
}

func (s *state) createUser(phone string, now time.Time) *models.User {
	user := &models.User{ID: uuid.NewString(), PhoneNumber: phone, CreatedAt: now}
	s.users[user.ID] = user
	s.phones[phone] = user.ID
	return user
}

func (s *state) squad(id string) *squadRecord {
	for _, sq := range s.squads {
		if sq.ID == id {
			return sq
		}
	}
	return nil
}

// visible reports whether userID may see the squad: public squads, owned
// squads and squads the user belongs to.
func (s *state) visible(sq *squadRecord, userID string) bool {
	return sq.IsPublic || sq.ownerID == userID || s.membership(sq.ID, userID) != nil
}

func (s *state) membership(squadID, userID string) *memberRecord {
	for _, m := range s.members {
		if m.squadID == squadID && m.userID == userID {
			return m
		}
	}
	return nil
}

func (s *state) membershipsOf(userID string) []*memberRecord {
	var out []*memberRecord
	for _, m := range s.members {
		if m.userID == userID {
			out = append(out, m)
		}
	}
	return out
}

func (s *state) membersOf(squadID string) []*memberRecord {
	var out []*memberRecord
	for _, m := range s.members {
		if m.squadID == squadID {
			out = append(out, m)
		}
	}
	return out
}

func (s *state) removeMembers(keep func(*memberRecord) bool) int {
	kept := s.members[:0]
	removed := 0
	for _, m := range s.members {
		if keep(m) {
			kept = append(kept, m)
		} else {
			removed++
		}
	}
	s.members = kept
	return removed
}

// canLead reports whether userID owns or leads the squad.
func (s *state) canLead(sq *squadRecord, userID string) bool {
	if sq.ownerID == userID {
		return true
	}
	m := s.membership(sq.ID, userID)
	return m != nil && m.role == enums.RoleLeader
}

func (s *state) center(id string) *models.Center {
	for i := range s.centers {
		if s.centers[i].ID == id {
			return &s.centers[i]
		}
	}
	return nil
}

// resolveCenter finds a center by name and county or registers a new one.
func (s *state) resolveCenter(ref models.CenterRef) *models.Center {
	for i := range s.centers {
		c := &s.centers[i]
		if strings.EqualFold(c.Name, ref.Name) && strings.EqualFold(c.County, ref.County) {
			return c
		}
	}
	s.centers = append(s.centers, models.Center{
		ID:           uuid.NewString(),
		Name:         ref.Name,
		County:       ref.County,
		Constituency: ref.Constituency,
		Ward:         ref.Ward,
		Address:      ref.Address,
	})
	return &s.centers[len(s.centers)-1]
}

func (s *state) event(id string) *eventRecord {
	for _, e := range s.events {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (s *state) displayName(userID string) string {
	if u, ok := s.users[userID]; ok {
		return u.PhoneNumber
	}
	return ""
}

func (s *state) renderMember(m *memberRecord) models.SquadMember {
	return models.SquadMember{
		ID:            m.id,
		User:          s.displayName(m.userID),
		Role:          string(m.role),
		HasRegistered: m.hasRegistered,
		JoinedAt:      m.joinedAt,
	}
}

func (s *state) renderSquad(sq *squadRecord) models.Squad {
	out := sq.Squad
	out.Owner = s.displayName(sq.ownerID)

	members := s.membersOf(sq.ID)
	out.Members = make([]models.SquadMember, 0, len(members))
	registered := 0
	for _, m := range members {
		out.Members = append(out.Members, s.renderMember(m))
		if m.hasRegistered {
			registered++
		}
	}
	out.MemberCount = len(members)
	if len(members) > 0 {
		out.RegistrationProgress = float64(registered) / float64(len(members)) * 100
	}
	if sq.MaxMembers != nil {
		remaining := max(0, *sq.MaxMembers-len(members))
		out.RemainingSlots = &remaining
	}
	if c := s.center(sq.centerID); c != nil {
		center := *c
		out.RegistrationCenter = &center
	}
	return out
}

func (s *state) renderEvent(e *eventRecord) models.Event {
	out := e.Event
	out.RSVPCounts = map[string]int{enums.RSVPYes: 0, enums.RSVPNo: 0, enums.RSVPMaybe: 0}
	for key, r := range s.rsvps {
		if strings.HasPrefix(key, e.ID+"/") {
			out.RSVPCounts[r.Status]++
		}
	}
	return out
}

func (s *state) sortedEvents(filter func(*eventRecord) bool) []models.Event {
	var matched []*eventRecord
	for _, e := range s.events {
		if filter(e) {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Datetime.Before(matched[j].Datetime) })

	out := make([]models.Event, 0, len(matched))
	for _, e := range matched {
		out = append(out, s.renderEvent(e))
	}
	return out
}
