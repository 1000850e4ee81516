package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/pamojavote/pamoja-go/enums"
	"github.com/pamojavote/pamoja-go/gateway"
	"github.com/pamojavote/pamoja-go/models"
)

var (
	squadsPath          = resourcePath(enums.SquadResource)
	publicSquadsPath    = resourcePath("public", enums.SquadResource)
	mySquadsPath        = resourcePath(enums.SquadResource, "my_squads")
	myMembershipPath    = resourcePath(enums.SquadResource, "my_membership")
	clearMembershipPath = resourcePath(enums.SquadResource, "clear_membership")
	leaderboardPath     = resourcePath(enums.SquadResource, "leaderboard")
)

type SquadsClient struct {
	gw *gateway.Gateway
}

func (s *SquadsClient) List(ctx context.Context, filter models.SquadFilter) (models.Page[models.Squad], error) {
	query := map[string]any{}
	if filter.County != "" {
		query["county"] = filter.County
	}
	if filter.IsPublic != nil {
		query["is_public"] = *filter.IsPublic
	}
	if filter.Search != "" {
		query["search"] = filter.Search
	}
	if filter.Page > 0 {
		query["page"] = filter.Page
	}
	return gateway.List[models.Squad](ctx, s.gw, squadsPath, query)
}

// ListPublic lists public squads; it works without a session.
func (s *SquadsClient) ListPublic(ctx context.Context) (models.Page[models.Squad], error) {
	return gateway.List[models.Squad](ctx, s.gw, publicSquadsPath, nil)
}

func (s *SquadsClient) Get(ctx context.Context, id string) (models.Squad, error) {
	var out models.Squad
	path := resourcePath(enums.SquadResource, id)
	if err := requireID(http.MethodGet, path, "id", id); err != nil {
		return out, err
	}
	err := s.gw.Get(ctx, path, nil, &out)
	return out, err
}

func (s *SquadsClient) Create(ctx context.Context, squad models.SquadCreate) (models.Squad, error) {
	var out models.Squad
	if err := validatePayload(http.MethodPost, squadsPath, squad); err != nil {
		return out, err
	}
	err := s.gw.Post(ctx, squadsPath, squad, &out)
	return out, err
}

// Join makes the caller a member. The backend allows one squad per user and
// refuses owners joining their own squad.
func (s *SquadsClient) Join(ctx context.Context, id string) (models.JoinResult, error) {
	var out models.JoinResult
	path := resourcePath(enums.SquadResource, id, "join")
	if err := requireID(http.MethodPost, path, "id", id); err != nil {
		return out, err
	}
	err := s.gw.Post(ctx, path, nil, &out)
	return out, err
}

func (s *SquadsClient) Leave(ctx context.Context, id string) (models.Message, error) {
	var out models.Message
	path := resourcePath(enums.SquadResource, id, "leave")
	if err := requireID(http.MethodPost, path, "id", id); err != nil {
		return out, err
	}
	err := s.gw.Post(ctx, path, nil, &out)
	return out, err
}

func (s *SquadsClient) MySquads(ctx context.Context) (models.Page[models.Squad], error) {
	return gateway.List[models.Squad](ctx, s.gw, mySquadsPath, nil)
}

// MyMembership returns the caller's membership, or nil when the caller is
// not in any squad.
func (s *SquadsClient) MyMembership(ctx context.Context) (*models.Membership, error) {
	var raw json.RawMessage
	if err := s.gw.Get(ctx, myMembershipPath, nil, &raw); err != nil {
		return nil, err
	}
	// {"message": "Not a member of any squad"}
	if !gjson.GetBytes(raw, "id").Exists() {
		return nil, nil
	}

	var out models.Membership
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &gateway.Error{
			Kind:    gateway.KindDecode,
			Method:  http.MethodGet,
			Path:    myMembershipPath,
			Message: "Unexpected response from server",
			Err:     err,
		}
	}
	return &out, nil
}

// ClearMembership drops every membership of the caller.
func (s *SquadsClient) ClearMembership(ctx context.Context) (models.Message, error) {
	var out models.Message
	err := s.gw.Delete(ctx, clearMembershipPath, nil, &out)
	return out, err
}

func (s *SquadsClient) Members(ctx context.Context, id string) (models.Page[models.SquadMember], error) {
	path := resourcePath(enums.SquadResource, id, "members")
	if err := requireID(http.MethodGet, path, "id", id); err != nil {
		return models.Page[models.SquadMember]{}, err
	}
	return gateway.List[models.SquadMember](ctx, s.gw, path, nil)
}

// Message broadcasts a text to the squad's members.
func (s *SquadsClient) Message(ctx context.Context, id string, msg models.SquadMessage) (models.Message, error) {
	var out models.Message
	path := resourcePath(enums.SquadResource, id, "message")
	if err := requireID(http.MethodPost, path, "id", id); err != nil {
		return out, err
	}
	if err := validatePayload(http.MethodPost, path, msg); err != nil {
		return out, err
	}
	err := s.gw.Post(ctx, path, msg, &out)
	return out, err
}

// Leaderboard ranks squads by member count, optionally within one county.
func (s *SquadsClient) Leaderboard(ctx context.Context, county string) (models.Page[models.LeaderboardEntry], error) {
	var query map[string]any
	if county != "" {
		query = map[string]any{"county": county}
	}
	return gateway.List[models.LeaderboardEntry](ctx, s.gw, leaderboardPath, query)
}
