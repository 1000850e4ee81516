package api

import (
	"context"
	"net/http"

	"github.com/pamojavote/pamoja-go/enums"
	"github.com/pamojavote/pamoja-go/gateway"
	"github.com/pamojavote/pamoja-go/models"
)

var (
	eventsPath         = resourcePath(enums.EventResource)
	upcomingEventsPath = resourcePath(enums.EventResource, "upcoming")
)

type EventsClient struct {
	gw *gateway.Gateway
}

func (e *EventsClient) List(ctx context.Context, filter models.EventFilter) (models.Page[models.Event], error) {
	query := map[string]any{}
	if filter.Squad != "" {
		query["squad"] = filter.Squad
	}
	if filter.Center != "" {
		query["center"] = filter.Center
	}
	if filter.Page > 0 {
		query["page"] = filter.Page
	}
	return gateway.List[models.Event](ctx, e.gw, eventsPath, query)
}

func (e *EventsClient) Get(ctx context.Context, id string) (models.Event, error) {
	var out models.Event
	path := resourcePath(enums.EventResource, id)
	if err := requireID(http.MethodGet, path, "id", id); err != nil {
		return out, err
	}
	err := e.gw.Get(ctx, path, nil, &out)
	return out, err
}

func (e *EventsClient) Create(ctx context.Context, event models.EventCreate) (models.Event, error) {
	var out models.Event
	if err := validatePayload(http.MethodPost, eventsPath, event); err != nil {
		return out, err
	}
	err := e.gw.Post(ctx, eventsPath, event, &out)
	return out, err
}

// RSVP records the caller's answer for an event; answering again replaces
// the previous answer.
func (e *EventsClient) RSVP(ctx context.Context, id, status string) (models.RSVPResult, error) {
	var out models.RSVPResult
	path := resourcePath(enums.EventResource, id, "rsvp")
	if err := requireID(http.MethodPost, path, "id", id); err != nil {
		return out, err
	}
	if !enums.IsRSVPStatus(status) {
		return out, gateway.ValidationError(http.MethodPost, path, "status must be yes, no or maybe",
			map[string]any{"status": []string{`"` + status + `" is not a valid choice.`}})
	}
	err := e.gw.Post(ctx, path, map[string]string{"status": status}, &out)
	return out, err
}

// Upcoming lists future events of the caller's squads, soonest first.
func (e *EventsClient) Upcoming(ctx context.Context) (models.Page[models.Event], error) {
	return gateway.List[models.Event](ctx, e.gw, upcomingEventsPath, nil)
}

func (e *EventsClient) BySquad(ctx context.Context, squadID string) (models.Page[models.Event], error) {
	path := resourcePath(enums.EventResource, "squad", squadID)
	if err := requireID(http.MethodGet, path, "squad_id", squadID); err != nil {
		return models.Page[models.Event]{}, err
	}
	return gateway.List[models.Event](ctx, e.gw, path, nil)
}
