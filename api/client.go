// Package api exposes typed clients for the PamojaVote REST resources. Every
// call goes through a gateway.Gateway, so authentication, renewal and error
// translation are uniform across resources.
package api

import (
	"net/url"
	"strings"

	"github.com/pamojavote/pamoja-go/gateway"
)

type Client struct {
	Auth    *AuthClient
	Squads  *SquadsClient
	Centers *CentersClient
	Events  *EventsClient
	Invites *InvitesClient

	gateway *gateway.Gateway
}

func New(gw *gateway.Gateway) *Client {
	return &Client{
		Auth:    &AuthClient{gw: gw},
		Squads:  &SquadsClient{gw: gw},
		Centers: &CentersClient{gw: gw},
		Events:  &EventsClient{gw: gw},
		Invites: &InvitesClient{gw: gw},
		gateway: gw,
	}
}

func (c *Client) Gateway() *gateway.Gateway {
	return c.gateway
}

// resourcePath joins escaped segments into /a/b/c/.
func resourcePath(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	b.WriteByte('/')
	return b.String()
}

// requireID rejects a blank identifier before it turns into a list URL.
func requireID(method, path, name, id string) error {
	if strings.TrimSpace(id) == "" {
		return gateway.ValidationError(method, path, name+" is required", map[string]any{name: []string{"This field is required."}})
	}
	return nil
}
