package api

import (
	"context"
	"net/http"

	"github.com/pamojavote/pamoja-go/enums"
	"github.com/pamojavote/pamoja-go/gateway"
	"github.com/pamojavote/pamoja-go/models"
)

var (
	invitesPath         = resourcePath(enums.InviteResource)
	whatsAppInvitesPath = resourcePath(enums.InviteResource, "whatsapp")
	bulkInvitesPath     = resourcePath(enums.InviteResource, "bulk")
)

type InvitesClient struct {
	gw *gateway.Gateway
}

func (i *InvitesClient) Send(ctx context.Context, invite models.InviteCreate) (models.Invite, error) {
	var out models.Invite
	if err := validatePayload(http.MethodPost, invitesPath, invite); err != nil {
		return out, err
	}
	err := i.gw.Post(ctx, invitesPath, invite, &out)
	return out, err
}

// WhatsApp creates one invite per phone number for exactly one squad or
// event and returns wa.me links the caller can open.
func (i *InvitesClient) WhatsApp(ctx context.Context, invite models.WhatsAppInvite) (models.InviteBatch, error) {
	var out models.InviteBatch
	if err := validatePayload(http.MethodPost, whatsAppInvitesPath, invite); err != nil {
		return out, err
	}
	err := i.gw.Post(ctx, whatsAppInvitesPath, invite, &out)
	return out, err
}

func (i *InvitesClient) Bulk(ctx context.Context, invite models.BulkInvite) (models.InviteBatch, error) {
	var out models.InviteBatch
	if err := validatePayload(http.MethodPost, bulkInvitesPath, invite); err != nil {
		return out, err
	}
	err := i.gw.Post(ctx, bulkInvitesPath, invite, &out)
	return out, err
}
