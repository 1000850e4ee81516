package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pamojavote/pamoja-go/enums"
	"github.com/pamojavote/pamoja-go/models"
	"github.com/pamojavote/pamoja-go/otel/metrics"
)

// renewalKey is shared by every caller: at most one renewal is in flight at
// any time, and everyone waiting on it observes the same outcome.
const renewalKey = "renew"

// renew returns an access token to retry c with, given the token c was
// rejected with. Callers that arrive while a renewal is pending wait for it
// instead of starting another one.
func (g *Gateway) renew(ctx context.Context, c *call, stale string) (string, error) {
	ch := g.renewals.DoChan(renewalKey, func() (any, error) {
		// The renewal is shared: one caller giving up must not abort it for
		// the others, so it only inherits values, not cancellation.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()
		return g.renewFrom(rctx, stale)
	})

	select {
	case <-ctx.Done():
		return "", networkError(c.method, c.path, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", authExpiredError(c.method, c.path)
		}
		return res.Val.(string), nil
	}
}

// renewFrom runs inside the single in-flight renewal.
func (g *Gateway) renewFrom(ctx context.Context, stale string) (string, error) {
	creds, err := g.store.Credentials(ctx)
	if err != nil {
		return "", g.expire(ctx, err)
	}

	// Someone renewed after this caller's request was sent.
	if creds.Complete() && creds.Access != stale {
		metrics.RecordRenewal(ctx, metrics.RenewalReused)
		return creds.Access, nil
	}
	// Nothing to renew: the session was never established, or an earlier
	// renewal failure (or a logout) already cleared it.
	if creds.Empty() {
		metrics.RecordAuthExpired(ctx)
		return "", ErrAuthExpired
	}
	if creds.Refresh == "" {
		return "", g.expire(ctx, errors.New("no refresh token stored"))
	}

	renewed, err := g.refresh(ctx, creds.Refresh)
	if err != nil {
		return "", g.expire(ctx, err)
	}

	if renewed.Refresh != "" {
		err = g.store.SetCredentials(ctx, models.Credentials{Access: renewed.Access, Refresh: renewed.Refresh})
	} else {
		err = g.store.SetAccess(ctx, renewed.Access)
	}
	if err != nil {
		return "", g.expire(ctx, err)
	}

	metrics.RecordRenewal(ctx, metrics.RenewalSuccess)
	g.log(ctx).Info("access token renewed", zap.Bool("refresh_rotated", renewed.Refresh != ""))
	g.Notify(ctx, enums.SessionEventRenewed)
	return renewed.Access, nil
}

// refresh exchanges the refresh token for a new access token. It bypasses
// the retry path: a 401 here is final.
func (g *Gateway) refresh(ctx context.Context, refreshToken string) (models.RefreshResult, error) {
	var out models.RefreshResult

	start := time.Now()
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"refresh": refreshToken}).
		Post(g.refreshPath)
	if err != nil {
		metrics.RecordRequest(ctx, http.MethodPost, g.refreshPath, 0, time.Since(start))
		return out, fmt.Errorf("refresh request failed: %w", err)
	}
	metrics.RecordRequest(ctx, http.MethodPost, g.refreshPath, resp.StatusCode(), resp.Time())

	if !resp.IsSuccess() {
		return out, statusError(http.MethodPost, g.refreshPath, resp.StatusCode(), resp.Body())
	}
	if err := decodeInto(http.MethodPost, g.refreshPath, resp.Body(), &out); err != nil {
		return out, err
	}
	if out.Access == "" {
		return out, errors.New("refresh response carries no access token")
	}
	return out, nil
}

// expire terminates the session: credentials and snapshot are removed and
// listeners are told. cause is logged but never returned to callers.
func (g *Gateway) expire(ctx context.Context, cause error) error {
	g.log(ctx).Warn("session expired, clearing stored credentials", zap.Error(cause))

	userID := g.userID(ctx)
	if err := g.store.Clear(ctx); err != nil {
		g.log(ctx).Error("failed to clear session", zap.Error(err))
	}

	metrics.RecordRenewal(ctx, metrics.RenewalFailure)
	metrics.RecordAuthExpired(ctx)
	g.notify(ctx, enums.SessionEventExpired, userID)
	return ErrAuthExpired
}

// Notify emits a session event for the current snapshot user.
func (g *Gateway) Notify(ctx context.Context, name string) {
	g.notify(ctx, name, g.userID(ctx))
}

// NotifyFor emits a session event for userID, for callers that already
// cleared the snapshot.
func (g *Gateway) NotifyFor(ctx context.Context, name, userID string) {
	g.notify(ctx, name, userID)
}

func (g *Gateway) notify(ctx context.Context, name, userID string) {
	g.listenerMu.RLock()
	listener := g.listener
	g.listenerMu.RUnlock()
	if listener == nil {
		return
	}

	listener.OnSessionEvent(ctx, models.SessionEvent{
		ID:         uuid.NewString(),
		Name:       name,
		OccurredAt: time.Now().UTC(),
		UserID:     userID,
	})
}

func (g *Gateway) userID(ctx context.Context) string {
	user, err := g.store.User(ctx)
	if err != nil || user == nil {
		return ""
	}
	return user.ID
}
