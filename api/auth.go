package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pamojavote/pamoja-go/enums"
	"github.com/pamojavote/pamoja-go/gateway"
	"github.com/pamojavote/pamoja-go/models"
	otellogger "github.com/pamojavote/pamoja-go/otel/logger"
)

const (
	loginPath     = "/auth/login/"
	verifyOTPPath = "/auth/verify-otp/"
	logoutPath    = "/auth/logout/"
	profilePath   = "/auth/profile/"
)

// AuthClient runs the phone number + OTP sign-in flow and owns the writes to
// the session store outside of token renewal.
type AuthClient struct {
	gw *gateway.Gateway
}

// SendOTP asks the backend to send a one-time password to phone. Unknown
// numbers are registered on the fly.
func (a *AuthClient) SendOTP(ctx context.Context, phone string) (models.OTPChallenge, error) {
	var out models.OTPChallenge
	if err := requirePhone(http.MethodPost, loginPath, phone); err != nil {
		return out, err
	}
	err := a.gw.Post(ctx, loginPath, map[string]string{"phone_number": strings.TrimSpace(phone)}, &out)
	return out, err
}

// VerifyOTP exchanges the one-time password for a credential pair and stores
// it together with the user snapshot.
func (a *AuthClient) VerifyOTP(ctx context.Context, phone, otp string) (models.LoginResult, error) {
	var out models.LoginResult
	if err := requirePhone(http.MethodPost, verifyOTPPath, phone); err != nil {
		return out, err
	}
	if strings.TrimSpace(otp) == "" {
		return out, gateway.ValidationError(http.MethodPost, verifyOTPPath, "otp is required",
			map[string]any{"otp": []string{"This field is required."}})
	}

	err := a.gw.Post(ctx, verifyOTPPath, map[string]string{
		"phone_number": strings.TrimSpace(phone),
		"otp":          strings.TrimSpace(otp),
	}, &out)
	if err != nil {
		return out, err
	}

	creds := out.Credentials()
	if !creds.Complete() {
		return out, &gateway.Error{
			Kind:    gateway.KindDecode,
			Method:  http.MethodPost,
			Path:    verifyOTPPath,
			Message: "login response carries no token pair",
			Err:     gateway.ErrDecode,
		}
	}

	store := a.gw.Store()
	if err := store.SetCredentials(ctx, creds); err != nil {
		return out, err
	}
	if err := store.SetUser(ctx, out.User); err != nil {
		return out, err
	}

	otellogger.InfoCtx(ctx, "session established", zap.String("user_id", out.User.ID))
	a.gw.NotifyFor(ctx, enums.SessionEventLogin, out.User.ID)
	return out, nil
}

// Logout asks the backend to blacklist the refresh token, then clears the
// local session whatever the backend answered.
func (a *AuthClient) Logout(ctx context.Context) error {
	store := a.gw.Store()

	creds, err := store.Credentials(ctx)
	if err != nil {
		return err
	}
	var userID string
	if user, err := store.User(ctx); err == nil && user != nil {
		userID = user.ID
	}

	if creds.Refresh != "" {
		if err := a.gw.Post(ctx, logoutPath, map[string]string{"refresh_token": creds.Refresh}, nil); err != nil {
			otellogger.DebugCtx(ctx, "logout request failed, clearing session anyway", zap.Error(err))
		}
	}

	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	a.gw.NotifyFor(ctx, enums.SessionEventLogout, userID)
	return nil
}

// Profile fetches the signed-in user and refreshes the stored snapshot.
func (a *AuthClient) Profile(ctx context.Context) (models.User, error) {
	var user models.User
	if err := a.gw.Get(ctx, profilePath, nil, &user); err != nil {
		return user, err
	}
	if err := a.gw.Store().SetUser(ctx, user); err != nil {
		return user, err
	}
	return user, nil
}

func (a *AuthClient) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (models.User, error) {
	var user models.User
	if err := a.gw.Patch(ctx, profilePath, update, &user); err != nil {
		return user, err
	}
	if err := a.gw.Store().SetUser(ctx, user); err != nil {
		return user, err
	}
	a.gw.NotifyFor(ctx, enums.SessionEventProfileUpdated, user.ID)
	return user, nil
}

// CurrentUser returns the stored snapshot without a network call. It is nil
// when nobody is signed in.
func (a *AuthClient) CurrentUser(ctx context.Context) (*models.User, error) {
	return a.gw.Store().User(ctx)
}

// IsAuthenticated reports whether a complete credential pair is stored. The
// access token may still be expired; the gateway renews it on first use.
func (a *AuthClient) IsAuthenticated(ctx context.Context) (bool, error) {
	creds, err := a.gw.Store().Credentials(ctx)
	if err != nil {
		return false, err
	}
	return creds.Complete(), nil
}

func requirePhone(method, path, phone string) error {
	if strings.TrimSpace(phone) == "" {
		return gateway.ValidationError(method, path, "phone_number is required",
			map[string]any{"phone_number": []string{"This field is required."}})
	}
	return nil
}
