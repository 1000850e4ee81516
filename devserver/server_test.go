package devserver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type testClient struct {
	t      *testing.T
	srv    *Server
	client *resty.Client
}

func newTestClient(t *testing.T, cfg Config) *testClient {
	t.Helper()
	srv := New(cfg)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testClient{
		t:      t,
		srv:    srv,
		client: resty.New().SetBaseURL(ts.URL + "/api"),
	}
}

func (tc *testClient) do(method, path, token string, body any) (int, gjson.Result) {
	tc.t.Helper()
	req := tc.client.R()
	if token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	require.NoError(tc.t, err)
	return resp.StatusCode(), gjson.ParseBytes(resp.Body())
}

// login signs phone in and returns the access and refresh tokens.
func (tc *testClient) login(phone string) (string, string) {
	tc.t.Helper()
	status, body := tc.do(http.MethodPost, "/auth/login/", "", map[string]string{"phone_number": phone})
	require.Equal(tc.t, http.StatusOK, status, body.Raw)

	status, body = tc.do(http.MethodPost, "/auth/verify-otp/", "", map[string]string{
		"phone_number": phone,
		"otp":          body.Get("otp").String(),
	})
	require.Equal(tc.t, http.StatusOK, status, body.Raw)
	return body.Get("access_token").String(), body.Get("refresh_token").String()
}

func (tc *testClient) createSquad(token, name string, public bool) string {
	tc.t.Helper()
	status, body := tc.do(http.MethodPost, "/squads/", token, map[string]any{
		"name":                    name,
		"county":                  "Nairobi",
		"is_public":               public,
		"voter_registration_date": "2027-01-15",
	})
	require.Equal(tc.t, http.StatusCreated, status, body.Raw)
	return body.Get("id").String()
}

func TestLoginFlow(t *testing.T) {
	tc := newTestClient(t, Config{})

	status, body := tc.do(http.MethodPost, "/auth/login/", "", map[string]string{"phone_number": "+254700000000"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, DefaultOTP, body.Get("otp").String())
	assert.True(t, body.Get("user_created").Bool())

	status, body = tc.do(http.MethodPost, "/auth/login/", "", map[string]string{"phone_number": "+254700000000"})
	require.Equal(t, http.StatusOK, status)
	assert.False(t, body.Get("user_created").Bool())

	status, body = tc.do(http.MethodPost, "/auth/verify-otp/", "", map[string]string{
		"phone_number": "+254700000000",
		"otp":          "000000",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid OTP.", body.Get("non_field_errors.0").String())

	status, body = tc.do(http.MethodPost, "/auth/verify-otp/", "", map[string]string{
		"phone_number": "+254799999999",
		"otp":          DefaultOTP,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User not found.", body.Get("non_field_errors.0").String())

	access, refresh := tc.login("+254700000000")
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	status, body = tc.do(http.MethodGet, "/auth/profile/", access, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "+254700000000", body.Get("phone_number").String())

	status, body = tc.do(http.MethodPatch, "/auth/profile/", access, map[string]string{"first_name": "Amina"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Amina", body.Get("first_name").String())
	assert.Equal(t, "+254700000000", body.Get("phone_number").String())
}

func TestLoginValidation(t *testing.T) {
	tc := newTestClient(t, Config{})

	status, body := tc.do(http.MethodPost, "/auth/login/", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "This field is required.", body.Get("phone_number.0").String())
}

func TestAuthenticationRequired(t *testing.T) {
	tc := newTestClient(t, Config{})

	status, body := tc.do(http.MethodGet, "/squads/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authentication credentials were not provided.", body.Get("detail").String())

	status, body = tc.do(http.MethodGet, "/squads/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "token_not_valid", body.Get("code").String())

	status, _ = tc.do(http.MethodGet, "/public/squads/", "garbage", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRefresh(t *testing.T) {
	tc := newTestClient(t, Config{})
	access, refresh := tc.login("+254700000000")

	tc.srv.ExpireAccessTokens()
	status, _ := tc.do(http.MethodGet, "/squads/", access, nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, body := tc.do(http.MethodPost, "/auth/refresh/", "", map[string]string{"refresh": refresh})
	require.Equal(t, http.StatusOK, status, body.Raw)
	renewed := body.Get("access").String()
	assert.NotEqual(t, access, renewed)
	assert.False(t, body.Get("refresh").Exists())

	status, _ = tc.do(http.MethodGet, "/squads/", renewed, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = tc.do(http.MethodPost, "/auth/refresh/", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "This field is required.", body.Get("refresh.0").String())

	status, body = tc.do(http.MethodPost, "/auth/refresh/", "", map[string]string{"refresh": access})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "token_not_valid", body.Get("code").String())

	tc.srv.RevokeRefreshTokens()
	status, _ = tc.do(http.MethodPost, "/auth/refresh/", "", map[string]string{"refresh": refresh})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRefreshRotation(t *testing.T) {
	tc := newTestClient(t, Config{RotateRefreshTokens: true})
	_, refresh := tc.login("+254700000000")

	status, body := tc.do(http.MethodPost, "/auth/refresh/", "", map[string]string{"refresh": refresh})
	require.Equal(t, http.StatusOK, status)
	rotated := body.Get("refresh").String()
	require.NotEmpty(t, rotated)

	status, _ = tc.do(http.MethodPost, "/auth/refresh/", "", map[string]string{"refresh": refresh})
	assert.Equal(t, http.StatusUnauthorized, status, "old refresh token must be blacklisted")

	status, _ = tc.do(http.MethodPost, "/auth/refresh/", "", map[string]string{"refresh": rotated})
	assert.Equal(t, http.StatusOK, status)
}

func TestAccessTokenExpiry(t *testing.T) {
	tc := newTestClient(t, Config{AccessTTL: time.Minute})
	now := time.Now()
	tc.srv.tokens.now = func() time.Time { return now }
	access, _ := tc.login("+254700000000")

	tc.srv.tokens.now = func() time.Time { return now.Add(2 * time.Minute) }
	status, body := tc.do(http.MethodGet, "/auth/profile/", access, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "token_not_valid", body.Get("code").String())
}

func TestLogoutBlacklistsRefreshToken(t *testing.T) {
	tc := newTestClient(t, Config{})
	access, refresh := tc.login("+254700000000")

	status, body := tc.do(http.MethodPost, "/auth/logout/", access, map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logout successful", body.Get("message").String())

	status, _ = tc.do(http.MethodPost, "/auth/refresh/", "", map[string]string{"refresh": refresh})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = tc.do(http.MethodPost, "/auth/logout/", access, map[string]string{"refresh_token": refresh})
	assert.Equal(t, http.StatusOK, status, "logging out twice is not an error")
}

func TestSquadMembership(t *testing.T) {
	tc := newTestClient(t, Config{})
	owner, _ := tc.login("+254700000001")
	member, _ := tc.login("+254700000002")

	squadID := tc.createSquad(owner, "Kilimani Voters", true)

	status, body := tc.do(http.MethodGet, "/squads/my_membership/", owner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "leader", body.Get("role").String())
	assert.Equal(t, squadID, body.Get("squad.id").String())

	status, body = tc.do(http.MethodGet, "/squads/my_membership/", member, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Not a member of any squad", body.Get("message").String())

	status, body = tc.do(http.MethodPost, "/squads/"+squadID+"/join/", owner, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You are the owner of this squad and cannot join it as a member.", body.Get("error").String())

	status, body = tc.do(http.MethodPost, "/squads/"+squadID+"/join/", member, nil)
	require.Equal(t, http.StatusCreated, status, body.Raw)
	assert.Equal(t, "Successfully joined the squad", body.Get("message").String())
	assert.Equal(t, "member", body.Get("membership.role").String())

	status, body = tc.do(http.MethodGet, "/squads/"+squadID+"/", member, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(2), body.Get("member_count").Int())

	otherID := tc.createSquad(owner, "Westlands Voters", true)
	status, body = tc.do(http.MethodPost, "/squads/"+otherID+"/join/", member, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Get("error").String(), "Leave that squad first")

	status, body = tc.do(http.MethodPost, "/squads/"+squadID+"/leave/", owner, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cannot leave squad. You are the only leader.", body.Get("error").String())

	status, body = tc.do(http.MethodPost, "/squads/"+squadID+"/leave/", member, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Successfully left the squad", body.Get("message").String())

	status, body = tc.do(http.MethodPost, "/squads/"+squadID+"/leave/", member, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You are not a member of this squad", body.Get("error").String())

	status, body = tc.do(http.MethodDelete, "/squads/clear_membership/", owner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Cleared 2 membership(s)", body.Get("message").String())
}

func TestPrivateSquadsAreHidden(t *testing.T) {
	tc := newTestClient(t, Config{})
	owner, _ := tc.login("+254700000001")
	stranger, _ := tc.login("+254700000002")

	squadID := tc.createSquad(owner, "Private Squad", false)

	status, _ := tc.do(http.MethodGet, "/squads/"+squadID+"/", stranger, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body := tc.do(http.MethodGet, "/squads/", stranger, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(0), body.Get("count").Int())

	status, body = tc.do(http.MethodGet, "/public/squads/", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body.Array())
}

func TestSquadValidation(t *testing.T) {
	tc := newTestClient(t, Config{})
	token, _ := tc.login("+254700000001")

	status, body := tc.do(http.MethodPost, "/squads/", token, map[string]any{"name": "No County"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.True(t, body.Get("county").Exists(), body.Raw)
	assert.True(t, body.Get("voter_registration_date").Exists(), body.Raw)

	center := map[string]string{"name": "KICC", "county": "Nairobi"}
	squad := map[string]any{
		"name":                    "First",
		"county":                  "Nairobi",
		"voter_registration_date": "2027-01-15",
		"registration_center":     center,
	}
	status, body = tc.do(http.MethodPost, "/squads/", token, squad)
	require.Equal(t, http.StatusCreated, status, body.Raw)
	assert.Equal(t, "KICC", body.Get("registration_center.name").String())

	squad["name"] = "Second"
	status, body = tc.do(http.MethodPost, "/squads/", token, squad)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Get("non_field_errors.0").String(), `Please join "First"`)
}

func TestSquadListPagination(t *testing.T) {
	tc := newTestClient(t, Config{})
	token, _ := tc.login("+254700000001")
	for i := 0; i < defaultPageSize+5; i++ {
		tc.createSquad(token, fmt.Sprintf("Squad %02d", i), true)
	}

	status, body := tc.do(http.MethodGet, "/squads/?county=Nairobi", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(defaultPageSize+5), body.Get("count").Int())
	assert.Len(t, body.Get("results").Array(), defaultPageSize)
	assert.Contains(t, body.Get("next").String(), "page=2")
	assert.Contains(t, body.Get("next").String(), "county=Nairobi")
	assert.False(t, body.Get("previous").Exists())

	status, body = tc.do(http.MethodGet, "/squads/?county=Nairobi&page=2", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body.Get("results").Array(), 5)
	assert.False(t, body.Get("next").Exists())
	assert.NotContains(t, body.Get("previous").String(), "page=")

	status, _ = tc.do(http.MethodGet, "/squads/?page=9", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLeaderboard(t *testing.T) {
	tc := newTestClient(t, Config{})
	owner, _ := tc.login("+254700000001")
	member, _ := tc.login("+254700000002")

	small := tc.createSquad(owner, "Small", true)
	big := tc.createSquad(member, "Big", true)
	other, _ := tc.login("+254700000003")
	status, _ := tc.do(http.MethodPost, "/squads/"+big+"/join/", other, nil)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, small)

	status, body := tc.do(http.MethodGet, "/squads/leaderboard/?county=Nairobi", owner, nil)
	require.Equal(t, http.StatusOK, status)
	entries := body.Array()
	require.Len(t, entries, 2)
	assert.Equal(t, "Big", entries[0].Get("squad_name").String())
	assert.Equal(t, int64(2), entries[0].Get("member_count").Int())

	status, body = tc.do(http.MethodGet, "/squads/leaderboard/?county=Kisumu", owner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body.Array())
}

func TestCenters(t *testing.T) {
	tc := newTestClient(t, Config{})
	token, _ := tc.login("+254700000001")

	status, body := tc.do(http.MethodGet, "/centers/?search=kasarani", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, int64(1), body.Get("count").Int())
	centerID := body.Get("results.0.id").String()

	status, body = tc.do(http.MethodGet, "/centers/"+centerID+"/", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Kasarani Primary School", body.Get("name").String())

	status, body = tc.do(http.MethodGet, "/centers/county/Tharaka%20Nithi/", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body.Array(), 1)

	status, body = tc.do(http.MethodGet, "/centers/nearby/?lat=-1.2864&lng=36.8172&radius=15", token, nil)
	require.Equal(t, http.StatusOK, status)
	nearby := body.Array()
	require.Len(t, nearby, 2)
	assert.Equal(t, "Kenyatta International Convention Centre", nearby[0].Get("name").String())

	status, body = tc.do(http.MethodGet, "/centers/nearby/?lat=abc&lng=36.8", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.True(t, body.Get("lat").Exists())

	status, _ = tc.do(http.MethodGet, "/centers/missing/", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEventsAndRSVP(t *testing.T) {
	tc := newTestClient(t, Config{})
	leader, _ := tc.login("+254700000001")
	member, _ := tc.login("+254700000002")
	stranger, _ := tc.login("+254700000003")

	squadID := tc.createSquad(leader, "Event Squad", true)
	status, _ := tc.do(http.MethodPost, "/squads/"+squadID+"/join/", member, nil)
	require.Equal(t, http.StatusCreated, status)

	_, centers := tc.do(http.MethodGet, "/centers/", leader, nil)
	centerID := centers.Get("results.0.id").String()

	event := map[string]any{
		"squad":         squadID,
		"center":        centerID,
		"datetime":      time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"meeting_point": "Main gate",
	}
	status, body := tc.do(http.MethodPost, "/events/", member, event)
	assert.Equal(t, http.StatusForbidden, status, body.Raw)

	status, body = tc.do(http.MethodPost, "/events/", leader, event)
	require.Equal(t, http.StatusCreated, status, body.Raw)
	eventID := body.Get("id").String()

	status, body = tc.do(http.MethodPost, "/events/"+eventID+"/rsvp/", member, map[string]string{})
	require.Equal(t, http.StatusOK, status, body.Raw)
	assert.Equal(t, "RSVP updated successfully", body.Get("message").String())
	assert.Equal(t, "maybe", body.Get("rsvp.status").String())

	status, body = tc.do(http.MethodPost, "/events/"+eventID+"/rsvp/", member, map[string]string{"status": "yes"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "yes", body.Get("rsvp.status").String())

	status, _ = tc.do(http.MethodPost, "/events/"+eventID+"/rsvp/", member, map[string]string{"status": "perhaps"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = tc.do(http.MethodGet, "/events/"+eventID+"/", member, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), body.Get("rsvp_counts.yes").Int())

	status, body = tc.do(http.MethodGet, "/events/upcoming/", member, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body.Array(), 1)

	status, body = tc.do(http.MethodGet, "/events/squad/"+squadID+"/", stranger, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body.Array())

	status, _ = tc.do(http.MethodGet, "/events/"+eventID+"/", stranger, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestInvites(t *testing.T) {
	tc := newTestClient(t, Config{})
	owner, _ := tc.login("+254700000001")
	other, _ := tc.login("+254700000002")
	squadID := tc.createSquad(owner, "Invite Squad", true)

	status, body := tc.do(http.MethodPost, "/invites/whatsapp/", owner, map[string]any{
		"squad_id":      squadID,
		"phone_numbers": []string{"+254711111111", "+254722222222"},
	})
	require.Equal(t, http.StatusCreated, status, body.Raw)
	assert.Equal(t, "Successfully created 2 invites", body.Get("message").String())
	assert.Contains(t, body.Get("invites.0.message").String(), "https://pamoja.vote/join/"+squadID)
	assert.Contains(t, body.Get("whatsapp_links.0").String(), "https://wa.me/254711111111?text=")

	status, body = tc.do(http.MethodPost, "/invites/whatsapp/", owner, map[string]any{
		"phone_numbers": []string{"+254711111111"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.True(t, body.Get("squad_id").Exists(), body.Raw)

	status, body = tc.do(http.MethodPost, "/invites/bulk/", owner, map[string]any{"squad_id": squadID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "phone_numbers is required", body.Get("error").String())

	status, body = tc.do(http.MethodPost, "/invites/bulk/", other, map[string]any{
		"squad_id":      squadID,
		"phone_numbers": []string{"+254733333333"},
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Successfully created 0 invites", body.Get("message").String())

	status, body = tc.do(http.MethodPost, "/invites/bulk/", owner, map[string]any{
		"squad_id":      squadID,
		"channel":       "sms",
		"phone_numbers": []string{"+254733333333"},
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "sms", body.Get("invites.0.channel").String())
	assert.Contains(t, body.Get("invites.0.message").String(), "'Invite Squad'")

	status, body = tc.do(http.MethodGet, "/invites/", owner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body.Array(), 3)
}

func TestUnknownRoute(t *testing.T) {
	tc := newTestClient(t, Config{})

	status, body := tc.do(http.MethodGet, "/nope/", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not found.", body.Get("detail").String())
}
