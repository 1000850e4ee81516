package devserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pamojavote/pamoja-go/models"
)

type loginRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,max=15"`
}

type verifyOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,max=15"`
	OTP         string `json:"otp" validate:"required,max=6"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

// login registers unknown phone numbers on the fly and "sends" the fixed
// development OTP back in the response.
func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	phone := strings.TrimSpace(req.PhoneNumber)

	s.state.mu.Lock()
	created := false
	if s.state.userByPhone(phone) == nil {
		s.state.createUser(phone, s.now())
		created = true
	}
	s.state.mu.Unlock()

	return c.JSON(http.StatusOK, models.OTPChallenge{
		Message:     "OTP sent to your phone number.",
		PhoneNumber: phone,
		OTP:         s.cfg.OTP,
		UserCreated: created,
	})
}

func (s *Server) verifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.OTP != s.cfg.OTP {
		return fieldErrors(map[string][]string{"non_field_errors": {"Invalid OTP."}})
	}

	s.state.mu.Lock()
	user := s.state.userByPhone(strings.TrimSpace(req.PhoneNumber))
	var snapshot models.User
	if user != nil {
		snapshot = *user
	}
	s.state.mu.Unlock()
	if user == nil {
		return fieldErrors(map[string][]string{"non_field_errors": {"User not found."}})
	}

	access, refresh, err := s.tokens.issuePair(snapshot.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.LoginResult{
		Message:      "Login successful",
		AccessToken:  access,
		RefreshToken: refresh,
		User:         snapshot,
	})
}

func (s *Server) refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Refresh == "" {
		return requiredField("refresh")
	}

	claims, err := s.tokens.parse(req.Refresh, tokenTypeRefresh)
	if err != nil {
		return newAPIError(http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
	}

	access, err := s.tokens.issue(claims.UserID, tokenTypeAccess, s.tokens.accessTTL)
	if err != nil {
		return err
	}
	out := models.RefreshResult{Access: access}
	if s.cfg.RotateRefreshTokens {
		if out.Refresh, err = s.tokens.issue(claims.UserID, tokenTypeRefresh, s.tokens.refreshTTL); err != nil {
			return err
		}
		s.tokens.revoke(claims)
	}
	return c.JSON(http.StatusOK, out)
}

// logout blacklists the refresh token when one is sent. Unknown or already
// revoked tokens are not an error.
func (s *Server) logout(c echo.Context) error {
	var req logoutRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.RefreshToken != "" {
		if claims, err := s.tokens.parse(req.RefreshToken, tokenTypeRefresh); err == nil {
			s.tokens.revoke(claims)
		}
	}
	return c.JSON(http.StatusOK, models.Message{Message: "Logout successful"})
}

func (s *Server) profile(c echo.Context) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	user, ok := s.state.users[sessionUser(c)]
	if !ok {
		return notFound()
	}
	return c.JSON(http.StatusOK, user)
}

func (s *Server) updateProfile(c echo.Context) error {
	var update models.ProfileUpdate
	if err := c.Bind(&update); err != nil {
		return err
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	user, ok := s.state.users[sessionUser(c)]
	if !ok {
		return notFound()
	}
	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.County != nil {
		user.County = *update.County
	}
	if update.ProfilePic != nil {
		user.ProfilePic = *update.ProfilePic
	}
	return c.JSON(http.StatusOK, user)
}
