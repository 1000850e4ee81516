package devserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/pamojavote/pamoja-go/interfaces/http/echo/middleware"
	otelecho "github.com/pamojavote/pamoja-go/otel/echo"
	"github.com/pamojavote/pamoja-go/utils"
	"github.com/pamojavote/pamoja-go/utils/logger"
)

// Server is an in-memory implementation of the PamojaVote REST backend,
// used for local development and end-to-end tests of the client.
type Server struct {
	cfg    Config
	echo   *echo.Echo
	tokens *tokenIssuer
	state  *state
	now    func() time.Time
}

func New(cfg Config) *Server {
	cfg.withDefaults()

	s := &Server{
		cfg:    cfg,
		tokens: newTokenIssuer(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL),
		state:  newState(cfg.Centers),
		now:    time.Now,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.Validator = &requestValidator{validate: utils.NewValidator()}
	e.HTTPErrorHandler = s.handleError
	e.Use(echomiddleware.Recover())
	e.Use(requestLogger())
	s.echo = e

	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.echo.Group("/api",
		middleware.SetTokenInContext(),
		otelecho.Middleware(s.cfg.ServiceName, nil),
	)
	auth := middleware.RequireAuth(s.tokens.verifyAccess)
	optional := middleware.SetSessionInContext(s.tokens.verifyAccess)

	api.POST("/auth/login/", s.login)
	api.POST("/auth/verify-otp/", s.verifyOTP)
	api.POST("/auth/refresh/", s.refresh)
	api.POST("/auth/logout/", s.logout, auth)
	api.GET("/auth/profile/", s.profile, auth)
	api.PATCH("/auth/profile/", s.updateProfile, auth)

	api.GET("/public/squads/", s.publicSquads, optional)

	squads := api.Group("/squads", auth)
	squads.GET("/", s.listSquads)
	squads.POST("/", s.createSquad)
	squads.GET("/my_squads/", s.mySquads)
	squads.GET("/my_membership/", s.myMembership)
	squads.DELETE("/clear_membership/", s.clearMembership)
	squads.GET("/leaderboard/", s.leaderboard)
	squads.GET("/:id/", s.getSquad)
	squads.POST("/:id/join/", s.joinSquad)
	squads.POST("/:id/leave/", s.leaveSquad)
	squads.GET("/:id/members/", s.squadMembers)
	squads.POST("/:id/message/", s.messageSquad)

	api.GET("/centers/", s.listCenters, auth)
	api.GET("/centers/county/:county/", s.centersByCounty, optional)
	api.GET("/centers/nearby/", s.nearbyCenters, auth)
	api.GET("/centers/:id/", s.getCenter, auth)

	events := api.Group("/events", auth)
	events.GET("/", s.listEvents)
	events.POST("/", s.createEvent)
	events.GET("/upcoming/", s.upcomingEvents)
	events.GET("/squad/:id/", s.squadEvents)
	events.GET("/:id/", s.getEvent)
	events.POST("/:id/rsvp/", s.rsvp)

	invites := api.Group("/invites", auth)
	invites.GET("/", s.listInvites)
	invites.POST("/", s.createInvite)
	invites.POST("/whatsapp/", s.whatsAppInvites)
	invites.POST("/bulk/", s.bulkInvites)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Echo exposes the underlying router, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start listens on cfg.Addr until Shutdown is called.
func (s *Server) Start() error {
	logger.LogInfo("starting devserver", zap.String("addr", s.cfg.Addr))
	if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ExpireAccessTokens invalidates every access token issued so far. Refresh
// tokens stay valid, so clients must renew on their next request.
func (s *Server) ExpireAccessTokens() {
	s.tokens.expireAccessTokens()
}

// RevokeRefreshTokens blacklists every refresh token issued so far. Combined
// with ExpireAccessTokens it ends all sessions.
func (s *Server) RevokeRefreshTokens() {
	s.tokens.revokeRefreshTokens()
}

func sessionUser(c echo.Context) string {
	userID, _ := c.Get(middleware.SessionUserKey).(string)
	return userID
}

type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "JSON parse error - "+err.Error()).SetInternal(err)
	}
	return nil
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		if fields := utils.FieldErrors(err); fields != nil {
			return fieldErrors(fields)
		}
		return err
	}
	return nil
}

func requestLogger() echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			logger.LogDebug("request",
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	})
}
