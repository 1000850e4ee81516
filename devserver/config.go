package devserver

import (
	"time"

	"github.com/pamojavote/pamoja-go/models"
)

const (
	DefaultAddr        = ":8000"
	DefaultJWTSecret   = "dev-secret"
	DefaultAccessTTL   = 5 * time.Minute
	DefaultRefreshTTL  = 24 * time.Hour
	DefaultOTP         = "123456"
	DefaultServiceName = "pamoja-devserver"
	defaultPageSize    = 20
)

type Config struct {
	Addr        string
	JWTSecret   string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	ServiceName string
	// OTP is the one-time password every login accepts.
	OTP string
	// RotateRefreshTokens makes refresh answer with a new refresh token and
	// blacklist the old one.
	RotateRefreshTokens bool
	// Centers seeds the registration centers; a small built-in set is used
	// when empty.
	Centers []models.Center
}

func (c *Config) withDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.JWTSecret == "" {
		c.JWTSecret = DefaultJWTSecret
	}
	if c.AccessTTL <= 0 {
		c.AccessTTL = DefaultAccessTTL
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = DefaultRefreshTTL
	}
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.OTP == "" {
		c.OTP = DefaultOTP
	}
}
