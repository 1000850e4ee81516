package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pamojavote/pamoja-go/devserver"
	"github.com/pamojavote/pamoja-go/gateway"
)

const testPhone = "+254700000000"

const stationsDocument = `{"type":"FeatureCollection","features":[
{"type":"Feature","geometry":{"type":"Point","coordinates":[36.8172,-1.2864]},"properties":{"name":"KICC","ward":"Nairobi Central","county":"Nairobi","constituen":"Starehe"}},
{"type":"Feature","geometry":{"type":"Point","coordinates":[34.7617,-0.1022]},"properties":{"name":"Kisumu Social Hall","ward":"Market Milimani","county":"Kisumu","constituen":"Kisumu Central"}}
]}`

type cli struct {
	t   *testing.T
	srv *devserver.Server
}

// newCLI points the command at a fresh dev server with a file-backed session
// so state survives between invocations.
func newCLI(t *testing.T) *cli {
	t.Helper()
	srv := devserver.New(devserver.Config{})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	stationsFile := filepath.Join(dir, "stations.geojson")
	require.NoError(t, os.WriteFile(stationsFile, []byte(stationsDocument), 0o600))

	t.Setenv("PAMOJA_API_BASE_URL", ts.URL+"/api")
	t.Setenv("PAMOJA_STORAGE", "file")
	t.Setenv("PAMOJA_SESSION_FILE", filepath.Join(dir, "session.json"))
	t.Setenv("PAMOJA_STATIONS_SOURCE", stationsFile)
	t.Setenv("PAMOJA_AMQP_URI", "")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
	return &cli{t: t, srv: srv}
}

func (c *cli) run(args ...string) (int, string, string) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitOK, run(context.Background(), nil, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "usage: pamoja <command>")
	assert.Contains(t, stdout.String(), "verify <phone> <otp>")

	stdout.Reset()
	assert.Equal(t, exitError, run(context.Background(), []string{"vote"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), `unknown command "vote"`)
}

func TestLoginFlow(t *testing.T) {
	c := newCLI(t)

	code, out, _ := c.run("login", testPhone)
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "OTP sent to your phone number.")
	assert.Contains(t, out, "development OTP: "+devserver.DefaultOTP)

	code, _, errOut := c.run("verify", testPhone, "000000")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "Invalid OTP.")

	code, out, _ = c.run("verify", testPhone, devserver.DefaultOTP)
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "signed in as "+testPhone)

	code, out, _ = c.run("whoami")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, testPhone)
	assert.Contains(t, out, "access token expires")

	code, out, _ = c.run("squads")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "0 of 0")

	code, out, _ = c.run("logout")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "signed out")

	code, out, _ = c.run("whoami")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "not signed in")
}

func TestSessionExpiredExitCode(t *testing.T) {
	c := newCLI(t)
	require.Equal(t, exitOK, first(c.run("verify", testPhone, devserver.DefaultOTP)))

	c.srv.ExpireAccessTokens()
	code, _, _ := c.run("membership")
	assert.Equal(t, exitOK, code, "a valid refresh token renews transparently")

	c.srv.ExpireAccessTokens()
	c.srv.RevokeRefreshTokens()
	code, _, errOut := c.run("membership")
	assert.Equal(t, exitAuthExpired, code)
	assert.Contains(t, errOut, "session expired, run `pamoja login`")
}

func TestArgumentErrors(t *testing.T) {
	c := newCLI(t)

	code, _, errOut := c.run("login")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "expected 1 argument(s), got 0")

	code, _, errOut = c.run("invite", "--squad", "abc")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "at least one phone number is required")
}

func TestStations(t *testing.T) {
	c := newCLI(t)

	code, out, _ := c.run("stations", "--county", "kisumu")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Kisumu Social Hall")
	assert.NotContains(t, out, "KICC")
	assert.Contains(t, out, "1 of 1")

	code, out, _ = c.run("stations", "--near", "-1.29,36.82", "--size", "1")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "KICC (Nairobi Central)")
	assert.NotContains(t, out, "Kisumu")

	code, _, _ = c.run("stations", "--near", "nowhere")
	assert.Equal(t, exitError, code)
}

func TestExitCode(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, exitOK, exitCode(&stderr, nil))

	err := &gateway.Error{Kind: gateway.KindValidation, Status: 400, Message: "This squad is full."}
	assert.Equal(t, exitError, exitCode(&stderr, err))
	assert.Contains(t, stderr.String(), "This squad is full.")

	stderr.Reset()
	assert.Equal(t, exitAuthExpired, exitCode(&stderr, &gateway.Error{Kind: gateway.KindAuthExpired}))

	stderr.Reset()
	assert.Equal(t, exitError, exitCode(&stderr, errors.New("boom")))
	assert.Equal(t, "boom\n", stderr.String())
}

func first(code int, _, _ string) int {
	return code
}
