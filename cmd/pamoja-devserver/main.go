// Command pamoja-devserver runs the in-memory PamojaVote backend for local
// development.
//
// SIGUSR1 expires every access token and SIGUSR2 revokes every refresh
// token, which lets a running client exercise renewal and session expiry.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pamojavote/pamoja-go/config"
	"github.com/pamojavote/pamoja-go/devserver"
	"github.com/pamojavote/pamoja-go/models"
	"github.com/pamojavote/pamoja-go/otel"
	"github.com/pamojavote/pamoja-go/stations"
	"github.com/pamojavote/pamoja-go/utils/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.LogFatal("failed to load configuration", zap.Error(err))
	}

	logCfg := cfg.LoggerConfig()
	logCfg.ServiceName = devserver.DefaultServiceName
	logger.Init(logCfg)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := otel.Setup(ctx, cfg.TelemetryConfig(devserver.DefaultServiceName))
	if err != nil {
		logger.LogFatal("failed to set up telemetry", zap.Error(err))
	}

	serverCfg := cfg.ServerConfig()
	serverCfg.ServiceName = devserver.DefaultServiceName
	serverCfg.Centers = loadCenters(ctx, cfg)
	server := devserver.New(serverCfg)

	go handleTokenSignals(ctx, server)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.LogError("devserver stopped", zap.Error(err))
		}
	case <-ctx.Done():
		logger.LogInfo("shutting down devserver")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.LogError("failed to shut down devserver", zap.Error(err))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.LogError("failed to shut down telemetry", zap.Error(err))
	}
}

// loadCenters seeds registration centers from the polling-station dataset.
// The built-in centers are used when it cannot be read.
func loadCenters(ctx context.Context, cfg *config.Config) []models.Center {
	source := stations.NewSource(cfg.Stations.Source, cfg.API.Timeout)
	centers, err := stations.NewCache(source, stations.DefaultStaleTime).Centers(ctx)
	if err != nil {
		logger.LogWarn("using built-in registration centers",
			zap.String("source", cfg.Stations.Source), zap.Error(err))
		return nil
	}
	logger.LogInfo("loaded registration centers", zap.Int("count", len(centers)))
	return centers
}

func handleTokenSignals(ctx context.Context, server *devserver.Server) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(signals)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-signals:
			switch sig {
			case syscall.SIGUSR1:
				server.ExpireAccessTokens()
				logger.LogInfo("expired access tokens")
			case syscall.SIGUSR2:
				server.RevokeRefreshTokens()
				logger.LogInfo("revoked refresh tokens")
			}
		}
	}
}
