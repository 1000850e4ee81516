// Command pamoja is a terminal client for the PamojaVote backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pamojavote/pamoja-go/api"
	"github.com/pamojavote/pamoja-go/config"
	"github.com/pamojavote/pamoja-go/gateway"
	"github.com/pamojavote/pamoja-go/models"
	"github.com/pamojavote/pamoja-go/otel"
	"github.com/pamojavote/pamoja-go/queue"
	"github.com/pamojavote/pamoja-go/session"
	"github.com/pamojavote/pamoja-go/stations"
	"github.com/pamojavote/pamoja-go/utils/logger"
)

const serviceName = "pamoja-cli"

const (
	exitOK          = 0
	exitError       = 1
	exitAuthExpired = 2
)

// app carries everything a command needs.
type app struct {
	cfg      *config.Config
	client   *api.Client
	stations *stations.Cache
	out      io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(stdout)
		return exitOK
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return exitError
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	logCfg := cfg.LoggerConfig()
	logCfg.ServiceName = serviceName
	logCfg.Encoding = "console"
	logCfg.OutputPaths = []string{"stderr"}
	logger.Init(logCfg)
	defer logger.Sync()

	shutdown, err := otel.Setup(ctx, cfg.TelemetryConfig(serviceName))
	if err != nil {
		logger.LogWarn("telemetry disabled", zap.Error(err))
	} else {
		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.LogWarn("telemetry shutdown failed", zap.Error(err))
			}
		}()
	}

	a, cleanup, err := newApp(ctx, cfg, stdout)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer cleanup()

	return exitCode(stderr, cmd.run(ctx, a, args[1:]))
}

func newApp(ctx context.Context, cfg *config.Config, stdout io.Writer) (*app, func(), error) {
	store, err := session.Open(ctx, cfg.SessionConfig())
	if err != nil {
		return nil, nil, err
	}
	closers := []io.Closer{store}

	listeners := gateway.MultiListener{
		gateway.ListenerFunc(func(_ context.Context, event models.SessionEvent) {
			logger.LogDebug("session event", zap.String("event", event.Name), zap.String("user_id", event.UserID))
		}),
	}
	if queueCfg, enabled := cfg.PublisherConfig(); enabled {
		conn, err := queue.NewConnection(queueCfg)
		if err != nil {
			logger.LogWarn("session events disabled", zap.Error(err))
		} else {
			publisher := queue.NewPublisher(conn, zap.L())
			closers = append(closers, publisher)
			listeners = append(listeners, publisher)
		}
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.LogDebug("close failed", zap.Error(err))
			}
		}
	}

	gw, err := gateway.New(cfg.API.BaseURL, store,
		gateway.WithTimeout(cfg.API.Timeout),
		gateway.WithLogger(zap.L()),
		gateway.WithServiceName(serviceName),
		gateway.WithListener(listeners),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return &app{
		cfg:      cfg,
		client:   api.New(gw),
		stations: stations.NewCache(stations.NewSource(cfg.Stations.Source, cfg.API.Timeout), stations.DefaultStaleTime),
		out:      stdout,
	}, cleanup, nil
}

// exitCode maps a command error to the process exit status. An expired
// session sends the user back to login.
func exitCode(stderr io.Writer, err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, gateway.ErrAuthExpired) {
		fmt.Fprintln(stderr, "session expired, run `pamoja login`")
		return exitAuthExpired
	}

	var gwErr *gateway.Error
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		fmt.Fprintln(stderr, gwErr.Message)
		for field, detail := range gwErr.Fields {
			fmt.Fprintf(stderr, "  %s: %v\n", field, detail)
		}
		return exitError
	}
	fmt.Fprintln(stderr, err)
	return exitError
}
