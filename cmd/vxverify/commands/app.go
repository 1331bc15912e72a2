package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vxverify/vxverify/internal/config"
	"github.com/vxverify/vxverify/internal/logging"
	"github.com/vxverify/vxverify/internal/metrics"
	"github.com/vxverify/vxverify/internal/tracing"
	"github.com/vxverify/vxverify/internal/vx"
	"github.com/vxverify/vxverify/internal/vxapi"
	"go.uber.org/zap"
)

// Exit codes returned by the binary.
const (
	exitError       = 1
	exitNotVerified = 2
	exitNoRecord    = 3
)

// errNotVerified is returned when every step succeeded but at least one
// round did not verify.
var errNotVerified = errors.New("not verified")

// ExitCode maps a command error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errNotVerified):
		return exitNotVerified
	case errors.Is(err, vx.ErrNoRecord):
		return exitNoRecord
	default:
		return exitError
	}
}

// loadConfig resolves the effective config: file (or defaults when the
// default path is absent), dotenv and environment, then command-line flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadOrDefault(cfgFile)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var dotenv []string
	if envFile != "" {
		dotenv = append(dotenv, envFile)
	}
	if err := cfg.ApplyEnv(dotenv...); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if traceSpans {
		cfg.Tracing.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return cfg, nil
}

// app bundles everything a network command needs.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	client   *vxapi.Client
	svc      *vx.Service
	recorder *metrics.Recorder
	shutdown []tracing.ShutdownFunc
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Setup(cmd.ErrOrStderr(), version)
		if err != nil {
			return nil, err
		}
		a.shutdown = append(a.shutdown, shutdown)
	}

	a.recorder, err = metrics.NewRecorder()
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	a.client = vxapi.NewClient(vxapi.Options{
		Endpoint:   cfg.Server.URL,
		AppSlug:    cfg.Oracle.AppSlug,
		Timeout:    cfg.Server.Timeout,
		MaxRetries: cfg.Server.MaxRetries,
		UserAgent:  "vxverify/" + version,
		Logger:     logger,
	})

	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	a.svc, err = vx.NewService(params, a.client,
		vx.WithLogger(logger),
		vx.WithObserver(a.recorder),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Close flushes spans and logs.
func (a *app) Close(ctx context.Context) {
	for _, fn := range a.shutdown {
		if err := fn(ctx); err != nil {
			a.logger.Warn("flushing spans", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
