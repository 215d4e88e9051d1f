// Code generated manually. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package wire

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/docsync/internal/config"
	"github.com/sevigo/docsync/internal/core"
	"github.com/sevigo/docsync/internal/deltadetector"
	"github.com/sevigo/docsync/internal/hydrator"
	"github.com/sevigo/docsync/internal/jobs"
	"github.com/sevigo/docsync/internal/logger"
	"github.com/sevigo/docsync/internal/stager"
	"github.com/sevigo/docsync/internal/statestore"
	"github.com/sevigo/docsync/internal/syncmanager"
	"github.com/sevigo/docsync/internal/vsadapter"
	"github.com/sevigo/docsync/internal/xsadapter"
)

// App bundles the wired dependencies cmd/cli needs, the same role the
// teacher's *app.App struct plays for its server/terminal/cli entrypoints.
type App struct {
	Cfg        *config.Config
	Logger     *slog.Logger
	State      *statestore.Store
	VS         vsadapter.VS
	XS         *xsadapter.Store
	Manager    *syncmanager.Manager
	Dispatcher core.Dispatcher
}

// InitializeApp creates and wires all application dependencies.
func InitializeApp(ctx context.Context) (*App, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	slogLogger := logger.NewLogger(cfg.Logging, nil)
	slog.SetDefault(slogLogger)

	state, err := statestore.Open(cfg.StateStore)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open state store: %w", err)
	}

	vsClient := provideVSClient(cfg, logger.NewComponentLogger(cfg.Logging, nil, "vsadapter"))

	xsStore, err := xsadapter.Open(logger.NewComponentLogger(cfg.Logging, nil, "xsadapter"), cfg.XS.DataPath)
	if err != nil {
		state.Close()
		return nil, nil, fmt.Errorf("failed to open xs store: %w", err)
	}

	embedFn, err := provideEmbedFunc(cfg, logger.NewComponentLogger(cfg.Logging, nil, "embedder"))
	if err != nil {
		state.Close()
		xsStore.Close()
		return nil, nil, fmt.Errorf("failed to build embedder: %w", err)
	}

	detector := deltadetector.New(vsClient, xsStore, state)
	stg := stager.New(vsClient, xsStore, state, logger.NewComponentLogger(cfg.Logging, nil, "stager"))
	hyd := hydrator.New(vsClient, xsStore, state, embedFn, cfg.Embedder.Concurrency, logger.NewComponentLogger(cfg.Logging, nil, "hydrator"))

	locks := syncmanager.NewLockRegistry()
	manager := syncmanager.New(cfg.VS.RepositoryPath, vsClient, xsStore, state, detector, stg, hyd, locks, logger.NewComponentLogger(cfg.Logging, nil, "syncmanager"))

	dispatcher := jobs.NewDispatcher(4, logger.NewComponentLogger(cfg.Logging, nil, "dispatcher"))

	app := &App{
		Cfg: cfg, Logger: slogLogger, State: state, VS: vsClient, XS: xsStore,
		Manager: manager, Dispatcher: dispatcher,
	}

	cleanup := func() {
		dispatcher.Stop()
		xsStore.Close()
		state.Close()
	}

	return app, cleanup, nil
}

// EnsureVSLive resolves path alignment (§4.8) against the configured VS path
// and returns the effective directory the adapter ends up pointed at,
// updating the live client in place.
func (a *App) EnsureVSLive(projectRoot string) (string, error) {
	client, ok := a.VS.(*vsadapter.Client)
	if !ok {
		return a.Cfg.VS.RepositoryPath, nil
	}

	effective, err := vsadapter.ResolveEffectivePath(a.Cfg.VS.RepositoryPath, projectRoot)
	if err != nil {
		return "", err
	}
	if effective != client.EffectivePath() {
		client.SetEffectivePath(effective)
	}
	return effective, nil
}
