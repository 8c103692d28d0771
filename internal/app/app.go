package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vk/taskroute/internal/config"
	"github.com/vk/taskroute/internal/ctxlog"
	"github.com/vk/taskroute/internal/di"
	"github.com/vk/taskroute/internal/dispatcher"
	"github.com/vk/taskroute/internal/registry"
	"github.com/vk/taskroute/internal/router"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	appConfig  *Config
	logger     *slog.Logger
	registry   *registry.Registry
	config     *config.Model
	container  *di.Container
	router     *router.Router
	dispatcher *dispatcher.Dispatcher
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger, registry and
// container. Configuration and registry errors are fatal and panic.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logW := appConfig.LogWriter
	if logW == nil {
		logW = outW
	}
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cfgModel, converter, err := loader.Load(ctx, appConfig.paths()...)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.", "tasks", len(cfgModel.Tasks))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	reg.PopulateDefinitionsFromModel(cfgModel)
	if err := reg.ValidateRegistry(ctx); err != nil {
		// A mismatch between code and manifests is a programmer error.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	container := di.New()
	container.Set(di.ServiceLogger, logger)
	container.Set(di.ServiceOutput, outW)
	container.Set(di.ServiceRegistry, reg)
	container.Set(di.ServiceConfig, cfgModel)
	for name, factory := range sharedServices {
		container.SetShared(name, factory)
	}

	r := newRouter(cfgModel.Router)
	r.SetDI(container)
	container.Set(di.ServiceRouter, r)
	logger.Debug("Service container ready.", "services", container.Names())

	d := dispatcher.New(reg, converter, *cfgModel.Dispatcher)
	d.SetDI(container)

	return &App{
		appConfig:  appConfig,
		logger:     logger,
		registry:   reg,
		config:     cfgModel,
		container:  container,
		router:     r,
		dispatcher: d,
	}
}

// newRouter creates a router holding the configured defaults.
func newRouter(defaults *config.RouterDefaults) *router.Router {
	r := router.New()
	if defaults == nil {
		return r
	}
	if defaults.Module != nil {
		r.SetDefaultModule(*defaults.Module)
	}
	if defaults.Task != nil {
		r.SetDefaultTask(*defaults.Task)
	}
	if defaults.Action != nil {
		r.SetDefaultAction(*defaults.Action)
	}
	r.SetDefaultParams(router.Params(defaults.Params))
	return r
}

// Run routes the configured arguments and dispatches the resulting action.
func (a *App) Run(ctx context.Context) error {
	logger := a.logger.With("invocation_id", uuid.NewString())
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("App.Run method started.", "arguments", len(a.appConfig.Arguments))

	if err := a.router.Handle(a.appConfig.Arguments); err != nil {
		return fmt.Errorf("failed to route arguments: %w", err)
	}
	route := dispatcher.FromRouter(a.router)

	if err := a.dispatcher.Dispatch(ctx, route); err != nil {
		return err
	}
	logger.Debug("App.Run method finished.")
	return nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Router returns the application's router.
func (a *App) Router() *router.Router {
	return a.router
}

// Container returns the application's service container.
func (a *App) Container() *di.Container {
	return a.container
}
