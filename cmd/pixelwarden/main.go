// Package main is the entry point for pixelwarden.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"pixelwarden/application"
	"pixelwarden/application/processing"
	"pixelwarden/core/event"
	"pixelwarden/core/eventbus"
	"pixelwarden/domain/report"
	"pixelwarden/domain/scenario"
	"pixelwarden/infrastructure/capture"
	"pixelwarden/infrastructure/logging"
	"pixelwarden/infrastructure/repository"
	"pixelwarden/infrastructure/templates"
	"pixelwarden/resources"
)

func main() {
	scenarioName := flag.String("scenario", "", "scenario to run (required)")
	targetURL := flag.String("url", "", "URL to open on the capture surface")
	resourcesDir := flag.String("resources", "", "directory with scenarios/ and templates/ (optional)")
	mongoURI := flag.String("mongo", "", "MongoDB URI for scenario storage and run reports (optional)")
	frameRate := flag.Float64("fps", 0, "capture rate in frames per second")
	headful := flag.Bool("headful", false, "run the browser with a visible window")
	flag.Parse()

	// Initialize logging (dev: console only, prod: rotating file)
	logger, closeLog, err := logging.Setup(nil)
	if err != nil {
		os.Stderr.WriteString("Failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	if *scenarioName == "" {
		logger.Error("No scenario specified, use -scenario")
		os.Exit(1)
	}

	logger.Info("Starting pixelwarden", "scenario", *scenarioName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load bundled scenarios, then any from the resources directory.
	registry := scenario.NewRegistry()
	loader := scenario.NewLoader(registry)
	if err := loader.LoadFromFS(resources.ScenarioFiles); err != nil {
		logger.Error("Failed to load bundled scenarios", "error", err)
		os.Exit(1)
	}
	if *resourcesDir != "" {
		if err := loader.LoadFromFS(os.DirFS(*resourcesDir)); err != nil {
			logger.Error("Failed to load scenarios", "dir", *resourcesDir, "error", err)
			os.Exit(1)
		}
	}

	// Optional MongoDB: stored scenarios override bundled ones, and run
	// reports are recorded.
	var reportRepo report.Repository
	if *mongoURI != "" {
		cfg := repository.DefaultMongoDBConfig()
		cfg.URI = *mongoURI

		mongoDB, err := repository.NewMongoDB(ctx, cfg, logger)
		if err != nil {
			logger.Error("Failed to initialize MongoDB", "error", err)
			os.Exit(1)
		}
		defer mongoDB.Close(context.Background())

		scenarioRepo := repository.NewMongoScenarioRepository(mongoDB, logger)
		stored, err := scenario.NewService(scenarioRepo).ListScenarios(ctx)
		if err != nil {
			logger.Error("Failed to load stored scenarios", "error", err)
			os.Exit(1)
		}
		registry.RegisterAll(stored)

		reportRepo = repository.NewMongoReportRepository(mongoDB, logger)
	}
	logger.Info("Scenarios loaded", "count", registry.Count())

	// Template bitmaps come from the resources directory.
	templateRoot := *resourcesDir
	if templateRoot == "" {
		templateRoot = "."
	}
	provider := templates.NewProvider(os.DirFS(templateRoot))

	eventBus := eventbus.New(100)
	defer eventBus.Close()

	coordinator := application.NewCoordinator(&application.CoordinatorConfig{
		EventBus: eventBus,
		Registry: registry,
		Supplier: processing.BitmapSupplier(provider.Supply),
		Reports:  reportRepo,
		DriverFactory: func() capture.Driver {
			cfg := capture.DefaultDriverConfig()
			cfg.Headless = !*headful
			return capture.NewChromeDPDriver(cfg)
		},
		TargetURL: *targetURL,
		FrameRate: *frameRate,
		Logger:    logger,
	})
	defer coordinator.StopAll()

	runID, err := coordinator.StartScenario(ctx, *scenarioName)
	if err != nil {
		logger.Error("Failed to start scenario", "error", err)
		os.Exit(1)
	}

	// Exit when the run stops on its own or on SIGINT/SIGTERM.
	runDone := make(chan struct{})
	eventBus.SubscribeRun(runID, func(e event.Event) {
		if _, ok := e.(*event.RunStopped); ok {
			close(runDone)
		}
	})

	select {
	case <-runDone:
		logger.Info("Run finished")
	case <-ctx.Done():
		logger.Info("Shutdown requested")
	}

	logger.Info("Application shutdown complete")
}
