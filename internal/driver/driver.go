// Package driver wires the pointer pipeline for the command line programs.
package driver

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ayusman/airpointer/internal/app"
	"github.com/ayusman/airpointer/internal/capture"
	"github.com/ayusman/airpointer/internal/config"
	"github.com/ayusman/airpointer/internal/detector"
	"github.com/ayusman/airpointer/internal/gesture"
	"github.com/ayusman/airpointer/internal/inject"
	"github.com/ayusman/airpointer/internal/logging"
	"github.com/ayusman/airpointer/internal/server"
	"github.com/ayusman/airpointer/internal/store"
	"github.com/ayusman/airpointer/internal/tray"
)

// Components is a wired pipeline. Store, Server and Tray are nil when
// disabled in the config.
type Components struct {
	Config *config.Config
	App    *app.App
	Store  *store.Store
	Server *server.Server
	Tray   *tray.Tray
	logger *slog.Logger
}

// Build wires the pipeline around the given hardware collaborators.
func Build(name string, cfg *config.Config, cam capture.Camera, det detector.Detector, p inject.Pointer, logger *slog.Logger) (*Components, error) {
	injectOpts, err := cfg.InjectOptions()
	if err != nil {
		return nil, err
	}
	dispatcher, err := inject.NewDispatcher(p, injectOpts, logger)
	if err != nil {
		return nil, err
	}

	_, screenHeight := dispatcher.ScreenSize()
	gcfg, err := cfg.ScreenGestureConfig(screenHeight)
	if err != nil {
		return nil, err
	}
	decoder, err := gesture.NewDecoder(gcfg)
	if err != nil {
		return nil, err
	}

	c := &Components{Config: cfg, logger: logger}

	if cfg.Store.Enabled {
		c.Store, err = store.New(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
	}

	var hub *server.Hub
	if cfg.Server.Enabled {
		hub = server.NewHub(logger)
	}

	appCfg := app.Config{
		Profile:    cfg.Profile,
		Camera:     cam,
		Detector:   det,
		Decoder:    decoder,
		Dispatcher: dispatcher,
		Store:      c.Store,
		Logger:     logger,
	}
	if hub != nil {
		appCfg.Publisher = hub
	}

	c.App, err = app.New(appCfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	if cfg.Server.Enabled {
		c.Server = server.New(server.Config{
			Store:  c.Store,
			Hub:    hub,
			Toggle: c.App,
			Logger: logger,
		})
	}

	if cfg.Tray.Enabled {
		c.Tray = tray.New(name, c.App.IsEnabled())
		c.Tray.OnToggle(c.App.SetEnabled)
		c.App.OnToggle(c.Tray.SetEnabled)
		c.App.OnEvent(c.Tray.ShowEvent)
	}

	return c, nil
}

// Close releases the journal.
func (c *Components) Close() {
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			c.logger.Warn("error closing journal", "error", err)
		}
		c.Store = nil
	}
}

// Run starts the pipeline and blocks until ctx ends, the loop exits or the
// tray quits. The tray, when present, runs on the calling goroutine.
func (c *Components) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := c.App.Start(ctx); err != nil {
		return err
	}
	defer c.App.Stop()

	serverErr := make(chan error, 1)
	if c.Server != nil {
		go func() {
			serverErr <- c.Server.Serve(ctx, c.Config.Server.Addr)
		}()
	}

	if c.Tray != nil {
		c.Tray.OnQuit(cancel)
		go func() {
			<-ctx.Done()
			c.Tray.Quit()
		}()
		c.Tray.Run()
		cancel()
	}

	select {
	case <-ctx.Done():
	case <-c.App.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("status server: %w", err)
		}
		<-ctx.Done()
		return nil
	}

	cancel()
	if c.Server != nil {
		if err := <-serverErr; err != nil {
			c.logger.Warn("status server shutdown", "error", err)
		}
	}
	return nil
}

// Main is the entry point shared by the pointer and scroll programs. It
// returns the process exit code.
func Main(name, profile string) int {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file (default: "+config.DefaultConfigPath()+")")
	profileFlag := fs.String("profile", profile, "gesture profile: pointer or scroll")
	fs.Parse(os.Args[1:])

	cfg, err := loadConfig(*configPath, *profileFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		return 1
	}
	slog.SetDefault(logger)

	printBanner(name, cfg)

	det, err := detector.NewMediaPipeDetector(cfg.DetectorOptions())
	if err != nil {
		if errors.Is(err, detector.ErrServiceNotFound) {
			logger.Error("hand tracking service not found; install the MediaPipe service or set detector.script_path", "error", err)
		} else {
			logger.Error("failed to start hand detector", "error", err)
		}
		return 1
	}

	c, err := Build(name, cfg, capture.NewCamera(cfg.CameraOptions()), det, inject.NewRobotPointer(), logger)
	if err != nil {
		det.Close()
		logger.Error("startup failed", "error", err)
		return 1
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := c.Run(ctx); err != nil {
		logger.Error("stopped with error", "error", err)
		return 1
	}

	logger.Info("goodbye")
	return 0
}

// loadConfig reads path, or the default path, on top of the profile defaults
// and validates the result.
func loadConfig(path, profile string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path, profile)
	} else {
		cfg, err = config.LoadOrDefault(config.DefaultConfigPath(), profile)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}
	return cfg, nil
}

func printBanner(name string, cfg *config.Config) {
	fmt.Printf("%s - hand gesture %s control\n", name, cfg.Profile)
	fmt.Printf("  Camera:  devices %v at %dx%d, %d fps\n",
		cfg.Camera.Devices, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS)
	fmt.Printf("  Events:  %s (button: %s)\n", strings.Join(cfg.Inject.Events, ", "), cfg.Inject.Button)
	if cfg.Store.Enabled {
		fmt.Printf("  Journal: %s\n", cfg.Store.Path)
	}
	if cfg.Server.Enabled {
		fmt.Printf("  Status:  http://%s/api/health\n", cfg.Server.Addr)
	}
	fmt.Println("Ctrl+C to quit.")
}
