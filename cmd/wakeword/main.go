// Command wakeword listens to the microphone and runs a plugin action when
// the wake phrase is spoken.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ayusman/airpointer/internal/audio"
	"github.com/ayusman/airpointer/internal/config"
	"github.com/ayusman/airpointer/internal/logging"
	"github.com/ayusman/airpointer/internal/plugin"
	"github.com/ayusman/airpointer/internal/wakeword"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to config file (default: "+config.DefaultConfigPath()+")")
	phrase := flag.String("phrase", "", "override the wake phrase")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}
	if *phrase != "" {
		cfg.Wakeword.Phrase = *phrase
	}
	if err := cfg.ValidateWakeword(); err != nil {
		log.Printf("config validation: %v", err)
		return 1
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Printf("logging: %v", err)
		return 1
	}
	slog.SetDefault(logger)

	w := cfg.Wakeword
	printBanner(w)

	transcriber, err := wakeword.NewWhisperCLI(w.WhisperBin, w.ModelPath)
	if err != nil {
		logger.Error("failed to find whisper; install whisper.cpp and set wakeword.whisper_bin", "error", err)
		return 1
	}
	if _, err := os.Stat(w.ModelPath); err != nil {
		logger.Error("whisper model not found", "path", w.ModelPath, "error", err)
		return 1
	}

	spotter, err := wakeword.NewSpotter(w.Phrase, seconds(w.RefractorySeconds))
	if err != nil {
		logger.Error("invalid wake phrase", "error", err)
		return 1
	}

	opts := wakeword.Options{
		Clip:       seconds(w.ClipSeconds),
		SilenceRMS: w.SilenceRMS,
	}
	if w.Plugin != "" {
		opts.OnDetect, err = pluginAction(w, logger)
		if err != nil {
			logger.Error("plugin", "error", err)
			return 1
		}
	}

	recorder, err := audio.NewRecorder(w.SampleRate, 1)
	if err != nil {
		logger.Error("failed to initialize audio recorder; ensure microphone access is granted", "error", err)
		return 1
	}
	defer recorder.Close()

	listener, err := wakeword.NewListener(recorder, transcriber, spotter, opts, logger)
	if err != nil {
		logger.Error("listener", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := listener.Run(ctx); err != nil {
		logger.Error("listener stopped", "error", err)
		return 1
	}
	logger.Info("goodbye", "clips", listener.Clips(), "detections", listener.Detections())
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path, "")
	}
	return config.LoadOrDefault(config.DefaultConfigPath(), "")
}

func pluginAction(w config.WakewordConfig, logger *slog.Logger) (wakeword.DetectFunc, error) {
	mgr := plugin.NewManager(w.PluginDir, logger)
	if err := mgr.Discover(); err != nil {
		return nil, err
	}
	p, err := mgr.Get(w.Plugin)
	if err != nil {
		return nil, fmt.Errorf("%w in %s", err, w.PluginDir)
	}
	if !p.Supports(w.Action) {
		return nil, fmt.Errorf("%s: %w: %s", w.Plugin, plugin.ErrActionNotSupported, w.Action)
	}
	return wakeword.PluginAction(mgr, plugin.NewExecutor(plugin.DefaultTimeout), w.Plugin, w.Action), nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func printBanner(w config.WakewordConfig) {
	fmt.Println("Wake word listener")
	fmt.Printf("  Phrase:  %q\n", w.Phrase)
	fmt.Printf("  Model:   %s\n", w.ModelPath)
	fmt.Printf("  Clips:   %.1fs at %d Hz\n", w.ClipSeconds, w.SampleRate)
	if w.Plugin != "" {
		fmt.Printf("  Action:  %s/%s\n", w.Plugin, w.Action)
	}
	fmt.Println("Ctrl+C to quit.")
}
