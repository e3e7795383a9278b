// Package config loads the YAML settings shared by the airpointer drivers.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/airpointer/internal/capture"
	"github.com/ayusman/airpointer/internal/detector"
	"github.com/ayusman/airpointer/internal/gesture"
	"github.com/ayusman/airpointer/internal/inject"
)

// Profiles select a preset decoder and dispatch setup.
const (
	ProfilePointer = "pointer"
	ProfileScroll  = "scroll"
)

// Config holds all application configuration.
type Config struct {
	Profile   string         `yaml:"profile"`
	Camera    CameraConfig   `yaml:"camera"`
	Detector  DetectorConfig `yaml:"detector"`
	Decoder   DecoderConfig  `yaml:"decoder"`
	Inject    InjectConfig   `yaml:"inject"`
	Server    ServerConfig   `yaml:"server"`
	Store     StoreConfig    `yaml:"store"`
	Tray      TrayConfig     `yaml:"tray"`
	Wakeword  WakewordConfig `yaml:"wakeword"`
	LogLevel  string         `yaml:"log_level"`
	LogFormat string         `yaml:"log_format"`
}

// CameraConfig holds capture settings.
type CameraConfig struct {
	Devices []int `yaml:"devices"`
	Width   int   `yaml:"width"`
	Height  int   `yaml:"height"`
	FPS     int   `yaml:"fps"`
	Mirror  bool  `yaml:"mirror"`
}

// DetectorConfig holds hand-landmark model settings.
type DetectorConfig struct {
	MaxHands           int     `yaml:"max_hands"`
	MinConfidence      float64 `yaml:"min_confidence"`
	MinTrackingConf    float64 `yaml:"min_tracking_confidence"`
	ScriptPath         string  `yaml:"script_path"`
	PythonPath         string  `yaml:"python_path"`
	IdleTimeoutSeconds int     `yaml:"idle_timeout_seconds"`
}

// DecoderConfig holds the gesture thresholds. Keypoints are named as in
// gesture.Keypoint, e.g. "index_tip".
type DecoderConfig struct {
	ClickThreshold    float64    `yaml:"click_threshold"`
	ClickPairs        [][]string `yaml:"click_pairs"`
	Reference         string     `yaml:"reference"`
	ScrollScale       float64    `yaml:"scroll_scale"`
	ScrollThreshold   float64    `yaml:"scroll_threshold"`
	ScrollSensitivity float64    `yaml:"scroll_sensitivity"`
	FlickThreshold    float64    `yaml:"flick_threshold"`
	FlickGain         float64    `yaml:"flick_gain"`
	CooldownFrames    int        `yaml:"cooldown_frames"`
	// ScrollPerScreen, when > 0, replaces ScrollScale with
	// ScrollPerScreen / screen height, so a full-height hand sweep is worth
	// ScrollPerScreen units on any display.
	ScrollPerScreen float64 `yaml:"scroll_per_screen"`
}

// InjectConfig holds pointer dispatch settings.
type InjectConfig struct {
	Button string   `yaml:"button"`
	Events []string `yaml:"events"` // subset of MOVE, CLICK, SCROLL
}

// ServerConfig holds the status server settings.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// StoreConfig holds the event journal settings.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// TrayConfig holds menu bar settings.
type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// WakewordConfig holds the wake-word listener settings.
type WakewordConfig struct {
	Phrase            string  `yaml:"phrase"`
	WhisperBin        string  `yaml:"whisper_bin"`
	ModelPath         string  `yaml:"model_path"`
	SampleRate        uint32  `yaml:"sample_rate"`
	ClipSeconds       float64 `yaml:"clip_seconds"`
	RefractorySeconds float64 `yaml:"refractory_seconds"`
	// SilenceRMS skips transcription of clips quieter than this level.
	SilenceRMS float64 `yaml:"silence_rms"`
	PluginDir  string  `yaml:"plugin_dir"`
	Plugin     string  `yaml:"plugin"`
	Action     string  `yaml:"action"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "airpointer")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DataDir returns the directory holding the journal database and plugins.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".airpointer"
	}
	return filepath.Join(home, ".airpointer")
}

// Default returns the pointer profile defaults.
func Default() *Config {
	cfg, _ := DefaultFor(ProfilePointer)
	return cfg
}

// DefaultFor returns the defaults for a profile.
//
// The pointer profile moves the cursor to the index fingertip and clicks on
// any pinch. The scroll profile only scrolls: it has no click pairs, drops
// Move and Click at dispatch, and measures vertical travel as a fraction of
// the screen height times 300.
func DefaultFor(profile string) (*Config, error) {
	home, _ := os.UserHomeDir()
	data := DataDir()

	cfg := &Config{
		Profile: ProfilePointer,
		Camera: CameraConfig{
			Devices: []int{0, 1, 2},
			Width:   capture.DefaultWidth,
			Height:  capture.DefaultHeight,
			FPS:     capture.DefaultFPS,
			Mirror:  true,
		},
		Detector: DetectorConfig{
			MaxHands:           1,
			MinConfidence:      0.7,
			MinTrackingConf:    0.7,
			IdleTimeoutSeconds: 30,
		},
		Decoder: decoderDefaults(gesture.DefaultConfig()),
		Inject: InjectConfig{
			Button: "left",
			Events: []string{"MOVE", "CLICK", "SCROLL"},
		},
		Server: ServerConfig{
			Enabled: true,
			Addr:    "127.0.0.1:8765",
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    filepath.Join(data, "airpointer.db"),
		},
		Tray: TrayConfig{
			Enabled: false,
		},
		Wakeword: WakewordConfig{
			Phrase:            "hello world",
			WhisperBin:        "whisper-cli",
			ModelPath:         filepath.Join(home, ".local", "share", "airpointer", "models", "ggml-base.en.bin"),
			SampleRate:        16000,
			ClipSeconds:       3,
			RefractorySeconds: 2,
			SilenceRMS:        0.008,
			PluginDir:         filepath.Join(data, "plugins"),
		},
		LogLevel:  "info",
		LogFormat: "text",
	}

	switch profile {
	case ProfilePointer, "":
	case ProfileScroll:
		cfg.Profile = ProfileScroll
		cfg.Detector.MinConfidence = 0.5
		cfg.Detector.MinTrackingConf = 0.5
		cfg.Decoder.ClickPairs = [][]string{}
		cfg.Decoder.ScrollPerScreen = 300
		cfg.Decoder.CooldownFrames = 0
		cfg.Inject.Events = []string{"SCROLL"}
	default:
		return nil, fmt.Errorf("unknown profile %q", profile)
	}

	return cfg, nil
}

func decoderDefaults(g gesture.Config) DecoderConfig {
	pairs := make([][]string, len(g.ClickPairs))
	for i, p := range g.ClickPairs {
		pairs[i] = []string{string(p.A), string(p.B)}
	}
	return DecoderConfig{
		ClickThreshold:    g.ClickThreshold,
		ClickPairs:        pairs,
		Reference:         string(g.Reference),
		ScrollScale:       g.ScrollScale,
		ScrollThreshold:   g.ScrollThreshold,
		ScrollSensitivity: g.ScrollSensitivity,
		FlickThreshold:    g.FlickThreshold,
		FlickGain:         g.FlickGain,
		CooldownFrames:    g.CooldownFrames,
	}
}

// Load reads and parses a YAML config file on top of the defaults for
// profile. When profile is empty the file's own profile field picks the
// defaults. Missing fields keep their defaults and a leading ~ in paths is
// expanded.
func Load(path, profile string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var head struct {
		Profile string `yaml:"profile"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if profile == "" {
		profile = head.Profile
	}

	cfg, err := DefaultFor(profile)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if profile != "" {
		cfg.Profile = profile
	}

	cfg.expandPaths()
	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to the profile
// defaults otherwise.
func LoadOrDefault(path, profile string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg, err := DefaultFor(profile)
		if err != nil {
			return nil, err
		}
		cfg.expandPaths()
		return cfg, nil
	}
	return Load(path, profile)
}

func (c *Config) expandPaths() {
	c.Detector.ScriptPath = expandTilde(c.Detector.ScriptPath)
	c.Detector.PythonPath = expandTilde(c.Detector.PythonPath)
	c.Store.Path = expandTilde(c.Store.Path)
	c.Wakeword.WhisperBin = expandTilde(c.Wakeword.WhisperBin)
	c.Wakeword.ModelPath = expandTilde(c.Wakeword.ModelPath)
	c.Wakeword.PluginDir = expandTilde(c.Wakeword.PluginDir)
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	switch c.Profile {
	case ProfilePointer, ProfileScroll:
	default:
		return fmt.Errorf("profile must be %q or %q, got %q", ProfilePointer, ProfileScroll, c.Profile)
	}

	if len(c.Camera.Devices) == 0 {
		return fmt.Errorf("camera.devices must not be empty")
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera.fps must be > 0")
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("camera.width and camera.height must be > 0")
	}

	if c.Detector.MaxHands <= 0 {
		return fmt.Errorf("detector.max_hands must be > 0")
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("detector.min_confidence must be within [0, 1]")
	}
	if c.Detector.MinTrackingConf < 0 || c.Detector.MinTrackingConf > 1 {
		return fmt.Errorf("detector.min_tracking_confidence must be within [0, 1]")
	}

	if _, err := c.GestureConfig(); err != nil {
		return err
	}
	if _, err := c.InjectOptions(); err != nil {
		return err
	}

	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty when the server is enabled")
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty when the store is enabled")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be \"text\" or \"json\", got %q", c.LogFormat)
	}

	return nil
}

// ValidateWakeword checks the settings only the wake-word listener needs.
func (c *Config) ValidateWakeword() error {
	w := c.Wakeword
	if strings.TrimSpace(w.Phrase) == "" {
		return fmt.Errorf("wakeword.phrase must not be empty")
	}
	if w.WhisperBin == "" {
		return fmt.Errorf("wakeword.whisper_bin must not be empty")
	}
	if w.ModelPath == "" {
		return fmt.Errorf("wakeword.model_path must not be empty")
	}
	if w.SampleRate == 0 {
		return fmt.Errorf("wakeword.sample_rate must be > 0")
	}
	if w.ClipSeconds <= 0 {
		return fmt.Errorf("wakeword.clip_seconds must be > 0")
	}
	if w.RefractorySeconds < 0 {
		return fmt.Errorf("wakeword.refractory_seconds must be >= 0")
	}
	if w.SilenceRMS < 0 || w.SilenceRMS >= 1 {
		return fmt.Errorf("wakeword.silence_rms must be in [0, 1), got %f", w.SilenceRMS)
	}
	if w.Plugin != "" && w.Action == "" {
		return fmt.Errorf("wakeword.action must be set when wakeword.plugin is")
	}
	return nil
}

// GestureConfig converts the decoder section into a validated gesture.Config.
func (c *Config) GestureConfig() (gesture.Config, error) {
	d := c.Decoder
	pairs := make([]gesture.Pair, 0, len(d.ClickPairs))
	for _, p := range d.ClickPairs {
		if len(p) != 2 {
			return gesture.Config{}, fmt.Errorf("decoder.click_pairs entries must name two keypoints, got %v", p)
		}
		pairs = append(pairs, gesture.Pair{A: gesture.Keypoint(p[0]), B: gesture.Keypoint(p[1])})
	}

	g := gesture.Config{
		ClickThreshold:    d.ClickThreshold,
		ClickPairs:        pairs,
		Reference:         gesture.Keypoint(d.Reference),
		ScrollScale:       d.ScrollScale,
		ScrollThreshold:   d.ScrollThreshold,
		ScrollSensitivity: d.ScrollSensitivity,
		FlickThreshold:    d.FlickThreshold,
		FlickGain:         d.FlickGain,
		CooldownFrames:    d.CooldownFrames,
	}
	if err := g.Validate(); err != nil {
		return gesture.Config{}, fmt.Errorf("decoder: %w", err)
	}
	if d.ScrollPerScreen < 0 {
		return gesture.Config{}, fmt.Errorf("decoder.scroll_per_screen must be >= 0")
	}
	return g, nil
}

// ScreenGestureConfig is GestureConfig for a display screenHeight pixels
// tall. It applies decoder.scroll_per_screen when set.
func (c *Config) ScreenGestureConfig(screenHeight int) (gesture.Config, error) {
	g, err := c.GestureConfig()
	if err != nil {
		return gesture.Config{}, err
	}
	if c.Decoder.ScrollPerScreen > 0 {
		if screenHeight <= 0 {
			return gesture.Config{}, fmt.Errorf("decoder.scroll_per_screen needs a screen height, got %d", screenHeight)
		}
		g.ScrollScale = c.Decoder.ScrollPerScreen / float64(screenHeight)
	}
	return g, nil
}

// InjectOptions converts the inject section into dispatcher options.
func (c *Config) InjectOptions() (inject.Options, error) {
	kinds := make([]gesture.EventKind, 0, len(c.Inject.Events))
	for _, name := range c.Inject.Events {
		k, err := gesture.ParseEventKind(strings.ToUpper(name))
		if err != nil || k == gesture.None {
			return inject.Options{}, fmt.Errorf("inject.events: unknown event %q", name)
		}
		kinds = append(kinds, k)
	}
	if len(kinds) == 0 {
		return inject.Options{}, fmt.Errorf("inject.events must not be empty")
	}

	switch strings.ToLower(c.Inject.Button) {
	case "left", "right", "center":
	default:
		return inject.Options{}, fmt.Errorf("inject.button must be left, right, or center, got %q", c.Inject.Button)
	}

	return inject.Options{Button: c.Inject.Button, Kinds: kinds}, nil
}

// CameraOptions converts the camera section.
func (c *Config) CameraOptions() capture.Options {
	return capture.Options{
		Devices: c.Camera.Devices,
		Width:   c.Camera.Width,
		Height:  c.Camera.Height,
		FPS:     c.Camera.FPS,
		Mirror:  c.Camera.Mirror,
	}
}

// DetectorOptions converts the detector section.
func (c *Config) DetectorOptions() detector.Config {
	return detector.Config{
		MaxHands:        c.Detector.MaxHands,
		MinConfidence:   c.Detector.MinConfidence,
		MinTrackingConf: c.Detector.MinTrackingConf,
		ScriptPath:      c.Detector.ScriptPath,
		PythonPath:      c.Detector.PythonPath,
		IdleTimeout:     time.Duration(c.Detector.IdleTimeoutSeconds) * time.Second,
	}
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
