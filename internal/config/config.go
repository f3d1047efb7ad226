// Package config loads gestpipe settings from a JSON file layered over
// built-in defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// DefaultDir is the per-user data directory under $HOME.
const DefaultDir = ".gestpipe"

// Duration is a time.Duration written as a Go duration string ("1s", "250ms").
type Duration struct {
	time.Duration
}

// Seconds builds a Duration from fractional seconds.
func Seconds(s float64) Duration {
	return Duration{time.Duration(s * float64(time.Second))}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// HoldPolicy decides which signal classifies a capture as static when the
// hold detector and the recomputed displacement disagree.
type HoldPolicy string

const (
	// HoldPolicyBoth requires the hold to have fired and the displacement to
	// be below the static threshold.
	HoldPolicyBoth HoldPolicy = "both"
	// HoldPolicyHold trusts the hold detector alone.
	HoldPolicyHold HoldPolicy = "hold"
	// HoldPolicyMagnitude trusts the recomputed displacement alone.
	HoldPolicyMagnitude HoldPolicy = "magnitude"
)

// Valid reports whether p is a known policy.
func (p HoldPolicy) Valid() bool {
	switch p {
	case HoldPolicyBoth, HoldPolicyHold, HoldPolicyMagnitude:
		return true
	}
	return false
}

// Recognizer tunes the capture state machine.
type Recognizer struct {
	BufferSize               int        `json:"buffer_size"`
	SmoothingWindow          int        `json:"smoothing_window"`
	MinHandConfidence        float64    `json:"min_hand_confidence"`
	MinDeltaMagnitude        float64    `json:"min_delta_magnitude"`
	StaticWindow             int        `json:"static_window"`
	StaticDetectionThreshold float64    `json:"static_detection_threshold"`
	StaticDeltaThreshold     float64    `json:"static_delta_threshold"`
	StaticHoldTime           Duration   `json:"static_hold_time"`
	HoldPolicy               HoldPolicy `json:"hold_policy"`
	MinPredictionConfidence  float64    `json:"min_prediction_confidence"`
	DisplayDuration          Duration   `json:"display_duration"`
	// TriggerSet lists the left-hand finger states (thumb..pinky, 0/1) that
	// count as a closed trigger.
	TriggerSet               [][5]int   `json:"trigger_set"`
}

// Practice tunes the practice evaluator.
type Practice struct {
	StaticHoldTime    Duration `json:"static_hold_time"`
	StaticMaxMotion   float64  `json:"static_max_motion"`
	DynamicMinMotion  float64  `json:"dynamic_min_motion"`
	MinConfidence     float64  `json:"min_confidence"`
	DefaultDuration   Duration `json:"default_duration"`
	RecordAttempts    bool     `json:"record_attempts"`
	AttemptsListLimit int      `json:"attempts_list_limit"`
}

// Artifacts locates the classifier artifacts and reference dataset.
type Artifacts struct {
	Dir         string  `json:"dir"`
	Dataset     string  `json:"dataset"`
	// Recordings is the full recording dataset. When present it is the source
	// for finger-pattern mining and for rebuilding the compact dataset.
	Recordings  string  `json:"recordings"`
	DeltaWeight float64 `json:"delta_weight"`
}

// Camera configures frame capture and the idle motion gate.
type Camera struct {
	DeviceID        int      `json:"device_id"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	MotionThreshold float64  `json:"motion_threshold"`
	IdleFPS         int      `json:"idle_fps"`
	ActiveFPS       int      `json:"active_fps"`
	IdleTimeout     Duration `json:"idle_timeout"`
}

// Detector configures the landmark service.
type Detector struct {
	MaxHands               int     `json:"max_hands"`
	MinDetectionConfidence float64 `json:"min_detection_confidence"`
	MinTrackingConfidence  float64 `json:"min_tracking_confidence"`
	Mirror                 bool    `json:"mirror"`
	ScriptPath             string  `json:"script_path"`
}

// Server configures the HTTP API.
type Server struct {
	Addr      string `json:"addr"`
	StaticDir string `json:"static_dir"`
}

// Store configures the SQLite database.
type Store struct {
	Path string `json:"path"`
}

// Redis configures optional event publishing.
type Redis struct {
	Enabled  bool   `json:"enabled"`
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

// Discovery configures mDNS advertisement of the API.
type Discovery struct {
	Enabled  bool   `json:"enabled"`
	Instance string `json:"instance"`
}

// Plugins configures action execution.
type Plugins struct {
	Dir     string   `json:"dir"`
	Timeout Duration `json:"timeout"`
}

// Config is the complete gestpipe configuration.
type Config struct {
	Recognizer Recognizer `json:"recognizer"`
	Practice   Practice   `json:"practice"`
	Artifacts  Artifacts  `json:"artifacts"`
	Camera     Camera     `json:"camera"`
	Detector   Detector   `json:"detector"`
	Server     Server     `json:"server"`
	Store      Store      `json:"store"`
	Redis      Redis      `json:"redis"`
	Discovery  Discovery  `json:"discovery"`
	Plugins    Plugins    `json:"plugins"`
	Tray       bool       `json:"tray"`
}

// Default returns the built-in configuration rooted at baseDir
// (usually ~/.gestpipe).
func Default(baseDir string) Config {
	return Config{
		Recognizer: Recognizer{
			BufferSize:               60,
			SmoothingWindow:          3,
			MinHandConfidence:        0.7,
			MinDeltaMagnitude:        0.0005,
			StaticWindow:             5,
			StaticDetectionThreshold: 0.002,
			StaticDeltaThreshold:     0.003,
			StaticHoldTime:           Seconds(1.0),
			HoldPolicy:               HoldPolicyBoth,
			MinPredictionConfidence:  0.60,
			DisplayDuration:          Seconds(3),
			TriggerSet:               [][5]int{{0, 0, 0, 0, 0}, {1, 0, 0, 0, 0}},
		},
		Practice: Practice{
			StaticHoldTime:    Seconds(1.0),
			StaticMaxMotion:   0.05,
			DynamicMinMotion:  0.05,
			MinConfidence:     0.65,
			DefaultDuration:   Seconds(1.0),
			RecordAttempts:    true,
			AttemptsListLimit: 100,
		},
		Artifacts: Artifacts{
			Dir:         filepath.Join(baseDir, "models"),
			Dataset:     filepath.Join(baseDir, "models", "gesture_data_compact.csv"),
			Recordings:  filepath.Join(baseDir, "models", "gesture_data_custom_full.csv"),
			DeltaWeight: 10.0,
		},
		Camera: Camera{
			Width:           640,
			Height:          480,
			MotionThreshold: 1.0,
			IdleFPS:         5,
			ActiveFPS:       15,
			IdleTimeout:     Seconds(2),
		},
		Detector: Detector{
			MaxHands:               2,
			MinDetectionConfidence: 0.7,
			MinTrackingConfidence:  0.5,
			Mirror:                 true,
		},
		Server: Server{
			Addr: "127.0.0.1:8080",
		},
		Store: Store{
			Path: filepath.Join(baseDir, "gestpipe.db"),
		},
		Redis: Redis{
			Addr:   "localhost:6379",
			Prefix: "gestpipe",
		},
		Discovery: Discovery{
			Instance: "gestpipe",
		},
		Plugins: Plugins{
			Dir:     filepath.Join(baseDir, "plugins"),
			Timeout: Seconds(5),
		},
	}
}

// HomeDir returns ~/.gestpipe, or .gestpipe when the home directory is unknown.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDir
	}
	return filepath.Join(home, DefaultDir)
}

const maxFileSize = 1 << 20

// Load reads the JSON file at path over Default(baseDir). Fields omitted from
// the file keep their defaults. A missing file yields the defaults unchanged.
func Load(path, baseDir string) (Config, error) {
	cfg := Default(baseDir)

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return cfg, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	r := c.Recognizer
	if r.BufferSize < 2 {
		return fmt.Errorf("recognizer.buffer_size must be >= 2, got %d", r.BufferSize)
	}
	if r.SmoothingWindow < 1 {
		return fmt.Errorf("recognizer.smoothing_window must be >= 1, got %d", r.SmoothingWindow)
	}
	if r.StaticWindow < 2 || r.StaticWindow > r.BufferSize {
		return fmt.Errorf("recognizer.static_window must be in [2, buffer_size], got %d", r.StaticWindow)
	}
	if err := unitInterval("recognizer.min_hand_confidence", r.MinHandConfidence); err != nil {
		return err
	}
	if err := unitInterval("recognizer.min_prediction_confidence", r.MinPredictionConfidence); err != nil {
		return err
	}
	if r.StaticHoldTime.Duration <= 0 {
		return errors.New("recognizer.static_hold_time must be positive")
	}
	if !r.HoldPolicy.Valid() {
		return fmt.Errorf("recognizer.hold_policy must be one of both, hold, magnitude; got %q", r.HoldPolicy)
	}
	if r.MinDeltaMagnitude < 0 || r.StaticDetectionThreshold < 0 || r.StaticDeltaThreshold < 0 {
		return errors.New("recognizer thresholds must not be negative")
	}
	for _, state := range r.TriggerSet {
		for _, v := range state {
			if v != 0 && v != 1 {
				return fmt.Errorf("recognizer.trigger_set entries must be 0 or 1, got %v", state)
			}
		}
	}

	p := c.Practice
	if err := unitInterval("practice.min_confidence", p.MinConfidence); err != nil {
		return err
	}
	if p.StaticMaxMotion < 0 || p.DynamicMinMotion < 0 {
		return errors.New("practice motion thresholds must not be negative")
	}

	if c.Artifacts.DeltaWeight <= 0 {
		return fmt.Errorf("artifacts.delta_weight must be positive, got %g", c.Artifacts.DeltaWeight)
	}
	if c.Detector.MaxHands < 1 {
		return fmt.Errorf("detector.max_hands must be >= 1, got %d", c.Detector.MaxHands)
	}
	if c.Plugins.Timeout.Duration <= 0 {
		return errors.New("plugins.timeout must be positive")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis is enabled")
	}
	return nil
}

func unitInterval(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be in [0, 1], got %g", name, v)
	}
	return nil
}
