package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix = "TALKALOT_"

	DefaultDataDir         = ".talkalot"
	DefaultProjectID       = "talkalot-d416f"
	DefaultAuthURL         = "https://identitytoolkit.googleapis.com/v1"
	DefaultFirestoreURL    = "https://firestore.googleapis.com/v1"
	DefaultBackendTimeout  = 15 * time.Second
	DefaultSampleRate      = 44100
	DefaultFramesPerBuffer = 1024
	DefaultMeterInterval   = 100 * time.Millisecond
	DefaultMediaTimeout    = 10 * time.Second
	DefaultDivisor         = 500.0
	DefaultMinScale        = 1.0
	DefaultMaxScale        = 3.0
	DefaultFPS             = 60
)

const (
	BackendFirebase = "firebase"
	BackendMemory   = "memory"
)

type Config struct {
	DataDir   string          `yaml:"data_dir" env:"DATA_DIR" validate:"required"`
	Backend   BackendConfig   `yaml:"backend" envPrefix:"BACKEND_"`
	Audio     AudioConfig     `yaml:"audio" envPrefix:"AUDIO_"`
	Animation AnimationConfig `yaml:"animation" envPrefix:"ANIMATION_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
}

type BackendConfig struct {
	Kind         string        `yaml:"kind" env:"KIND" validate:"oneof=firebase memory"`
	APIKey       string        `yaml:"api_key" env:"API_KEY" validate:"required_if=Kind firebase"`
	ProjectID    string        `yaml:"project_id" env:"PROJECT_ID" validate:"required_if=Kind firebase"`
	AuthURL      string        `yaml:"auth_url" env:"AUTH_URL" validate:"omitempty,url"`
	FirestoreURL string        `yaml:"firestore_url" env:"FIRESTORE_URL" validate:"omitempty,url"`
	Timeout      time.Duration `yaml:"timeout" env:"TIMEOUT" validate:"gte=0"`
}

type AudioConfig struct {
	AllowMicrophone bool          `yaml:"allow_microphone" env:"ALLOW_MICROPHONE"`
	SampleRate      int           `yaml:"sample_rate" env:"SAMPLE_RATE" validate:"gte=8000,lte=192000"`
	FramesPerBuffer int           `yaml:"frames_per_buffer" env:"FRAMES_PER_BUFFER" validate:"gt=0"`
	MeterInterval   time.Duration `yaml:"meter_interval" env:"METER_INTERVAL" validate:"gt=0"`
	Timeout         time.Duration `yaml:"timeout" env:"TIMEOUT" validate:"gte=0"`
}

type AnimationConfig struct {
	Divisor  float64 `yaml:"divisor" env:"DIVISOR" validate:"gt=0"`
	MinScale float64 `yaml:"min_scale" env:"MIN_SCALE" validate:"gt=0"`
	MaxScale float64 `yaml:"max_scale" env:"MAX_SCALE" validate:"gtefield=MinScale"`
	FPS      int     `yaml:"fps" env:"FPS" validate:"gte=1,lte=240"`
}

type LogConfig struct {
	File       string `yaml:"file" env:"FILE"`
	Level      string `yaml:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS" validate:"gte=0"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir,
		Backend: BackendConfig{
			Kind:         BackendFirebase,
			ProjectID:    DefaultProjectID,
			AuthURL:      DefaultAuthURL,
			FirestoreURL: DefaultFirestoreURL,
			Timeout:      DefaultBackendTimeout,
		},
		Audio: AudioConfig{
			AllowMicrophone: true,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			MeterInterval:   DefaultMeterInterval,
			Timeout:         DefaultMediaTimeout,
		},
		Animation: AnimationConfig{
			Divisor:  DefaultDivisor,
			MinScale: DefaultMinScale,
			MaxScale: DefaultMaxScale,
			FPS:      DefaultFPS,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error so that
// a fresh install runs on defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with TALKALOT_* variables.
func ApplyEnv(cfg *Config) error {
	return env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix})
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LogFile is where the rotating log lives when none is configured.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.DataDir, "talkalot.log")
}
