package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Files struct {
		AllowedExtensions []string `yaml:"allowed_extensions"`
	} `yaml:"files"`

	Compress struct {
		MaxWorkers int `yaml:"max_workers"`

		Image struct {
			MaxDimension   int `yaml:"max_dimension"`
			JPEGQuality    int `yaml:"jpeg_quality"`
			StepIntervalMS int `yaml:"step_interval_ms"`
		} `yaml:"image"`

		PDF struct {
			Scale       float64 `yaml:"scale"`
			JPEGQuality int     `yaml:"jpeg_quality"`
		} `yaml:"pdf"`

		Office struct {
			FallbackDelayMS int `yaml:"fallback_delay_ms"`
		} `yaml:"office"`

		Simulate struct {
			Seed          int64 `yaml:"seed"`
			MinIntervalMS int   `yaml:"min_interval_ms"`
			MaxIntervalMS int   `yaml:"max_interval_ms"`
		} `yaml:"simulate"`
	} `yaml:"compress"`

	Download struct {
		GracePeriodMS int `yaml:"grace_period_ms"`
		RetentionMin  int `yaml:"retention_min"`
	} `yaml:"download"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file overrides it.
// The compression constants mirror the fixed factors of each strategy:
// images capped at 1920px and JPEG quality 60, PDF pages rendered at
// 1.5x and JPEG quality 50.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 8080
	cfg.Files.AllowedExtensions = []string{
		"pdf", "ppt", "pptx", "doc", "docx", "hwp", "hwpx",
		"jpg", "jpeg", "png", "webp",
	}
	cfg.Compress.MaxWorkers = 4
	cfg.Compress.Image.MaxDimension = 1920
	cfg.Compress.Image.JPEGQuality = 60
	cfg.Compress.Image.StepIntervalMS = 50
	cfg.Compress.PDF.Scale = 1.5
	cfg.Compress.PDF.JPEGQuality = 50
	cfg.Compress.Office.FallbackDelayMS = 1000
	cfg.Compress.Simulate.MinIntervalMS = 20
	cfg.Compress.Simulate.MaxIntervalMS = 60
	cfg.Download.GracePeriodMS = 6000
	cfg.Download.RetentionMin = 60
	cfg.LogLevel = "info"
	return &cfg
}

// Load reads a YAML config file over the defaults. A missing file is
// not an error; the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, err
	}
	fillDefaults(cfg)
	return cfg, nil
}

// fillDefaults restores any knob a config file zeroed out; a quality-0
// JPEG or a 0px dimension cap would silently cripple the strategies.
func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = def.Server.Port
	}
	if len(cfg.Files.AllowedExtensions) == 0 {
		cfg.Files.AllowedExtensions = def.Files.AllowedExtensions
	}
	if cfg.Compress.MaxWorkers <= 0 {
		cfg.Compress.MaxWorkers = def.Compress.MaxWorkers
	}
	if cfg.Compress.Image.MaxDimension <= 0 {
		cfg.Compress.Image.MaxDimension = def.Compress.Image.MaxDimension
	}
	if cfg.Compress.Image.JPEGQuality <= 0 || cfg.Compress.Image.JPEGQuality > 100 {
		cfg.Compress.Image.JPEGQuality = def.Compress.Image.JPEGQuality
	}
	if cfg.Compress.PDF.Scale <= 0 {
		cfg.Compress.PDF.Scale = def.Compress.PDF.Scale
	}
	if cfg.Compress.PDF.JPEGQuality <= 0 || cfg.Compress.PDF.JPEGQuality > 100 {
		cfg.Compress.PDF.JPEGQuality = def.Compress.PDF.JPEGQuality
	}
	if cfg.Download.GracePeriodMS <= 0 {
		cfg.Download.GracePeriodMS = def.Download.GracePeriodMS
	}
	if cfg.Download.RetentionMin <= 0 {
		cfg.Download.RetentionMin = def.Download.RetentionMin
	}
}

func (c *Config) ImageStepInterval() time.Duration {
	return time.Duration(c.Compress.Image.StepIntervalMS) * time.Millisecond
}

func (c *Config) OfficeFallbackDelay() time.Duration {
	return time.Duration(c.Compress.Office.FallbackDelayMS) * time.Millisecond
}

func (c *Config) SimulateMinInterval() time.Duration {
	return time.Duration(c.Compress.Simulate.MinIntervalMS) * time.Millisecond
}

func (c *Config) SimulateMaxInterval() time.Duration {
	return time.Duration(c.Compress.Simulate.MaxIntervalMS) * time.Millisecond
}

func (c *Config) DownloadGracePeriod() time.Duration {
	return time.Duration(c.Download.GracePeriodMS) * time.Millisecond
}

func (c *Config) DownloadRetention() time.Duration {
	return time.Duration(c.Download.RetentionMin) * time.Minute
}

// AllowedExtension reports whether the intake allow-list accepts ext
// (without the leading dot, case-insensitive matching is the caller's
// concern since extensions are stored lowercase).
func (c *Config) AllowedExtension(ext string) bool {
	for _, e := range c.Files.AllowedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
