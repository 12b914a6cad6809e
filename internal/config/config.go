package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mgpai22/reels/internal/ssml"
)

const (
	DefaultRoot         = "out"
	DefaultLanguage     = "en"
	DefaultProvider     = "openai"
	DefaultChunkMinutes = 1
	DefaultConcurrency  = 3
	DefaultPollInterval = 10 * time.Second
	DefaultSettleDelay  = 2 * time.Second
)

// Config is the full runtime configuration of the reels pipeline.
type Config struct {
	// transcription language and subtitle file language tag
	Language    string      `yaml:"language"`
	Directories Directories `yaml:"directories"`
	Transcribe  Transcribe  `yaml:"transcribe"`
	SSML        ssml.Config `yaml:"ssml"`
	Embed       Embed       `yaml:"embed"`
	Storage     Storage     `yaml:"storage"`
	Watch       Watch       `yaml:"watch"`
}

// Directories holds the working directories of each pipeline stage. Empty
// entries are derived from Root.
type Directories struct {
	Root      string `yaml:"root"`
	Downloads string `yaml:"downloads"`
	Audio     string `yaml:"audio"`
	Subtitles string `yaml:"subtitles"`
	SSML      string `yaml:"ssml"`
	Results   string `yaml:"results"`
}

type Transcribe struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"api_key"`
	Prompt       string `yaml:"prompt"`
	ChunkMinutes int    `yaml:"chunk_minutes"`
	Concurrency  int    `yaml:"concurrency"`
}

type Embed struct {
	Enabled bool `yaml:"enabled"`
	// soft subtitles are muxed as a mov_text track, otherwise burned in
	Soft bool `yaml:"soft"`
}

// Storage configures the optional publishing of produced artifacts, to an S3
// bucket or, when no bucket is set, to a local directory.
type Storage struct {
	Bucket string `yaml:"bucket"`
	Dir    string `yaml:"dir"`
	Region string `yaml:"region"`
	Prefix string `yaml:"prefix"`
}

type Watch struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	SettleDelay  time.Duration `yaml:"settle_delay"`
}

func Default() Config {
	return Config{
		Language:    DefaultLanguage,
		Directories: Directories{Root: DefaultRoot},
		Transcribe: Transcribe{
			Provider:     DefaultProvider,
			ChunkMinutes: DefaultChunkMinutes,
			Concurrency:  DefaultConcurrency,
		},
		SSML:  ssml.DefaultConfig(),
		Embed: Embed{Enabled: true, Soft: true},
		Storage: Storage{
			Region: "us-east-1",
		},
		Watch: Watch{
			PollInterval: DefaultPollInterval,
			SettleDelay:  DefaultSettleDelay,
		},
	}
}

// Validate applies defaults, checks required fields, and rejects out-of-range
// values.
func (c *Config) Validate() error {
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	c.Directories.fill()

	c.Transcribe.Provider = strings.ToLower(strings.TrimSpace(c.Transcribe.Provider))
	switch c.Transcribe.Provider {
	case "":
		c.Transcribe.Provider = DefaultProvider
	case "openai", "gemini", "aws":
	default:
		return fmt.Errorf("config: unsupported transcription provider %q", c.Transcribe.Provider)
	}
	if c.Transcribe.ChunkMinutes < 0 {
		return fmt.Errorf("config: chunk_minutes must be >= 0, got %d", c.Transcribe.ChunkMinutes)
	}
	if c.Transcribe.Concurrency == 0 {
		c.Transcribe.Concurrency = DefaultConcurrency
	}
	if c.Transcribe.Concurrency < 0 {
		return fmt.Errorf("config: concurrency must be >= 1, got %d", c.Transcribe.Concurrency)
	}
	if c.Transcribe.Provider == "aws" && c.Storage.Bucket == "" {
		return fmt.Errorf("config: the aws provider requires storage.bucket")
	}

	if err := c.SSML.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if c.Watch.PollInterval <= 0 {
		c.Watch.PollInterval = DefaultPollInterval
	}
	if c.Watch.SettleDelay < 0 {
		return fmt.Errorf("config: settle_delay must be >= 0, got %s", c.Watch.SettleDelay)
	}
	return nil
}

func (d *Directories) fill() {
	if d.Root == "" {
		d.Root = DefaultRoot
	}
	set := func(dir *string, name string) {
		if *dir == "" {
			*dir = filepath.Join(d.Root, name)
		}
	}
	set(&d.Downloads, "downloads")
	set(&d.Audio, "audio")
	set(&d.Subtitles, "subtitles")
	set(&d.SSML, "ssml")
	set(&d.Results, "results")
}

// All lists every stage directory, in pipeline order.
func (d Directories) All() []string {
	return []string{d.Downloads, d.Audio, d.Subtitles, d.SSML, d.Results}
}
