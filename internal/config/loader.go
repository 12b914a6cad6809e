package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the YAML file loaded when no explicit path is given.
const EnvConfigPath = "REELS_CONFIG"

// Loader builds a Config from defaults, an optional YAML file, and
// environment variables, in that order of precedence. Tests can override
// Lookup and ReadFile to inject deterministic inputs.
type Loader struct {
	Lookup   func(string) (string, bool)
	ReadFile func(string) ([]byte, error)
}

// Load reads the YAML file at path (or $REELS_CONFIG when path is empty),
// applies environment overrides and validates the result.
func (l Loader) Load(path string) (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if l.ReadFile == nil {
		l.ReadFile = os.ReadFile
	}

	cfg := Default()

	if path == "" {
		if value, ok := l.Lookup(EnvConfigPath); ok {
			path = strings.TrimSpace(value)
		}
	}
	if path != "" {
		data, err := l.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	overrideString(l.Lookup, "LOCALE", &cfg.Language)
	overrideString(l.Lookup, "DOWNLOADS_DIR", &cfg.Directories.Downloads)
	overrideString(l.Lookup, "AUDIO_DIR", &cfg.Directories.Audio)
	overrideString(l.Lookup, "SUBTITLES_DIR", &cfg.Directories.Subtitles)
	overrideString(l.Lookup, "SSML_DIR", &cfg.Directories.SSML)
	overrideString(l.Lookup, "RESULTS_DIR", &cfg.Directories.Results)
	overrideString(l.Lookup, "REELS_PROVIDER", &cfg.Transcribe.Provider)
	overrideString(l.Lookup, "REELS_MODEL", &cfg.Transcribe.Model)
	overrideString(l.Lookup, "REELS_SSML_VOICE", &cfg.SSML.VoiceName)
	overrideString(l.Lookup, "REELS_S3_BUCKET", &cfg.Storage.Bucket)
	overrideString(l.Lookup, "REELS_S3_PREFIX", &cfg.Storage.Prefix)
	overrideString(l.Lookup, "REELS_PUBLISH_DIR", &cfg.Storage.Dir)
	overrideString(l.Lookup, "AWS_REGION", &cfg.Storage.Region)

	if cfg.Transcribe.APIKey == "" {
		if key := apiKeyEnv(cfg.Transcribe.Provider); key != "" {
			overrideString(l.Lookup, key, &cfg.Transcribe.APIKey)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// environment variable holding the API key of a transcription provider
func apiKeyEnv(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai", "":
		return "OPENAI_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if lookup == nil || target == nil {
		return
	}
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}
