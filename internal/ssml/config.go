package ssml

import (
	"fmt"
	"strings"
)

// target text-to-speech dialect
type ServiceMode string

const (
	ServiceGeneric        ServiceMode = "generic"
	ServiceAzure          ServiceMode = "azure"
	ServiceAmazonStandard ServiceMode = "amazon-standard"
)

const (
	DefaultDurationAttribute = "duration"
	DefaultVersion           = "1.0"
	DefaultLanguage          = "en-US"
)

// Config controls how a cue timeline is rendered. The zero value of each
// string field is replaced by its default in Render.
type Config struct {
	VoiceName         string      `yaml:"voice"`
	DurationAttribute string      `yaml:"duration_attribute"`
	InnerDurationTag  bool        `yaml:"inner_duration_tag"`
	ServiceMode       ServiceMode `yaml:"service_mode"`
	Version           string      `yaml:"version"`
	Language          string      `yaml:"language"`
}

func DefaultConfig() Config {
	return Config{
		DurationAttribute: DefaultDurationAttribute,
		ServiceMode:       ServiceGeneric,
		Version:           DefaultVersion,
		Language:          DefaultLanguage,
	}
}

// ParseServiceMode accepts the mode names case-insensitively. The long form
// "amazon-standard-voice" is an alias of amazon-standard.
func ParseServiceMode(s string) (ServiceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "generic":
		return ServiceGeneric, nil
	case "azure":
		return ServiceAzure, nil
	case "amazon-standard", "amazon-standard-voice":
		return ServiceAmazonStandard, nil
	default:
		return "", fmt.Errorf("unsupported service mode %q: use generic, azure, or amazon-standard", s)
	}
}

// Validate fills defaults and rejects unknown service modes.
func (c *Config) Validate() error {
	mode, err := ParseServiceMode(string(c.ServiceMode))
	if err != nil {
		return err
	}
	c.ServiceMode = mode
	if c.DurationAttribute == "" {
		c.DurationAttribute = DefaultDurationAttribute
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	return nil
}

func (c Config) hasVoice() bool {
	name := strings.TrimSpace(c.VoiceName)
	return name != "" && !strings.EqualFold(name, "none")
}

// per-cue voice tags are only emitted by the azure inner duration form
func (c Config) innerDuration() bool {
	return c.InnerDurationTag && c.ServiceMode == ServiceAzure
}
