package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/reels/internal/ssml"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Loader{Lookup: envLookup(nil)}.Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Language != DefaultLanguage {
		t.Errorf("Language = %q, want %q", cfg.Language, DefaultLanguage)
	}
	if cfg.Transcribe.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", cfg.Transcribe.Provider)
	}
	if cfg.Directories.Subtitles != filepath.Join("out", "subtitles") {
		t.Errorf("Subtitles dir = %q", cfg.Directories.Subtitles)
	}
	if cfg.Directories.Results != filepath.Join("out", "results") {
		t.Errorf("Results dir = %q", cfg.Directories.Results)
	}
	if cfg.Watch.PollInterval != 10*time.Second {
		t.Errorf("PollInterval = %s, want 10s", cfg.Watch.PollInterval)
	}
	if cfg.SSML.ServiceMode != ssml.ServiceGeneric {
		t.Errorf("ServiceMode = %q, want generic", cfg.SSML.ServiceMode)
	}
	if len(cfg.Directories.All()) != 5 {
		t.Errorf("All() returned %d directories", len(cfg.Directories.All()))
	}
}

func TestLoadFile(t *testing.T) {
	yamlDoc := `
language: pl
directories:
  root: /data
  results: /published
transcribe:
  provider: Gemini
  model: gemini-2.5-flash
  concurrency: 5
ssml:
  voice: pl-PL-MarekNeural
  service_mode: azure
  inner_duration_tag: true
embed:
  soft: false
watch:
  poll_interval: 30s
`
	dir := t.TempDir()
	path := filepath.Join(dir, "reels.yaml")
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Loader{Lookup: envLookup(map[string]string{"GEMINI_API_KEY": "g-key"})}.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Language != "pl" {
		t.Errorf("Language = %q, want pl", cfg.Language)
	}
	if cfg.Directories.Audio != filepath.Join("/data", "audio") {
		t.Errorf("Audio dir = %q", cfg.Directories.Audio)
	}
	if cfg.Directories.Results != "/published" {
		t.Errorf("Results dir = %q", cfg.Directories.Results)
	}
	if cfg.Transcribe.Provider != "gemini" {
		t.Errorf("Provider = %q, want gemini", cfg.Transcribe.Provider)
	}
	if cfg.Transcribe.APIKey != "g-key" {
		t.Errorf("APIKey = %q, want g-key", cfg.Transcribe.APIKey)
	}
	if cfg.Transcribe.Concurrency != 5 {
		t.Errorf("Concurrency = %d, want 5", cfg.Transcribe.Concurrency)
	}
	if cfg.SSML.ServiceMode != ssml.ServiceAzure || !cfg.SSML.InnerDurationTag {
		t.Errorf("SSML config not decoded: %+v", cfg.SSML)
	}
	if cfg.SSML.DurationAttribute != "duration" {
		t.Errorf("DurationAttribute default lost: %q", cfg.SSML.DurationAttribute)
	}
	if cfg.Embed.Soft {
		t.Error("Embed.Soft should be false")
	}
	if cfg.Watch.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %s, want 30s", cfg.Watch.PollInterval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	env := map[string]string{
		"LOCALE":            "de",
		"SUBTITLES_DIR":     "/srv/subs",
		"SSML_DIR":          " /srv/ssml ",
		"REELS_PROVIDER":    "aws",
		"REELS_S3_BUCKET":   "media-bucket",
		"REELS_PUBLISH_DIR": "/srv/publish",
		"AWS_REGION":        "eu-central-1",
		"OPENAI_API_KEY":    "ignored",
	}

	cfg, err := Loader{Lookup: envLookup(env)}.Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Language != "de" {
		t.Errorf("Language = %q, want de", cfg.Language)
	}
	if cfg.Directories.Subtitles != "/srv/subs" {
		t.Errorf("Subtitles dir = %q", cfg.Directories.Subtitles)
	}
	if cfg.Directories.SSML != "/srv/ssml" {
		t.Errorf("SSML dir = %q", cfg.Directories.SSML)
	}
	if cfg.Transcribe.Provider != "aws" {
		t.Errorf("Provider = %q, want aws", cfg.Transcribe.Provider)
	}
	if cfg.Transcribe.APIKey != "" {
		t.Errorf("aws provider should not pick up an API key, got %q", cfg.Transcribe.APIKey)
	}
	if cfg.Storage.Bucket != "media-bucket" || cfg.Storage.Region != "eu-central-1" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Storage.Dir != "/srv/publish" {
		t.Errorf("Storage.Dir = %q", cfg.Storage.Dir)
	}
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	var readPath string
	loader := Loader{
		Lookup: envLookup(map[string]string{EnvConfigPath: "/etc/reels.yaml"}),
		ReadFile: func(path string) ([]byte, error) {
			readPath = path
			return []byte("language: fr\n"), nil
		},
	}

	cfg, err := loader.Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if readPath != "/etc/reels.yaml" {
		t.Errorf("read %q, want /etc/reels.yaml", readPath)
	}
	if cfg.Language != "fr" {
		t.Errorf("Language = %q, want fr", cfg.Language)
	}
}

func TestLoadErrors(t *testing.T) {
	errMissing := errors.New("missing")

	tests := []struct {
		name    string
		env     map[string]string
		file    string
		readErr error
		wantMsg string
	}{
		{
			name:    "unreadable file",
			readErr: errMissing,
			wantMsg: "read",
		},
		{
			name:    "invalid yaml",
			file:    "language: [",
			wantMsg: "decode",
		},
		{
			name:    "unknown provider",
			env:     map[string]string{"REELS_PROVIDER": "whisper-cpp"},
			wantMsg: "unsupported transcription provider",
		},
		{
			name:    "aws without bucket",
			env:     map[string]string{"REELS_PROVIDER": "aws"},
			wantMsg: "storage.bucket",
		},
		{
			name:    "negative chunk minutes",
			file:    "transcribe:\n  chunk_minutes: -1\n",
			wantMsg: "chunk_minutes",
		},
		{
			name:    "bad service mode",
			file:    "ssml:\n  service_mode: polly\n",
			wantMsg: "service mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.file != "" || tt.readErr != nil {
				path = "reels.yaml"
			}
			loader := Loader{
				Lookup: envLookup(tt.env),
				ReadFile: func(string) ([]byte, error) {
					if tt.readErr != nil {
						return nil, tt.readErr
					}
					return []byte(tt.file), nil
				},
			}

			_, err := loader.Load(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
			if tt.readErr != nil && !errors.Is(err, tt.readErr) {
				t.Errorf("error %v does not wrap the read error", err)
			}
		})
	}
}
