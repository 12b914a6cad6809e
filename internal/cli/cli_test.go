package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mgpai22/reels/internal/ssml"
	"github.com/mgpai22/reels/internal/subtitle"
)

// runs the root command with args and returns stdout
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("REELS_CONFIG", "")
	t.Setenv("REELS_PROVIDER", "")

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// flag values survive between Execute calls on the shared command tree
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

const segmentsJSON = `[
	{"start": 0, "end": 1.0, "text": "Hello"},
	{"start": 1.5, "end": 2.5, "text": "  world  "}
]`

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    subtitle.Format
		wantErr bool
	}{
		{"srt", subtitle.FormatSRT, false},
		{"", subtitle.FormatSRT, false},
		{" VTT ", subtitle.FormatVTT, false},
		{"ass", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestReadSegments(t *testing.T) {
	segments, err := readSegments(strings.NewReader(segmentsJSON), "-")
	if err != nil {
		t.Fatalf("readSegments failed: %v", err)
	}
	if len(segments) != 2 || segments[1].Start != 1.5 {
		t.Errorf("unexpected segments: %+v", segments)
	}

	if _, err := readSegments(strings.NewReader("{"), "-"); err == nil {
		t.Error("expected decode error")
	}
	if _, err := readSegments(nil, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected open error")
	}
}

func TestDefaultAudioPath(t *testing.T) {
	got := defaultAudioPath("out/audio", "/videos/clip.final.mp4", "mp3")
	if want := filepath.Join("out/audio", "clip.final.mp3"); got != want {
		t.Errorf("defaultAudioPath = %q, want %q", got, want)
	}
}

func TestDirectoryArg(t *testing.T) {
	cfg.Directories.Downloads = "downloads"
	if got := directoryArg(nil); got != "downloads" {
		t.Errorf("directoryArg(nil) = %q", got)
	}
	if got := directoryArg([]string{"/srv"}); got != "/srv" {
		t.Errorf("directoryArg(/srv) = %q", got)
	}
}

func TestSRTCommandStdout(t *testing.T) {
	out, err := execute(t, segmentsJSON, "srt", "-")
	if err != nil {
		t.Fatalf("srt failed: %v", err)
	}
	want := "1\n00:00:00,000 --> 00:00:01,000\nHello\n\n2\n00:00:01,500 --> 00:00:02,500\nworld\n"
	if out != want {
		t.Errorf("srt output =\n%q\nwant\n%q", out, want)
	}
}

func TestSRTCommandVTT(t *testing.T) {
	out, err := execute(t, segmentsJSON, "srt", "-", "--format", "vtt")
	if err != nil {
		t.Fatalf("srt failed: %v", err)
	}
	if !strings.HasPrefix(out, "WEBVTT\n\n") || !strings.Contains(out, "00:00:01.500 --> 00:00:02.500") {
		t.Errorf("unexpected vtt output:\n%s", out)
	}
}

func TestSRTCommandRejectsEmptyTranscript(t *testing.T) {
	_, err := execute(t, `[]`, "srt", "-")
	if !errors.Is(err, subtitle.ErrEmptyTranscript) {
		t.Fatalf("error = %v, want ErrEmptyTranscript", err)
	}
}

func TestSRTThenSSML(t *testing.T) {
	dir := t.TempDir()
	srtPath := filepath.Join(dir, "sub-clip.en.srt")
	ssmlPath := filepath.Join(dir, "clip.ssml")

	if _, err := execute(t, segmentsJSON, "srt", "-", "-o", srtPath); err != nil {
		t.Fatalf("srt failed: %v", err)
	}
	if _, err := os.Stat(srtPath); err != nil {
		t.Fatalf("subtitle file not written: %v", err)
	}

	out, err := execute(t, "", "ssml", srtPath, "-o", ssmlPath, "--voice", "en-US-DavisNeural")
	if err != nil {
		t.Fatalf("ssml failed: %v", err)
	}
	if !strings.Contains(out, ssmlPath) {
		t.Errorf("output does not name the document: %q", out)
	}

	data, err := os.ReadFile(ssmlPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	doc := string(data)
	for _, want := range []string{
		`<voice name="en-US-DavisNeural">`,
		`<prosody duration="1000ms">Hello</prosody><break time="500ms"/>`,
		`<prosody duration="1000ms">world</prosody>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
}

func TestSSMLCommandStdoutAzure(t *testing.T) {
	srtPath := filepath.Join(t.TempDir(), "in.srt")
	srt := "1\n00:00:00,000 --> 00:00:02,000\nHi\n\n"
	if err := os.WriteFile(srtPath, []byte(srt), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "ssml", srtPath,
		"--service-mode", "azure", "--inner-duration", "--voice", "pl-PL-MarekNeural", "--ssml-language", "pl-PL")
	if err != nil {
		t.Fatalf("ssml failed: %v", err)
	}
	if !strings.Contains(out, `<voice name="pl-PL-MarekNeural"><mstts:audioduration value="2000ms"/>Hi</voice>`) {
		t.Errorf("unexpected azure document:\n%s", out)
	}
	if !strings.Contains(out, `xml:lang="pl-PL"`) {
		t.Errorf("language not applied:\n%s", out)
	}
}

func TestSSMLCommandErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.srt")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	valid := filepath.Join(dir, "valid.srt")
	if err := os.WriteFile(valid, []byte("1\n00:00:00,000 --> 00:00:01,000\nx\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"ssml", filepath.Join(dir, "nope.srt")}},
		{"empty timeline", []string{"ssml", empty}},
		{"bad service mode", []string{"ssml", valid, "--service-mode", "polly"}},
		{"no argument", []string{"ssml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, "", tt.args...); err == nil {
				t.Errorf("expected error for %v", tt.args)
			}
		})
	}
}

func TestApplySSMLFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addSSMLFlags(cmd)
	if err := cmd.ParseFlags([]string{"--voice", "None", "--duration-attribute", "amazon:max-duration"}); err != nil {
		t.Fatal(err)
	}

	conf := ssml.DefaultConfig()
	conf.VoiceName = "en-US-DavisNeural"
	if err := applySSMLFlags(cmd, &conf); err != nil {
		t.Fatalf("applySSMLFlags failed: %v", err)
	}
	if conf.VoiceName != "None" {
		t.Errorf("VoiceName = %q, want None", conf.VoiceName)
	}
	if conf.DurationAttribute != "amazon:max-duration" {
		t.Errorf("DurationAttribute = %q", conf.DurationAttribute)
	}
	if conf.ServiceMode != ssml.ServiceGeneric {
		t.Errorf("ServiceMode changed without flag: %q", conf.ServiceMode)
	}
}

func TestApplyTranscribeFlagsResetsKeyOnProviderChange(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")

	cmd := &cobra.Command{Use: "test"}
	addTranscribeFlags(cmd)
	addEmbedFlags(cmd)
	if err := cmd.ParseFlags([]string{"--provider", "gemini", "-d", "0", "--hard"}); err != nil {
		t.Fatal(err)
	}

	c := cfg
	c.Transcribe.Provider = "openai"
	c.Transcribe.APIKey = "openai-key"
	c.Transcribe.Concurrency = 2
	c.Embed.Soft = true
	if err := applyTranscribeFlags(cmd, &c); err != nil {
		t.Fatalf("applyTranscribeFlags failed: %v", err)
	}
	applyEmbedFlags(cmd, &c)

	if c.Transcribe.Provider != "gemini" || c.Transcribe.APIKey != "g-key" {
		t.Errorf("Transcribe = %+v", c.Transcribe)
	}
	if c.Transcribe.ChunkMinutes != 0 {
		t.Errorf("ChunkMinutes = %d, want 0", c.Transcribe.ChunkMinutes)
	}
	if c.Embed.Soft {
		t.Error("--hard should disable soft embedding")
	}
}
