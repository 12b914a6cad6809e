package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mgpai22/reels/internal/audio"
	"github.com/mgpai22/reels/internal/subtitle"
)

// implements Transcriber interface using OpenAI Audio API
type OpenAITranscriber struct {
	client  openai.Client
	model   string
	options Options
}

// segment from OpenAI Whisper verbose_json response
type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// verbose_json response structure from Whisper
type whisperVerboseResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
}

func NewOpenAITranscriber(ctx context.Context, opts Options) (*OpenAITranscriber, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	model := opts.Model
	if model == "" {
		model = "whisper-1"
	}

	return &OpenAITranscriber{
		client:  openai.NewClient(option.WithAPIKey(opts.APIKey)),
		model:   model,
		options: opts,
	}, nil
}

// Whisper rejects uploads above 25 MB
var maxUploadBytes int64 = 25 << 20

var compressAudio = audio.Compress

// returns a file small enough to upload, compressing into a temp dir when
// needed; cleanup removes whatever was created
func prepareUpload(ctx context.Context, audioPath string) (string, func(), error) {
	noop := func() {}
	info, err := os.Stat(audioPath)
	if err != nil {
		return "", noop, fmt.Errorf("failed to open audio file: %w", err)
	}
	if info.Size() <= maxUploadBytes {
		return audioPath, noop, nil
	}

	dir, err := os.MkdirTemp("", "reels-upload-*")
	if err != nil {
		return "", noop, fmt.Errorf("failed to create temp directory: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	opts := audio.DefaultCompressionOptions()
	out := filepath.Join(dir, "upload."+opts.Format)
	if err := compressAudio(ctx, audioPath, out, opts); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("failed to compress audio for upload: %w", err)
	}
	return out, cleanup, nil
}

// transcribes single audio file
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	uploadPath, cleanup, err := prepareUpload(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	file, err := os.Open(uploadPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	var fallback float64
	if d, err := audio.Duration(ctx, audioPath); err == nil {
		fallback = d.Seconds()
	}

	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}
	if t.options.Language != "" {
		params.Language = openai.String(t.options.Language)
	}
	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	parsed, err := parseVerboseJSONResponse(resp.RawJSON(), fallback)
	if err != nil {
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			return nil, fmt.Errorf("failed to parse transcription: %w", err)
		}
		parsed = &Result{Segments: []subtitle.Segment{{Start: 0, End: fallback, Text: text}}}
	}
	if parsed.Language == "" {
		parsed.Language = t.options.Language
	}
	if parsed.Duration == 0 {
		parsed.Duration = secondsToDuration(fallback)
	}
	return parsed, nil
}

// parseVerboseJSONResponse converts a verbose_json body into a Result.
// A body with text but no segments becomes one segment spanning the whole
// recording.
func parseVerboseJSONResponse(rawJSON string, fallbackSeconds float64) (*Result, error) {
	if rawJSON == "" {
		return nil, fmt.Errorf("empty response")
	}

	var resp whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	total := fallbackSeconds
	if resp.Duration > 0 {
		total = resp.Duration
	}
	result := &Result{
		Language: resp.Language,
		Duration: secondsToDuration(total),
	}

	if len(resp.Segments) == 0 {
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			return nil, fmt.Errorf("no segments or text in response")
		}
		result.Segments = []subtitle.Segment{{Start: 0, End: total, Text: text}}
		return result, nil
	}

	result.Segments = make([]subtitle.Segment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		result.Segments = append(result.Segments, subtitle.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
		})
	}
	return result, nil
}
