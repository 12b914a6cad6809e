package transcribe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mgpai22/reels/internal/subtitle"
)

// transcription result; segment times are seconds from the start of the input
type Result struct {
	Segments []subtitle.Segment
	Language string
	Duration time.Duration
}

// interface for audio transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

// transcription service provider
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderAWS    Provider = "aws"
)

func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderOpenAI, ProviderGemini, ProviderAWS:
		return p, nil
	case "":
		return ProviderOpenAI, nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", s)
	}
}

// transcription options
type Options struct {
	Language string // source language of the audio, empty to auto-detect
	Model    string
	Prompt   string
	APIKey   string

	// Amazon Transcribe stages audio and results in this bucket
	Bucket string
	Region string
	Prefix string
}

// creates transcriber based on provider
func Factory(ctx context.Context, provider Provider, opts Options) (Transcriber, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiTranscriber(ctx, opts)
	case ProviderOpenAI:
		return NewOpenAITranscriber(ctx, opts)
	case ProviderAWS:
		return NewAWSTranscriber(ctx, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// shiftSegments moves segments by offset seconds.
func shiftSegments(segments []subtitle.Segment, offset float64) []subtitle.Segment {
	shifted := make([]subtitle.Segment, len(segments))
	for i, seg := range segments {
		shifted[i] = subtitle.Segment{
			Start: seg.Start + offset,
			End:   seg.End + offset,
			Text:  seg.Text,
		}
	}
	return shifted
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
