package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/reels/internal/ffmpeg"
	"github.com/mgpai22/reels/internal/logging"
)

// the ffmpeg operations the pipeline needs on a video file
type Processor interface {
	ExtractAudio(ctx context.Context, videoPath, outputPath string, opts ExtractAudioOptions) error
	EmbedSubtitles(ctx context.Context, videoPath, subtitlePath, outputPath string, opts EmbedOptions) error
}

// holds options for audio extraction
type ExtractAudioOptions struct {
	Format     string // wav, mp3, aac or flac
	SampleRate int
	Channels   int
	Bitrate    string // lossy formats only
}

// 16 kHz mono wav
func DefaultExtractAudioOptions() ExtractAudioOptions {
	return ExtractAudioOptions{
		Format:     "wav",
		SampleRate: 16000,
		Channels:   1,
	}
}

// holds options for subtitle embedding
type EmbedOptions struct {
	// mux as a selectable mov_text track instead of burning into the frames
	Soft     bool
	Language string
	Title    string
	// libass force_style for burned subtitles
	Style string
}

const DefaultBurnStyle = "FontName=Arial,FontSize=24,PrimaryColour=&Hffffff&"

func DefaultEmbedOptions(language string) EmbedOptions {
	return EmbedOptions{
		Soft:     true,
		Language: language,
		Title:    "Subtitles",
		Style:    DefaultBurnStyle,
	}
}

// default implementation using ffmpeg
type FFmpegProcessor struct {
	logger *logging.Logger
}

func NewProcessor(logger *logging.Logger) *FFmpegProcessor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FFmpegProcessor{logger: logger}
}

func (p *FFmpegProcessor) ExtractAudio(
	ctx context.Context,
	videoPath, outputPath string,
	opts ExtractAudioOptions,
) error {
	if _, err := os.Stat(videoPath); err != nil {
		return fmt.Errorf("video file not found: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.logger.Debugw("Extracting audio", "video", videoPath, "out", outputPath, "format", opts.Format)
	err = ffmpeg.Input(videoPath).
		Output(outputPath, extractKwArgs(opts)).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Silent(true).
		Run()
	if err != nil {
		return fmt.Errorf("ffmpeg extraction failed: %w", err)
	}
	return nil
}

func extractKwArgs(opts ExtractAudioOptions) ffmpeg.KwArgs {
	kwargs := ffmpeg.KwArgs{
		"vn": "",
		"ar": opts.SampleRate,
		"ac": opts.Channels,
	}
	switch opts.Format {
	case "mp3":
		kwargs["acodec"] = "libmp3lame"
	case "aac":
		kwargs["acodec"] = "aac"
	case "flac":
		kwargs["acodec"] = "flac"
	default:
		kwargs["acodec"] = "pcm_s16le"
	}
	if opts.Bitrate != "" && (opts.Format == "mp3" || opts.Format == "aac") {
		kwargs["b:a"] = opts.Bitrate
	}
	return kwargs
}

// EmbedSubtitles writes outputPath with the subtitles of subtitlePath either
// muxed as a text track or burned into the picture.
func (p *FFmpegProcessor) EmbedSubtitles(
	ctx context.Context,
	videoPath, subtitlePath, outputPath string,
	opts EmbedOptions,
) error {
	for _, path := range []string{videoPath, subtitlePath} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("input file not found: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.logger.Debugw("Embedding subtitles",
		"video", videoPath, "subtitles", subtitlePath, "out", outputPath, "soft", opts.Soft)
	err = embedStream(videoPath, subtitlePath, outputPath, opts).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Silent(true).
		Run()
	if err != nil {
		return fmt.Errorf("ffmpeg subtitle embedding failed: %w", err)
	}
	return nil
}

func embedStream(videoPath, subtitlePath, outputPath string, opts EmbedOptions) *ffmpeg.Stream {
	if !opts.Soft {
		style := opts.Style
		if style == "" {
			style = DefaultBurnStyle
		}
		return ffmpeg.Input(videoPath).Output(outputPath, ffmpeg.KwArgs{
			"vf":  subtitlesFilter(subtitlePath, style),
			"c:a": "copy",
		})
	}

	kwargs := ffmpeg.KwArgs{
		"c":   "copy",
		"c:s": "mov_text",
	}
	if opts.Language != "" {
		kwargs["metadata:s:s:0"] = "language=" + opts.Language
	}
	if opts.Title != "" {
		kwargs["metadata:s:s"] = "title=" + opts.Title
	}
	return ffmpeg.Output(
		[]*ffmpeg.Stream{ffmpeg.Input(videoPath), ffmpeg.Input(subtitlePath)},
		outputPath,
		kwargs,
	)
}

// quoting follows the ffmpeg filtergraph rules for a filename argument
func subtitlesFilter(path, style string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `:`, `\:`, `'`, `\'`).Replace(filepath.ToSlash(path))
	return fmt.Sprintf("subtitles=%s:force_style='%s'", escaped, style)
}
