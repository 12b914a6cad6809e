package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/reels/internal/ffmpeg"
)

// a slice of a longer recording, offset within the source
type Chunk struct {
	Path   string
	Index  int
	Offset time.Duration
	Length time.Duration
}

// encoding used for speech recognition uploads
type CompressionOptions struct {
	Format     string
	SampleRate int
	Channels   int
	Bitrate    string
}

// mono 16 kHz mp3, small enough for hosted recognizers
func DefaultCompressionOptions() CompressionOptions {
	return CompressionOptions{
		Format:     "mp3",
		SampleRate: 16000,
		Channels:   1,
		Bitrate:    "64k",
	}
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration asks ffprobe for the container duration of a media file.
func Duration(ctx context.Context, path string) (time.Duration, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("media file not found: %w", err)
	}

	ffprobePath, err := ffmpegbin.FFprobePath()
	if err != nil {
		return 0, err
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbeDuration(out.Bytes())
}

func parseProbeDuration(data []byte) (time.Duration, error) {
	var probe probeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", probe.Format.Duration, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func codecKwArgs(opts CompressionOptions) ffmpeg.KwArgs {
	kwargs := ffmpeg.KwArgs{
		"vn": "",
		"ar": opts.SampleRate,
		"ac": opts.Channels,
	}
	switch opts.Format {
	case "wav":
		kwargs["acodec"] = "pcm_s16le"
	case "flac":
		kwargs["acodec"] = "flac"
	case "aac":
		kwargs["acodec"] = "aac"
	default:
		kwargs["acodec"] = "libmp3lame"
	}
	if opts.Bitrate != "" && opts.Format != "wav" && opts.Format != "flac" {
		kwargs["b:a"] = opts.Bitrate
	}
	return kwargs
}

// Compress re-encodes the audio track of inputPath into outputPath.
func Compress(ctx context.Context, inputPath, outputPath string, opts CompressionOptions) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file not found: %w", err)
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

	err = ffmpeg.Input(inputPath).
		Output(outputPath, codecKwArgs(opts)).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Silent(true).
		Run()
	if err != nil {
		return fmt.Errorf("compression failed: %w", err)
	}
	return nil
}

// Plan lays out consecutive chunks of at most length covering total. The
// last chunk is shorter when total is not a multiple of length.
func Plan(audioPath, outputDir string, total, length time.Duration) []Chunk {
	if length <= 0 || total <= 0 {
		return nil
	}

	ext := filepath.Ext(audioPath)
	base := strings.TrimSuffix(filepath.Base(audioPath), ext)

	var chunks []Chunk
	for i, offset := 0, time.Duration(0); offset < total; i, offset = i+1, offset+length {
		chunks = append(chunks, Chunk{
			Path:   filepath.Join(outputDir, fmt.Sprintf("%s_chunk_%03d%s", base, i, ext)),
			Index:  i,
			Offset: offset,
			Length: min(length, total-offset),
		})
	}
	return chunks
}

// Split cuts audioPath into chunks of length, copying the codec. At most
// concurrency ffmpeg processes run at once; the first failure cancels the
// rest.
func Split(ctx context.Context, audioPath string, length time.Duration, outputDir string, concurrency int) ([]Chunk, error) {
	if length <= 0 {
		return nil, fmt.Errorf("chunk length must be positive, got %v", length)
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	total, err := Duration(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get audio duration: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return nil, err
	}

	chunks := Plan(audioPath, outputDir, total, length)
	err = forEach(ctx, len(chunks), concurrency, func(ctx context.Context, i int) error {
		c := chunks[i]
		err := ffmpeg.Input(audioPath, ffmpeg.KwArgs{"ss": c.Offset.Seconds()}).
			Output(c.Path, ffmpeg.KwArgs{"t": c.Length.Seconds(), "c": "copy"}).
			OverWriteOutput().
			SetFfmpegPath(ffmpegPath).
			Silent(true).
			Run()
		if err != nil {
			return fmt.Errorf("failed to create chunk %d: %w", c.Index, err)
		}
		return nil
	})
	if err != nil {
		_ = Cleanup(chunks)
		return nil, err
	}
	return chunks, nil
}

// Cleanup removes chunk files, ignoring ones already gone.
func Cleanup(chunks []Chunk) error {
	var lastErr error
	for _, c := range chunks {
		if err := os.Remove(c.Path); err != nil && !os.IsNotExist(err) {
			lastErr = err
		}
	}
	return lastErr
}
