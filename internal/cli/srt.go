package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/reels/internal/subtitle"
)

var srtCmd = &cobra.Command{
	Use:   "srt [segments.json]",
	Short: "Build a subtitle document from recognizer segments",
	Long: `Read a JSON array of {"start", "end", "text"} segments (seconds) and write
the corresponding subtitle document. Use "-" to read from stdin.

Examples:
  reels srt segments.json -o video.srt
  reels srt segments.json --format vtt -o video.vtt
  cat segments.json | reels srt -`,
	Args: cobra.ExactArgs(1),
	RunE: runSRT,
}

func init() {
	rootCmd.AddCommand(srtCmd)

	srtCmd.Flags().StringP("format", "f", "srt", "Output subtitle format (srt, vtt)")
}

func runSRT(cmd *cobra.Command, args []string) error {
	formatStr, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	format, err := parseFormat(formatStr)
	if err != nil {
		return err
	}

	segments, err := readSegments(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	cues, err := subtitle.Build(segments)
	if err != nil {
		return fmt.Errorf("failed to build subtitles: %w", err)
	}

	if outputPath == "" {
		if format == subtitle.FormatVTT {
			_, err = io.WriteString(cmd.OutOrStdout(), subtitle.SerializeVTT(cues))
		} else {
			_, err = io.WriteString(cmd.OutOrStdout(), subtitle.Serialize(cues))
		}
		return err
	}

	writer, err := subtitle.NewWriter(format)
	if err != nil {
		return fmt.Errorf("failed to create subtitle writer: %w", err)
	}
	if err := writer.Write(cues, outputPath); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}
	logger.Infow("Subtitles written", "output", outputPath, "cues", len(cues))
	return nil
}

func parseFormat(s string) (subtitle.Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "srt", "":
		return subtitle.FormatSRT, nil
	case "vtt":
		return subtitle.FormatVTT, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use srt or vtt", s)
	}
}

func readSegments(stdin io.Reader, path string) ([]subtitle.Segment, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open segments: %w", err)
		}
		defer f.Close()
		r = f
	}

	var segments []subtitle.Segment
	if err := json.NewDecoder(r).Decode(&segments); err != nil {
		return nil, fmt.Errorf("failed to decode segments: %w", err)
	}
	return segments, nil
}
