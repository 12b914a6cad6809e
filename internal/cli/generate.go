package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgpai22/reels/internal/audio"
)

var generateCmd = &cobra.Command{
	Use:   "generate [media_file]",
	Short: "Run the full pipeline for an audio or video file",
	Long: `Transcribe the specified file and write its subtitles and SSML document.

For video files the audio is extracted first and, unless --no-embed is given,
the subtitles are muxed into <results>/<name>.mp4. Long recordings can be
split into chunks that are transcribed in parallel.

Examples:
  reels generate video.mp4
  reels generate video.mp4 --provider gemini -d 1 --concurrency 5
  reels generate clip.mkv --hard --voice en-US-DavisNeural
  reels generate podcast.mp3 -l pl`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	addTranscribeFlags(generateCmd)
	addSSMLFlags(generateCmd)
	addEmbedFlags(generateCmd)
	generateCmd.Flags().Bool("no-embed", false, "Do not mux the subtitles into the video")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]

	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", mediaPath)
	}
	if !audio.IsMediaFile(mediaPath) {
		return fmt.Errorf("unsupported file type: %s (expected audio or video file)", filepath.Ext(mediaPath))
	}

	run := cfg
	if err := applyTranscribeFlags(cmd, &run); err != nil {
		return err
	}
	if err := applySSMLFlags(cmd, &run.SSML); err != nil {
		return err
	}
	applyEmbedFlags(cmd, &run)
	if noEmbed, _ := cmd.Flags().GetBool("no-embed"); noEmbed {
		run.Embed.Enabled = false
	}

	logger.Infow("Starting subtitle generation",
		"input", mediaPath,
		"provider", run.Transcribe.Provider,
		"chunk_minutes", run.Transcribe.ChunkMinutes,
		"concurrency", run.Transcribe.Concurrency,
	)

	p, err := newPipeline(cmd.Context(), run)
	if err != nil {
		return err
	}
	art, err := p.Process(cmd.Context(), mediaPath)
	if err != nil {
		return err
	}
	printArtifacts(cmd, art)
	return nil
}
