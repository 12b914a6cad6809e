package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/reels/internal/video"
)

var embedCmd = &cobra.Command{
	Use:   "embed [video_file] [subtitle_file]",
	Short: "Mux a subtitle file into a video",
	Long: `Add subtitles to a video, either as a selectable mov_text track (default)
or burned into the picture with --hard. Without -o the result is written to
<results>/<name>.mp4.

Examples:
  reels embed video.mp4 sub-video.en.srt
  reels embed video.mp4 sub-video.pl.srt -l pl --hard -o burned.mp4`,
	Args: cobra.ExactArgs(2),
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)

	addEmbedFlags(embedCmd)
	embedCmd.Flags().String("title", "Subtitles", "Title of the subtitle track")
	embedCmd.Flags().String("style", video.DefaultBurnStyle, "force_style for burned subtitles")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	videoPath, subtitlePath := args[0], args[1]
	outputPath, _ := cmd.Flags().GetString("output")

	run := cfg
	applyEmbedFlags(cmd, &run)

	opts := video.DefaultEmbedOptions(run.Language)
	opts.Soft = run.Embed.Soft
	opts.Title, _ = cmd.Flags().GetString("title")
	opts.Style, _ = cmd.Flags().GetString("style")

	if outputPath == "" {
		base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
		outputPath = filepath.Join(run.Directories.Results, base+".mp4")
	}

	logger.Infow("Embedding subtitles",
		"video", videoPath,
		"subtitles", subtitlePath,
		"output", outputPath,
		"soft", opts.Soft,
	)
	if err := video.NewProcessor(logger).EmbedSubtitles(cmd.Context(), videoPath, subtitlePath, outputPath, opts); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Subtitled video written: %s\n", outputPath)
	return nil
}
