package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mgpai22/reels/internal/ssml"
	"github.com/mgpai22/reels/internal/subtitle"
)

var ssmlCmd = &cobra.Command{
	Use:   "ssml [subtitle_file]",
	Short: "Render a SubRip document as SSML",
	Long: `Parse a SubRip document and render an SSML document whose prosody
durations and breaks follow the cue timing.

Examples:
  reels ssml sub-video.en.srt
  reels ssml sub-video.en.srt -o video.ssml --voice en-US-DavisNeural
  reels ssml sub-video.pl.srt --service-mode azure --inner-duration --ssml-language pl-PL`,
	Args: cobra.ExactArgs(1),
	RunE: runSSML,
}

func init() {
	rootCmd.AddCommand(ssmlCmd)

	addSSMLFlags(ssmlCmd)
}

func runSSML(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")

	conf := cfg.SSML
	if err := applySSMLFlags(cmd, &conf); err != nil {
		return err
	}

	cues, err := subtitle.ParseFile(args[0])
	if err != nil {
		return err
	}
	if dups := subtitle.DuplicateIndices(cues); len(dups) > 0 {
		logger.Warnw("Duplicate cue indices, gaps follow the last cue of each index", "indices", dups)
	}

	if outputPath == "" {
		doc, err := ssml.Render(cues, conf)
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), doc)
		return err
	}

	if err := ssml.WriteFile(outputPath, cues, conf); err != nil {
		return err
	}
	logger.Infow("SSML written", "output", outputPath, "cues", len(cues), "mode", conf.ServiceMode)
	fmt.Fprintf(cmd.OutOrStdout(), "SSML written: %s\n", outputPath)
	return nil
}
