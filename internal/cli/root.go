package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mgpai22/reels/internal/config"
	"github.com/mgpai22/reels/internal/logging"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "reels",
	Short: "Subtitle and SSML generator for short videos",
	Long: `Reels transcribes videos, writes SubRip subtitles and SSML documents
timed to the speech, and muxes the subtitles back into the video.

It supports OpenAI Whisper, Google Gemini and Amazon Transcribe as
speech recognizers and can watch a directory for new downloads.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		loaded, err := config.Loader{}.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("language") {
			loaded.Language, _ = cmd.Flags().GetString("language")
		}
		cfg = loaded
		logger.Debugw("Configuration loaded",
			"provider", cfg.Transcribe.Provider,
			"language", cfg.Language,
			"root", cfg.Directories.Root,
		)
		return nil
	},
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "YAML configuration file (or set REELS_CONFIG)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Language code (e.g., en, pl, de)")
}
