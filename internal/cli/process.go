package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/reels/internal/pipeline"
	"github.com/mgpai22/reels/internal/watch"
)

var processCmd = &cobra.Command{
	Use:   "process [directory]",
	Short: "Run the pipeline for every video in a directory",
	Long: `Process each video file directly inside the directory (default: the
configured downloads directory). A failing video does not stop the others.

Examples:
  reels process
  reels process ~/Downloads/reels --provider gemini`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Process new videos as they appear in a directory",
	Long: `Watch the directory (default: the configured downloads directory) and run
the pipeline for every new video once it stops changing. File system events
are used when available, with a periodic rescan as fallback.

Examples:
  reels watch
  reels watch /srv/downloads --existing --poll 30s`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(watchCmd)

	for _, cmd := range []*cobra.Command{processCmd, watchCmd} {
		addTranscribeFlags(cmd)
		addSSMLFlags(cmd)
		addEmbedFlags(cmd)
	}
	watchCmd.Flags().Bool("existing", false, "Also process videos already in the directory")
	watchCmd.Flags().Duration("poll", 0, "Rescan interval (default from config, 10s)")
	watchCmd.Flags().Bool("no-notify", false, "Disable file system events and only rescan")
}

func directoryArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return cfg.Directories.Downloads
}

func runProcess(cmd *cobra.Command, args []string) error {
	p, err := preparePipeline(cmd)
	if err != nil {
		return err
	}

	dir := directoryArg(args)
	logger.Infow("Processing directory", "dir", dir)
	results, err := p.ProcessDir(cmd.Context(), dir)
	for _, art := range results {
		printArtifacts(cmd, art)
	}
	if err != nil {
		return fmt.Errorf("%d video(s) processed, some failed: %w", len(results), err)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	p, err := preparePipeline(cmd)
	if err != nil {
		return err
	}

	opts := watch.Options{
		PollInterval: cfg.Watch.PollInterval,
		SettleDelay:  cfg.Watch.SettleDelay,
	}
	if cmd.Flags().Changed("poll") {
		opts.PollInterval, _ = cmd.Flags().GetDuration("poll")
	}
	opts.ProcessExisting, _ = cmd.Flags().GetBool("existing")
	opts.DisableNotify, _ = cmd.Flags().GetBool("no-notify")

	handle := func(ctx context.Context, path string) error {
		art, err := p.Process(ctx, path)
		if err != nil {
			return err
		}
		printArtifacts(cmd, art)
		return nil
	}

	return watch.New(directoryArg(args), handle, opts, logger).Run(cmd.Context())
}

func preparePipeline(cmd *cobra.Command) (*pipeline.Pipeline, error) {
	run := cfg
	if err := applyTranscribeFlags(cmd, &run); err != nil {
		return nil, err
	}
	if err := applySSMLFlags(cmd, &run.SSML); err != nil {
		return nil, err
	}
	applyEmbedFlags(cmd, &run)
	return newPipeline(cmd.Context(), run)
}
