package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/reels/internal/config"
	"github.com/mgpai22/reels/internal/pipeline"
	"github.com/mgpai22/reels/internal/ssml"
	"github.com/mgpai22/reels/internal/storage"
	"github.com/mgpai22/reels/internal/transcribe"
	"github.com/mgpai22/reels/internal/video"
)

func addTranscribeFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "Transcription provider (openai, gemini, aws)")
	cmd.Flags().String("model", "", "Model used by the provider")
	cmd.Flags().StringP("api-key", "k", "", "Provider API key (or set OPENAI_API_KEY / GEMINI_API_KEY)")
	cmd.Flags().IntP("chunk-duration", "d", 0, "Chunk duration in minutes for splitting audio (0 disables)")
	cmd.Flags().Int("concurrency", 0, "Number of parallel transcription workers")
	cmd.Flags().String("bucket", "", "S3 bucket for the aws provider and artifact upload")
	cmd.Flags().String("publish-dir", "", "Copy artifacts into this directory when no bucket is set")
}

// flags only override values that were set explicitly
func applyTranscribeFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	if f.Changed("provider") {
		c.Transcribe.Provider, _ = f.GetString("provider")
		// the key loaded from the environment belongs to the old provider
		if !f.Changed("api-key") {
			c.Transcribe.APIKey = ""
		}
	}
	if f.Changed("model") {
		c.Transcribe.Model, _ = f.GetString("model")
	}
	if f.Changed("api-key") {
		c.Transcribe.APIKey, _ = f.GetString("api-key")
	}
	if f.Changed("chunk-duration") {
		c.Transcribe.ChunkMinutes, _ = f.GetInt("chunk-duration")
	}
	if f.Changed("concurrency") {
		c.Transcribe.Concurrency, _ = f.GetInt("concurrency")
	}
	if f.Changed("bucket") {
		c.Storage.Bucket, _ = f.GetString("bucket")
	}
	if f.Changed("publish-dir") {
		c.Storage.Dir, _ = f.GetString("publish-dir")
	}
	if c.Transcribe.APIKey == "" {
		switch c.Transcribe.Provider {
		case "openai":
			c.Transcribe.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini":
			c.Transcribe.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	return c.Validate()
}

func addSSMLFlags(cmd *cobra.Command) {
	cmd.Flags().String("voice", "", "Voice name for the SSML document ('none' to omit)")
	cmd.Flags().String("service-mode", "", "SSML dialect (generic, azure, amazon-standard)")
	cmd.Flags().String("duration-attribute", "", "Prosody attribute carrying the cue duration")
	cmd.Flags().Bool("inner-duration", false, "Use mstts:audioduration inside each voice (azure only)")
	cmd.Flags().String("ssml-language", "", "xml:lang of the SSML document (e.g., en-US)")
}

func applySSMLFlags(cmd *cobra.Command, c *ssml.Config) error {
	f := cmd.Flags()
	if f.Changed("voice") {
		c.VoiceName, _ = f.GetString("voice")
	}
	if f.Changed("service-mode") {
		mode, _ := f.GetString("service-mode")
		parsed, err := ssml.ParseServiceMode(mode)
		if err != nil {
			return err
		}
		c.ServiceMode = parsed
	}
	if f.Changed("duration-attribute") {
		c.DurationAttribute, _ = f.GetString("duration-attribute")
	}
	if f.Changed("inner-duration") {
		c.InnerDurationTag, _ = f.GetBool("inner-duration")
	}
	if f.Changed("ssml-language") {
		c.Language, _ = f.GetString("ssml-language")
	}
	return c.Validate()
}

func newTranscriber(ctx context.Context, c config.Config) (transcribe.Transcriber, error) {
	provider, err := transcribe.ParseProvider(c.Transcribe.Provider)
	if err != nil {
		return nil, err
	}
	if provider != transcribe.ProviderAWS && c.Transcribe.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required: use --api-key or set the provider's API key environment variable", provider)
	}

	inner, err := transcribe.Factory(ctx, provider, transcribe.Options{
		Language: c.Language,
		Model:    c.Transcribe.Model,
		Prompt:   c.Transcribe.Prompt,
		APIKey:   c.Transcribe.APIKey,
		Bucket:   c.Storage.Bucket,
		Region:   c.Storage.Region,
		Prefix:   c.Storage.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transcriber: %w", err)
	}

	chunk := time.Duration(c.Transcribe.ChunkMinutes) * time.Minute
	return transcribe.NewChunked(inner, chunk, c.Transcribe.Concurrency, logger), nil
}

// nil when neither a bucket nor a publish directory is configured
func newStore(ctx context.Context, c config.Config) (storage.Store, error) {
	switch {
	case c.Storage.Bucket != "":
		return storage.OpenS3(ctx, c.Storage.Bucket, c.Storage.Region)
	case c.Storage.Dir != "":
		return storage.NewLocalStore(c.Storage.Dir), nil
	default:
		return nil, nil
	}
}

func newPipeline(ctx context.Context, c config.Config) (*pipeline.Pipeline, error) {
	recognizer, err := newTranscriber(ctx, c)
	if err != nil {
		return nil, err
	}
	store, err := newStore(ctx, c)
	if err != nil {
		return nil, err
	}
	return pipeline.New(c, video.NewProcessor(logger), recognizer, store, logger), nil
}

func addEmbedFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("hard", false, "Burn subtitles into the picture instead of adding a text track")
}

func applyEmbedFlags(cmd *cobra.Command, c *config.Config) {
	if cmd.Flags().Changed("hard") {
		hard, _ := cmd.Flags().GetBool("hard")
		c.Embed.Soft = !hard
	}
}

func printArtifacts(cmd *cobra.Command, art *pipeline.Artifacts) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Processed %s (run %s)\n", art.Name, art.RunID)
	fmt.Fprintf(out, "  Subtitles: %s (%d cues)\n", art.SubtitlePath, art.Cues)
	fmt.Fprintf(out, "  SSML:      %s\n", art.SSMLPath)
	if art.VideoPath != "" {
		fmt.Fprintf(out, "  Video:     %s\n", art.VideoPath)
	}
	for _, key := range art.Uploaded {
		fmt.Fprintf(out, "  Uploaded:  %s\n", key)
	}
}
