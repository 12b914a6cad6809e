// Package pipeline runs one video through audio extraction, transcription,
// subtitle and SSML generation, muxing and optional publishing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/mgpai22/reels/internal/audio"
	"github.com/mgpai22/reels/internal/config"
	"github.com/mgpai22/reels/internal/logging"
	"github.com/mgpai22/reels/internal/ssml"
	"github.com/mgpai22/reels/internal/storage"
	"github.com/mgpai22/reels/internal/subtitle"
	"github.com/mgpai22/reels/internal/transcribe"
	"github.com/mgpai22/reels/internal/video"
)

var ErrUnsupportedInput = errors.New("unsupported input file")

// Artifacts lists what one run produced.
type Artifacts struct {
	RunID        string
	Name         string
	AudioPath    string
	SubtitlePath string
	SSMLPath     string
	VideoPath    string // empty when embedding is disabled or the input is audio
	Cues         int
	Uploaded     []string
}

type Pipeline struct {
	cfg        config.Config
	media      video.Processor
	recognizer transcribe.Transcriber
	store      storage.Store // nil disables publishing
	logger     *logging.Logger
}

func New(
	cfg config.Config,
	media video.Processor,
	recognizer transcribe.Transcriber,
	store storage.Store,
	logger *logging.Logger,
) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:        cfg,
		media:      media,
		recognizer: recognizer,
		store:      store,
		logger:     logger,
	}
}

// Process runs every stage for one video or audio file.
func (p *Pipeline) Process(ctx context.Context, inputPath string) (*Artifacts, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("input file not found: %w", err)
	}
	if !info.Mode().IsRegular() || !audio.IsMediaFile(inputPath) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, inputPath)
	}

	dirs := p.cfg.Directories
	name := CleanFileName(strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)))
	if name == "" {
		name = "video"
	}
	art := &Artifacts{RunID: uuid.NewString(), Name: name}
	log := p.logger.With("run", art.RunID, "name", name)
	log.Infow("Processing", "input", inputPath)

	isVideo := audio.IsVideoFile(inputPath)
	art.AudioPath = inputPath
	if isVideo {
		art.AudioPath = filepath.Join(dirs.Audio, name+".wav")
		if err := p.media.ExtractAudio(ctx, inputPath, art.AudioPath, video.DefaultExtractAudioOptions()); err != nil {
			return nil, fmt.Errorf("failed to extract audio: %w", err)
		}
		log.Debugw("Audio extracted", "path", art.AudioPath)
	}

	result, err := p.recognizer.Transcribe(ctx, art.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to transcribe: %w", err)
	}
	log.Infow("Transcription complete", "segments", len(result.Segments), "language", result.Language)

	_, doc, err := subtitle.BuildDocument(result.Segments)
	if err != nil {
		return nil, fmt.Errorf("failed to build subtitles: %w", err)
	}
	art.SubtitlePath = filepath.Join(dirs.Subtitles, SubtitleFileName(name, p.language(result)))
	if err := subtitle.WriteFileAtomic(art.SubtitlePath, []byte(doc)); err != nil {
		return nil, fmt.Errorf("failed to write subtitles: %w", err)
	}

	// the markup is rendered from the document on disk so gaps reflect
	// exactly what was written
	cues, err := subtitle.ParseFile(art.SubtitlePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read back subtitles: %w", err)
	}
	if dups := subtitle.DuplicateIndices(cues); len(dups) > 0 {
		log.Warnw("Duplicate cue indices", "indices", dups)
	}
	art.Cues = len(cues)

	art.SSMLPath = filepath.Join(dirs.SSML, name+".ssml")
	if err := ssml.WriteFile(art.SSMLPath, cues, p.cfg.SSML); err != nil {
		return nil, fmt.Errorf("failed to write SSML: %w", err)
	}
	log.Infow("Subtitles written", "srt", art.SubtitlePath, "ssml", art.SSMLPath, "cues", art.Cues)

	if isVideo && p.cfg.Embed.Enabled {
		art.VideoPath = filepath.Join(dirs.Results, name+".mp4")
		opts := video.DefaultEmbedOptions(p.language(result))
		opts.Soft = p.cfg.Embed.Soft
		if err := p.media.EmbedSubtitles(ctx, inputPath, art.SubtitlePath, art.VideoPath, opts); err != nil {
			return nil, fmt.Errorf("failed to embed subtitles: %w", err)
		}
		log.Infow("Subtitled video written", "path", art.VideoPath, "soft", opts.Soft)
	}

	if err := p.publish(ctx, art); err != nil {
		return nil, err
	}
	return art, nil
}

func (p *Pipeline) language(result *transcribe.Result) string {
	if p.cfg.Language != "" {
		return p.cfg.Language
	}
	if result.Language != "" {
		return result.Language
	}
	return config.DefaultLanguage
}

func (p *Pipeline) publish(ctx context.Context, art *Artifacts) error {
	if p.store == nil {
		return nil
	}
	prefix := p.cfg.Storage.Prefix
	uploads := []struct{ dir, path string }{
		{"subtitles", art.SubtitlePath},
		{"ssml", art.SSMLPath},
	}
	for _, u := range uploads {
		key := storage.Key(prefix, u.dir, filepath.Base(u.path))
		if exists, err := p.store.Exists(ctx, key); err != nil {
			return fmt.Errorf("failed to check %s: %w", key, err)
		} else if exists {
			p.logger.Warnw("Replacing published artifact", "run", art.RunID, "key", key)
		}
		if err := p.store.PutFile(ctx, key, u.path); err != nil {
			return fmt.Errorf("failed to publish %s: %w", u.path, err)
		}
		art.Uploaded = append(art.Uploaded, key)
	}
	p.logger.Infow("Artifacts published", "run", art.RunID, "keys", art.Uploaded)
	return nil
}

// ProcessDir runs Process for every video file directly inside dir, in name
// order. A failing file does not stop the others; all failures are joined
// into the returned error.
func (p *Pipeline) ProcessDir(ctx context.Context, dir string) ([]*Artifacts, error) {
	files, err := ListVideos(dir)
	if err != nil {
		return nil, err
	}

	var (
		results []*Artifacts
		errs    []error
	)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		art, err := p.Process(ctx, file)
		if err != nil {
			p.logger.Errorw("Processing failed", "input", file, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(file), err))
			continue
		}
		results = append(results, art)
	}
	return results, errors.Join(errs...)
}

// ListVideos returns the regular video files directly inside dir, sorted.
func ListVideos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !audio.IsVideoFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// SubtitleFileName names the subtitle document of a video.
func SubtitleFileName(name, language string) string {
	return fmt.Sprintf("sub-%s.%s.srt", name, language)
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s.]`)
	underscores = regexp.MustCompile(`_+`)
)

// CleanFileName turns a title into a safe file name: characters other than
// ASCII letters, digits, whitespace and dots become underscores, runs of
// underscores collapse, surrounding underscores and all spaces are dropped.
func CleanFileName(title string) string {
	cleaned := unsafeChars.ReplaceAllString(title, "_")
	cleaned = underscores.ReplaceAllString(cleaned, "_")
	cleaned = strings.Trim(cleaned, "_")
	return strings.ReplaceAll(cleaned, " ", "")
}
