package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

const (
	EnvFFmpegPath  = "REELS_FFMPEG_PATH"
	EnvFFprobePath = "REELS_FFPROBE_PATH"
)

var ErrNotFound = errors.New("ffmpeg binaries not found")

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

// Locator resolves the ffmpeg and ffprobe executables, preferring explicit
// environment overrides over the PATH.
type Locator struct {
	Getenv   func(string) string
	LookPath func(string) (string, error)
}

var (
	ensureOnce sync.Once
	ensureErr  error
	ensurePath BinaryPaths
)

// Ensure locates the binaries once per process.
func Ensure() (BinaryPaths, error) {
	ensureOnce.Do(func() {
		ensurePath, ensureErr = Locator{}.Locate()
	})
	return ensurePath, ensureErr
}

func FFmpegPath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func FFprobePath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

func (l Locator) Locate() (BinaryPaths, error) {
	if l.Getenv == nil {
		l.Getenv = os.Getenv
	}
	if l.LookPath == nil {
		l.LookPath = exec.LookPath
	}

	ffmpegPath, err := l.find(EnvFFmpegPath, "ffmpeg")
	if err != nil {
		return BinaryPaths{}, err
	}
	ffprobePath, err := l.find(EnvFFprobePath, "ffprobe")
	if err != nil {
		return BinaryPaths{}, err
	}
	return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

func (l Locator) find(envKey, name string) (string, error) {
	if path := l.Getenv(envKey); path != "" {
		return path, nil
	}
	path, err := l.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s not in PATH (set %s): %v", ErrNotFound, name, envKey, err)
	}
	return path, nil
}
