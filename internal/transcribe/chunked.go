package transcribe

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mgpai22/reels/internal/audio"
	"github.com/mgpai22/reels/internal/logging"
	"github.com/mgpai22/reels/internal/subtitle"
)

// splitFunc cuts an audio file into consecutive chunks written under dir.
type splitFunc func(ctx context.Context, audioPath string, length time.Duration, dir string, concurrency int) ([]audio.Chunk, error)

// Chunked splits long recordings before handing them to Inner, which keeps
// hosted recognizers under their upload limits. Chunks are transcribed
// concurrently and merged back in order with their offsets applied.
type Chunked struct {
	Inner       Transcriber
	ChunkLength time.Duration
	Concurrency int
	Logger      *logging.Logger

	split splitFunc
}

func NewChunked(inner Transcriber, chunkLength time.Duration, concurrency int, logger *logging.Logger) *Chunked {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Chunked{
		Inner:       inner,
		ChunkLength: chunkLength,
		Concurrency: concurrency,
		Logger:      logger,
		split:       audio.Split,
	}
}

func (c *Chunked) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if c.ChunkLength <= 0 {
		return c.Inner.Transcribe(ctx, audioPath)
	}

	dir, err := os.MkdirTemp("", "reels-chunks-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create chunk directory: %w", err)
	}
	defer os.RemoveAll(dir)

	chunks, err := c.split(ctx, audioPath, c.ChunkLength, dir, c.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to split audio: %w", err)
	}
	c.Logger.Infow("Transcribing chunks", "audio", audioPath, "chunks", len(chunks), "concurrency", c.Concurrency)

	return c.transcribeChunks(ctx, chunks)
}

// holds the result of transcribing a chunk
type chunkResult struct {
	index    int
	segments []subtitle.Segment
	language string
	err      error
}

func (c *Chunked) transcribeChunks(ctx context.Context, chunks []audio.Chunk) (*Result, error) {
	if len(chunks) == 0 {
		return &Result{}, nil
	}

	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	work := make(chan int)
	results := make(chan chunkResult, len(chunks))

	var wg sync.WaitGroup
	for range concurrency {
		wg.Go(func() {
			for i := range work {
				if ctx.Err() != nil {
					continue
				}
				chunk := chunks[i]
				res, err := c.Inner.Transcribe(ctx, chunk.Path)
				if err != nil {
					cancel()
					results <- chunkResult{index: i, err: err}
					continue
				}
				c.Logger.Debugw("Chunk transcribed", "chunk", chunk.Index, "segments", len(res.Segments))
				results <- chunkResult{
					index:    i,
					segments: shiftSegments(res.Segments, chunk.Offset.Seconds()),
					language: res.Language,
				}
			}
		})
	}

	go func() {
		defer close(work)
		for i := range chunks {
			select {
			case <-ctx.Done():
				return
			case work <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]*chunkResult, len(chunks))
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("chunk %d failed: %w", chunks[r.index].Index, r.err)
			}
			continue
		}
		ordered[r.index] = &r
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := &Result{}
	for _, r := range ordered {
		merged.Segments = append(merged.Segments, r.segments...)
		if merged.Language == "" {
			merged.Language = r.language
		}
	}
	last := chunks[len(chunks)-1]
	merged.Duration = last.Offset + last.Length
	return merged, nil
}
