package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awstranscribe "github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/google/uuid"

	"github.com/mgpai22/reels/internal/storage"
	"github.com/mgpai22/reels/internal/subtitle"
)

// subset of *transcribe.Client used by AWSTranscriber
type jobAPI interface {
	StartTranscriptionJob(ctx context.Context, in *awstranscribe.StartTranscriptionJobInput, optFns ...func(*awstranscribe.Options)) (*awstranscribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, in *awstranscribe.GetTranscriptionJobInput, optFns ...func(*awstranscribe.Options)) (*awstranscribe.GetTranscriptionJobOutput, error)
}

// bucket access needed to stage media and read the job output
type objectStore interface {
	PutFile(ctx context.Context, key, filePath string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Bucket() string
}

// implements Transcriber using Amazon Transcribe batch jobs. Audio is staged
// in S3 and the job writes its JSON result back to the same bucket.
type AWSTranscriber struct {
	jobs         jobAPI
	objects      objectStore
	prefix       string
	language     string
	pollInterval time.Duration
}

func NewAWSTranscriber(ctx context.Context, opts Options) (*AWSTranscriber, error) {
	store, err := storage.OpenS3(ctx, opts.Bucket, opts.Region)
	if err != nil {
		return nil, err
	}
	cfg, err := storage.LoadAWSConfig(ctx, opts.Region)
	if err != nil {
		return nil, err
	}
	return newAWSTranscriber(awstranscribe.NewFromConfig(cfg), store, opts), nil
}

func newAWSTranscriber(jobs jobAPI, objects objectStore, opts Options) *AWSTranscriber {
	return &AWSTranscriber{
		jobs:         jobs,
		objects:      objects,
		prefix:       opts.Prefix,
		language:     opts.Language,
		pollInterval: 10 * time.Second,
	}
}

func (t *AWSTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	jobName := "reels-" + uuid.NewString()
	mediaKey := storage.Key(t.prefix, "media", jobName+filepath.Ext(audioPath))
	outputKey := storage.Key(t.prefix, "transcripts", jobName+".json")

	if err := t.objects.PutFile(ctx, mediaKey, audioPath); err != nil {
		return nil, fmt.Errorf("failed to stage audio: %w", err)
	}

	if err := t.startJob(ctx, jobName, mediaKey, outputKey, audioPath); err != nil {
		return nil, fmt.Errorf("start transcription job: %w", err)
	}
	if err := t.waitForJob(ctx, jobName); err != nil {
		return nil, err
	}

	body, err := t.objects.Get(ctx, outputKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript: %w", err)
	}
	defer body.Close()

	var out awsTranscript
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}

	segments, err := groupItems(out.Results.Items)
	if err != nil {
		return nil, err
	}
	result := &Result{Segments: segments, Language: t.language}
	if n := len(segments); n > 0 {
		result.Duration = secondsToDuration(segments[n-1].End)
	}
	return result, nil
}

func (t *AWSTranscriber) startJob(ctx context.Context, jobName, mediaKey, outputKey, audioPath string) error {
	mediaURI := fmt.Sprintf("s3://%s/%s", t.objects.Bucket(), mediaKey)
	in := &awstranscribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		Media:                &types.Media{MediaFileUri: aws.String(mediaURI)},
		OutputBucketName:     aws.String(t.objects.Bucket()),
		OutputKey:            aws.String(outputKey),
	}
	if format := mediaFormat(audioPath); format != "" {
		in.MediaFormat = types.MediaFormat(format)
	}
	if t.language != "" {
		in.LanguageCode = types.LanguageCode(awsLanguageCode(t.language))
	} else {
		in.IdentifyLanguage = aws.Bool(true)
	}
	_, err := t.jobs.StartTranscriptionJob(ctx, in)
	return err
}

func (t *AWSTranscriber) waitForJob(ctx context.Context, jobName string) error {
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			out, err := t.jobs.GetTranscriptionJob(ctx, &awstranscribe.GetTranscriptionJobInput{
				TranscriptionJobName: aws.String(jobName),
			})
			if err != nil {
				return fmt.Errorf("retrieving transcription job status: %w", err)
			}
			if out.TranscriptionJob == nil {
				continue
			}
			switch out.TranscriptionJob.TranscriptionJobStatus {
			case types.TranscriptionJobStatusCompleted:
				return nil
			case types.TranscriptionJobStatusFailed:
				reason := aws.ToString(out.TranscriptionJob.FailureReason)
				return fmt.Errorf("transcription job %s failed: %s", jobName, reason)
			}
		}
	}
}

func mediaFormat(path string) string {
	switch ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."); ext {
	case "mp3", "mp4", "wav", "flac", "ogg", "amr", "webm", "m4a":
		return ext
	}
	return ""
}

// expands bare language names into the region-qualified codes Transcribe wants
func awsLanguageCode(lang string) string {
	if strings.Contains(lang, "-") {
		return lang
	}
	switch strings.ToLower(lang) {
	case "en":
		return "en-US"
	case "pl":
		return "pl-PL"
	case "de":
		return "de-DE"
	case "fr":
		return "fr-FR"
	case "es":
		return "es-ES"
	case "it":
		return "it-IT"
	case "pt":
		return "pt-BR"
	case "ja":
		return "ja-JP"
	default:
		return lang
	}
}

// JSON document written by a Transcribe batch job
type awsTranscript struct {
	Results struct {
		Items []awsItem `json:"items"`
	} `json:"results"`
}

type awsItem struct {
	StartTime    string `json:"start_time,omitempty"`
	EndTime      string `json:"end_time,omitempty"`
	Type         string `json:"type"`
	Alternatives []struct {
		Content string `json:"content"`
	} `json:"alternatives"`
}

// groupItems joins word items into sentence segments. Punctuation items
// carry no timing and attach to the preceding word; a sentence ends at
// '.', '?' or '!'.
func groupItems(items []awsItem) ([]subtitle.Segment, error) {
	var (
		segments []subtitle.Segment
		words    []string
		start    float64
		end      float64
	)
	flush := func() {
		if len(words) == 0 {
			return
		}
		segments = append(segments, subtitle.Segment{Start: start, End: end, Text: strings.Join(words, " ")})
		words = nil
	}

	for _, item := range items {
		if len(item.Alternatives) == 0 {
			continue
		}
		content := item.Alternatives[0].Content

		if item.Type == "punctuation" {
			if len(words) == 0 {
				continue
			}
			words[len(words)-1] += content
			if content == "." || content == "?" || content == "!" {
				flush()
			}
			continue
		}

		s, err := strconv.ParseFloat(item.StartTime, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid item start time %q: %w", item.StartTime, err)
		}
		e, err := strconv.ParseFloat(item.EndTime, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid item end time %q: %w", item.EndTime, err)
		}
		if len(words) == 0 {
			start = s
		}
		end = e
		words = append(words, content)
	}
	flush()

	if len(segments) == 0 {
		return nil, errors.New("transcript contains no words")
	}
	return segments, nil
}
