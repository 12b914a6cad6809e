package transcribe

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	awstranscribe "github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"

	"github.com/mgpai22/reels/internal/subtitle"
)

func word(text, start, end string) awsItem {
	item := awsItem{Type: "pronunciation", StartTime: start, EndTime: end}
	item.Alternatives = append(item.Alternatives, struct {
		Content string `json:"content"`
	}{text})
	return item
}

func punct(text string) awsItem {
	item := awsItem{Type: "punctuation"}
	item.Alternatives = append(item.Alternatives, struct {
		Content string `json:"content"`
	}{text})
	return item
}

func TestGroupItems(t *testing.T) {
	items := []awsItem{
		word("Hello", "0.0", "0.4"),
		punct(","),
		word("world", "0.5", "0.9"),
		punct("."),
		word("How", "1.5", "1.7"),
		word("are", "1.7", "1.8"),
		word("you", "1.8", "2.1"),
		punct("?"),
		word("Bye", "3.0", "3.3"),
	}

	got, err := groupItems(items)
	if err != nil {
		t.Fatalf("groupItems failed: %v", err)
	}

	want := []subtitle.Segment{
		{Start: 0, End: 0.9, Text: "Hello, world."},
		{Start: 1.5, End: 2.1, Text: "How are you?"},
		{Start: 3.0, End: 3.3, Text: "Bye"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d segments, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestGroupItemsErrors(t *testing.T) {
	if _, err := groupItems(nil); err == nil {
		t.Error("expected error for empty transcript")
	}
	if _, err := groupItems([]awsItem{punct(".")}); err == nil {
		t.Error("expected error for punctuation only")
	}
	if _, err := groupItems([]awsItem{word("x", "abc", "1")}); err == nil {
		t.Error("expected error for bad timestamp")
	}
}

func TestAWSLanguageCode(t *testing.T) {
	tests := map[string]string{
		"en":    "en-US",
		"PL":    "pl-PL",
		"en-GB": "en-GB",
		"xx":    "xx",
	}
	for in, want := range tests {
		if got := awsLanguageCode(in); got != want {
			t.Errorf("awsLanguageCode(%q) = %q, want %q", in, got, want)
		}
	}
}

type fakeJobs struct {
	started *awstranscribe.StartTranscriptionJobInput
	polls   int
	status  []types.TranscriptionJobStatus
}

func (f *fakeJobs) StartTranscriptionJob(_ context.Context, in *awstranscribe.StartTranscriptionJobInput, _ ...func(*awstranscribe.Options)) (*awstranscribe.StartTranscriptionJobOutput, error) {
	f.started = in
	return &awstranscribe.StartTranscriptionJobOutput{}, nil
}

func (f *fakeJobs) GetTranscriptionJob(_ context.Context, _ *awstranscribe.GetTranscriptionJobInput, _ ...func(*awstranscribe.Options)) (*awstranscribe.GetTranscriptionJobOutput, error) {
	status := f.status[min(f.polls, len(f.status)-1)]
	f.polls++
	return &awstranscribe.GetTranscriptionJobOutput{
		TranscriptionJob: &types.TranscriptionJob{TranscriptionJobStatus: status},
	}, nil
}

type fakeObjects struct {
	put    map[string]string
	output []byte
}

func (f *fakeObjects) PutFile(_ context.Context, key, filePath string) error {
	f.put[key] = filePath
	return nil
}

func (f *fakeObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	if !strings.HasSuffix(key, ".json") {
		return nil, errors.New("unexpected key " + key)
	}
	return io.NopCloser(bytes.NewReader(f.output)), nil
}

func (f *fakeObjects) Bucket() string { return "media" }

const sampleTranscriptJSON = `{
	"jobName": "reels-test",
	"results": {
		"transcripts": [{"transcript": "Dzień dobry. Jak się masz?"}],
		"items": [
			{"start_time": "0.1", "end_time": "0.6", "type": "pronunciation", "alternatives": [{"confidence": "0.99", "content": "Dzień"}]},
			{"start_time": "0.6", "end_time": "1.0", "type": "pronunciation", "alternatives": [{"confidence": "0.99", "content": "dobry"}]},
			{"type": "punctuation", "alternatives": [{"confidence": "0.0", "content": "."}]},
			{"start_time": "1.5", "end_time": "1.8", "type": "pronunciation", "alternatives": [{"confidence": "0.98", "content": "Jak"}]},
			{"start_time": "1.8", "end_time": "2.0", "type": "pronunciation", "alternatives": [{"confidence": "0.98", "content": "się"}]},
			{"start_time": "2.0", "end_time": "2.4", "type": "pronunciation", "alternatives": [{"confidence": "0.97", "content": "masz"}]},
			{"type": "punctuation", "alternatives": [{"confidence": "0.0", "content": "?"}]}
		]
	},
	"status": "COMPLETED"
}`

func TestAWSTranscribe(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(audioPath, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	jobs := &fakeJobs{status: []types.TranscriptionJobStatus{
		types.TranscriptionJobStatusInProgress,
		types.TranscriptionJobStatusCompleted,
	}}
	objects := &fakeObjects{put: map[string]string{}, output: []byte(sampleTranscriptJSON)}

	tr := newAWSTranscriber(jobs, objects, Options{Language: "pl", Prefix: "reels"})
	tr.pollInterval = time.Millisecond

	result, err := tr.Transcribe(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if len(objects.put) != 1 {
		t.Fatalf("expected one staged upload, got %v", objects.put)
	}
	for key := range objects.put {
		if !strings.HasPrefix(key, "reels/media/reels-") || !strings.HasSuffix(key, ".wav") {
			t.Errorf("unexpected media key %q", key)
		}
	}
	if jobs.started == nil {
		t.Fatal("transcription job was not started")
	}
	if jobs.started.LanguageCode != types.LanguageCode("pl-PL") {
		t.Errorf("LanguageCode = %q, want pl-PL", jobs.started.LanguageCode)
	}
	if jobs.started.MediaFormat != types.MediaFormat("wav") {
		t.Errorf("MediaFormat = %q, want wav", jobs.started.MediaFormat)
	}
	if !strings.HasPrefix(*jobs.started.Media.MediaFileUri, "s3://media/reels/media/") {
		t.Errorf("MediaFileUri = %q", *jobs.started.Media.MediaFileUri)
	}
	if jobs.polls != 2 {
		t.Errorf("polls = %d, want 2", jobs.polls)
	}

	if len(result.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %+v", result.Segments)
	}
	if result.Segments[1].Text != "Jak się masz?" {
		t.Errorf("segment text = %q", result.Segments[1].Text)
	}
	if result.Duration != 2400*time.Millisecond {
		t.Errorf("Duration = %v, want 2.4s", result.Duration)
	}
}

func TestAWSTranscribeJobFailed(t *testing.T) {
	jobs := &fakeJobs{status: []types.TranscriptionJobStatus{types.TranscriptionJobStatusFailed}}
	objects := &fakeObjects{put: map[string]string{}}

	tr := newAWSTranscriber(jobs, objects, Options{})
	tr.pollInterval = time.Millisecond

	_, err := tr.Transcribe(context.Background(), "clip.mp3")
	if err == nil || !strings.Contains(err.Error(), "failed") {
		t.Fatalf("expected job failure, got %v", err)
	}
	if jobs.started.IdentifyLanguage == nil || !*jobs.started.IdentifyLanguage {
		t.Error("language identification should be enabled without a language")
	}
}
