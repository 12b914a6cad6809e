package transcribe

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractTranscriptSegments(t *testing.T) {
	nested := `{"result": {"payload": {"items": {"list": [{"text": "deep"}]}}}}`

	tests := []struct {
		name      string
		input     string
		wantTexts []string
		wantErr   bool
	}{
		{
			name:      "bare array",
			input:     `[{"start": 0, "end": 2.5, "text": "one"}, {"start": 2.5, "end": 5, "text": "two"}]`,
			wantTexts: []string{"one", "two"},
		},
		{
			name:      "prose around the array",
			input:     "Sure! Here it is:\n[{\"start\": 1, \"end\": 3, \"text\": \"inside\"}]\nAnything else?",
			wantTexts: []string{"inside"},
		},
		{
			name:      "bracket in prose before the value",
			input:     `Timestamps [in seconds] follow: [{"start": 0, "end": 1, "text": "after"}]`,
			wantTexts: []string{"after"},
		},
		{
			name:      "preferred key wins over sorted keys",
			input:     `{"alpha": [{"text": "alpha"}], "transcript": [{"text": "preferred"}]}`,
			wantTexts: []string{"preferred"},
		},
		{
			name:      "segments before data",
			input:     `{"data": [{"text": "data"}], "segments": [{"text": "segments"}]}`,
			wantTexts: []string{"segments"},
		},
		{
			name:      "unknown keys tried in sorted order",
			input:     `{"zeta": [{"text": "z"}], "beta": [{"text": "b"}]}`,
			wantTexts: []string{"b"},
		},
		{
			name:      "empty segments skipped for a later key",
			input:     `{"segments": [{}], "words": [{"start": 1, "end": 2, "text": "fallback"}]}`,
			wantTexts: []string{"fallback"},
		},
		{
			name:      "nested wrappers",
			input:     nested,
			wantTexts: []string{"deep"},
		},
		{
			name:    "no JSON at all",
			input:   "I could not transcribe this audio.",
			wantErr: true,
		},
		{
			name:    "array of empty objects",
			input:   `[{}, {}]`,
			wantErr: true,
		},
		{
			name:    "truncated array",
			input:   `[{"start": 0, "end": 1, "text": "cut`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractTranscriptSegments(tt.input)
			if tt.wantErr {
				if !errors.Is(err, errNoTranscript) {
					t.Fatalf("error = %v, want errNoTranscript", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.wantTexts) {
				t.Fatalf("got %d segments, want %d: %+v", len(got), len(tt.wantTexts), got)
			}
			for i, want := range tt.wantTexts {
				if got[i].Text != want {
					t.Errorf("segment %d text = %q, want %q", i, got[i].Text, want)
				}
			}
		})
	}
}

func TestSegmentsFromJSONDepthLimit(t *testing.T) {
	atLimit := `{"a": {"b": {"c": {"d": [{"text": "found"}]}}}}`
	if segments, ok := segmentsFromJSON([]byte(atLimit), 0); !ok || segments[0].Text != "found" {
		t.Errorf("wrappers at the depth limit not unwrapped: %v %+v", ok, segments)
	}

	tooDeep := `{"a": {"b": {"c": {"d": {"e": [{"text": "hidden"}]}}}}}`
	if _, ok := segmentsFromJSON([]byte(tooDeep), 0); ok {
		t.Error("wrappers deeper than the limit should not be unwrapped")
	}
}

func TestCleanJSONResponse(t *testing.T) {
	const body = `[{"start": 0, "end": 1, "text": "hi"}]`

	tests := []struct {
		name  string
		input string
	}{
		{"unfenced", body},
		{"json fence", "```json\n" + body + "\n```"},
		{"bare fence", "```\n" + body + "\n```"},
		{"surrounding blank lines", "\n\n  ```json\n" + body + "\n```  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSONResponse(tt.input); got != body {
				t.Errorf("cleanJSONResponse(%q) = %q, want %q", tt.input, got, body)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("short", 10); got != "short" {
		t.Errorf("truncateString(short) = %q", got)
	}
	if got := truncateString("abcdefghij", 4); got != "abcd..." {
		t.Errorf("truncateString = %q, want abcd...", got)
	}
}

func TestValidateSegments(t *testing.T) {
	tests := []struct {
		name     string
		segments []transcriptSegment
		want     bool
	}{
		{"empty slice", []transcriptSegment{}, false},
		{"nil slice", nil, false},
		{"segment with text", []transcriptSegment{{Text: "hello"}}, true},
		{"segment with start time", []transcriptSegment{{Start: 1.0}}, true},
		{"segment with end time", []transcriptSegment{{End: 2.0}}, true},
		{
			"all zero segment",
			[]transcriptSegment{{Start: 0, End: 0, Text: ""}},
			false,
		},
		{
			"multiple segments one valid",
			[]transcriptSegment{{}, {Start: 1.0, End: 2.0, Text: "valid"}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validateSegments(tt.segments); got != tt.want {
				t.Errorf("validateSegments() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTranscriptionText(t *testing.T) {
	input := "```json\n[{\"start\": 0.5, \"end\": 2, \"text\": \" Hello \"}, {\"start\": 2, \"end\": 3, \"text\": \"\"}]\n```"

	segments, err := parseTranscriptionText(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].Start != 0.5 || segments[0].End != 2 || segments[0].Text != "Hello" {
		t.Errorf("unexpected segment %+v", segments[0])
	}

	if _, err := parseTranscriptionText("   "); err == nil {
		t.Error("expected error for blank response")
	}
}

func TestBuildTranscriptionPrompt(t *testing.T) {
	prompt := buildTranscriptionPrompt(Options{Language: "pl", Prompt: "Speaker is a chef."})
	for _, want := range []string{"JSON array", "The audio is in pl.", "Speaker is a chef."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q: %s", want, prompt)
		}
	}
}
