package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"google.golang.org/genai"

	"github.com/mgpai22/reels/internal/audio"
	"github.com/mgpai22/reels/internal/subtitle"
)

// implements Transcriber interface using Google Gemini
type GeminiTranscriber struct {
	client  *genai.Client
	model   string
	options Options
}

// segment from Gemini's JSON response
type transcriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

var errNoTranscript = errors.New("no transcript segments found in response")

func NewGeminiTranscriber(ctx context.Context, opts Options) (*GeminiTranscriber, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiTranscriber{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// transcribes single audio file
func (t *GeminiTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	uploaded, err := t.client.Files.UploadFromPath(ctx, audioPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio file: %w", err)
	}
	defer func() {
		_, _ = t.client.Files.Delete(context.WithoutCancel(ctx), uploaded.Name, nil)
	}()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(buildTranscriptionPrompt(t.options)),
			genai.NewPartFromURI(uploaded.URI, uploaded.MIMEType),
		}, genai.RoleUser),
	}

	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	segments, err := parseTranscriptionText(resp.Text())
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w", err)
	}

	result := &Result{Segments: segments, Language: t.options.Language}
	if d, err := audio.Duration(ctx, audioPath); err == nil {
		result.Duration = d
	}
	return result, nil
}

// creates the prompt for transcription
func buildTranscriptionPrompt(opts Options) string {
	var sb strings.Builder

	sb.WriteString("Generate a detailed transcript of this audio. ")
	sb.WriteString("For each sentence or phrase, provide the start timestamp, end timestamp, and the exact text spoken. ")
	sb.WriteString("Format your response as a JSON array with objects containing 'start', 'end', and 'text' fields, ")
	sb.WriteString("where 'start' and 'end' are timestamps in seconds (as numbers). ")

	if opts.Language != "" {
		fmt.Fprintf(&sb, "The audio is in %s. Transcribe it in that language. ", opts.Language)
	}
	if opts.Prompt != "" {
		sb.WriteString(opts.Prompt)
		sb.WriteString(" ")
	}

	sb.WriteString("Return ONLY the JSON array, no other text or markdown formatting.")
	return sb.String()
}

func parseTranscriptionText(text string) ([]subtitle.Segment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text in Gemini response")
	}

	raw, err := extractTranscriptSegments(cleanJSONResponse(text))
	if err != nil {
		return nil, fmt.Errorf("%w (response: %s)", err, truncateString(text, 200))
	}

	segments := make([]subtitle.Segment, 0, len(raw))
	for _, ts := range raw {
		text := strings.TrimSpace(ts.Text)
		if text == "" {
			continue
		}
		segments = append(segments, subtitle.Segment{Start: ts.Start, End: ts.End, Text: text})
	}
	return segments, nil
}

var jsonFenceRegex = regexp.MustCompile("```(?:json)?\\s*")

// removes markdown formatting from the response
func cleanJSONResponse(s string) string {
	s = jsonFenceRegex.ReplaceAllString(strings.TrimSpace(s), "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// extractTranscriptSegments finds the first JSON value in s that holds
// transcript segments. Models wrap the array in prose or in an object, so
// every '[' or '{' is tried as the start of a value.
func extractTranscriptSegments(s string) ([]transcriptSegment, error) {
	for i := 0; i < len(s); i++ {
		if s[i] != '[' && s[i] != '{' {
			continue
		}

		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&raw); err != nil {
			continue
		}
		if segments, ok := segmentsFromJSON(raw, 0); ok {
			return segments, nil
		}
	}
	return nil, errNoTranscript
}

// preferred wrapper keys, tried before any other key
var segmentKeys = []string{"segments", "transcript", "data"}

const maxWrapperDepth = 4

func segmentsFromJSON(raw json.RawMessage, depth int) ([]transcriptSegment, bool) {
	if depth > maxWrapperDepth {
		return nil, false
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, false
	}

	switch trimmed[0] {
	case '[':
		var segments []transcriptSegment
		if err := json.Unmarshal(raw, &segments); err != nil || !validateSegments(segments) {
			return nil, false
		}
		return segments, true

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, false
		}
		for _, key := range orderedKeys(obj) {
			if segments, ok := segmentsFromJSON(obj[key], depth+1); ok {
				return segments, true
			}
		}
	}
	return nil, false
}

func orderedKeys(obj map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(obj))
	for _, k := range segmentKeys {
		if _, ok := obj[k]; ok {
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range obj {
		preferred := false
		for _, p := range segmentKeys {
			if k == p {
				preferred = true
				break
			}
		}
		if !preferred {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// reports whether any segment carries a timestamp or text
func validateSegments(segments []transcriptSegment) bool {
	for _, s := range segments {
		if s.Text != "" || s.Start != 0 || s.End != 0 {
			return true
		}
	}
	return false
}

// truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
