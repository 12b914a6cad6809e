package subtitle

import (
	"strconv"
	"strings"
)

// Build converts ordered recognizer segments into cues numbered from 1.
// Segments are not checked for overlap or ordering.
func Build(segments []Segment) ([]Cue, error) {
	if len(segments) == 0 {
		return nil, ErrEmptyTranscript
	}

	cues := make([]Cue, len(segments))
	for i, seg := range segments {
		cues[i] = Cue{
			Index:   i + 1,
			StartMS: RoundToMillis(seg.Start),
			EndMS:   RoundToMillis(seg.End),
			Text:    normalizeText(seg.Text),
		}
	}
	return cues, nil
}

// Serialize renders cues as a SubRip document.
func Serialize(cues []Cue) string {
	return serialize(cues, ',')
}

// SerializeVTT renders cues as a WebVTT document.
func SerializeVTT(cues []Cue) string {
	return "WEBVTT\n\n" + serialize(cues, '.')
}

// BuildDocument runs Build and Serialize.
func BuildDocument(segments []Segment) ([]Cue, string, error) {
	cues, err := Build(segments)
	if err != nil {
		return nil, "", err
	}
	return cues, Serialize(cues), nil
}

func serialize(cues []Cue, sep byte) string {
	var sb strings.Builder
	for i, cue := range cues {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strconv.Itoa(cue.Index))
		sb.WriteByte('\n')

		// 00:00:00,000 --> 00:00:00,000
		sb.WriteString(formatSigned(cue.StartMS, sep))
		sb.WriteString(" --> ")
		sb.WriteString(formatSigned(cue.EndMS, sep))
		sb.WriteByte('\n')

		sb.WriteString(cue.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func formatSigned(ms int64, sep byte) string {
	if ms < 0 {
		return "-" + formatMillis(-ms, sep)
	}
	return formatMillis(ms, sep)
}

// folds a recognizer's text into a single display line the same way the
// parser joins a multi-line body
func normalizeText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, " ")
}
