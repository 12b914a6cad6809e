// Package ssml renders subtitle cue timelines as SSML documents for
// text-to-speech engines.
package ssml

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mgpai22/reels/internal/subtitle"
)

var ErrEmptyTimeline = errors.New("cue timeline is empty")

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`

var namespaces = []struct{ attr, uri string }{
	{"xmlns", "http://www.w3.org/2001/10/synthesis"},
	{"xmlns:mstts", "http://www.w3.org/2001/mstts"},
	{"xmlns:emo", "http://www.w3.org/2009/10/emotionml"},
}

// single pass, so the ampersands of introduced entities are never re-escaped
var escaper = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&apos;",
	"<", "&lt;",
	">", "&gt;",
)

// Escape replaces the five XML special characters with entities. Escaping
// already escaped text escapes its ampersands again.
func Escape(text string) string {
	return escaper.Replace(text)
}

// Render produces an SSML document for cues. Gaps come from the parsed
// timeline: a cue whose GapToNextMS is non-zero is followed by a break of
// that length. Negative durations and gaps are rendered as they are.
func Render(cues []subtitle.Cue, cfg Config) (string, error) {
	if len(cues) == 0 {
		return "", ErrEmptyTimeline
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	voiceOpen, voiceClose := "", ""
	if cfg.hasVoice() {
		voiceOpen = fmt.Sprintf(`<voice name="%s">`, Escape(strings.TrimSpace(cfg.VoiceName)))
		voiceClose = "</voice>"
	}
	wrapDocument := voiceOpen != "" && cfg.ServiceMode != ServiceAzure

	var sb strings.Builder
	sb.WriteString(xmlDeclaration)
	sb.WriteByte('\n')

	sb.WriteString("<speak")
	for _, ns := range namespaces {
		fmt.Fprintf(&sb, ` %s="%s"`, ns.attr, ns.uri)
	}
	fmt.Fprintf(&sb, ` version="%s" xml:lang="%s">`, Escape(cfg.Version), Escape(cfg.Language))
	sb.WriteByte('\n')

	if wrapDocument {
		sb.WriteString(voiceOpen)
		sb.WriteByte('\n')
	}

	for _, cue := range cues {
		text := Escape(cue.Text)
		duration := fmt.Sprintf("%dms", cue.Duration())

		sb.WriteByte('\t')
		if cfg.innerDuration() {
			fmt.Fprintf(&sb, `%s<mstts:audioduration value="%s"/>%s%s`,
				voiceOpen, duration, text, voiceClose)
		} else {
			fmt.Fprintf(&sb, `<prosody %s="%s">%s</prosody>`,
				cfg.DurationAttribute, duration, text)
		}
		sb.WriteString(breakTag(cue.GapToNextMS))
		sb.WriteByte('\n')
	}

	if wrapDocument {
		sb.WriteString(voiceClose)
		sb.WriteByte('\n')
	}
	sb.WriteString("</speak>\n")

	return sb.String(), nil
}

// zero gaps and gaps never back-filled render identically
func breakTag(gapMS int64) string {
	if gapMS == 0 {
		return ""
	}
	return fmt.Sprintf(`<break time="%dms"/>`, gapMS)
}

// WriteFile renders cues and writes the document atomically. Nothing is
// written when rendering fails.
func WriteFile(path string, cues []subtitle.Cue, cfg Config) error {
	doc, err := Render(cues, cfg)
	if err != nil {
		return err
	}
	if err := subtitle.WriteFileAtomic(path, []byte(doc)); err != nil {
		return fmt.Errorf("failed to write SSML: %w", err)
	}
	return nil
}
