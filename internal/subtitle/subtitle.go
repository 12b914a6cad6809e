package subtitle

// transcribed speech segment, offsets in seconds
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Cue is one timed entry of a subtitle timeline.
//
// GapToNextMS is the silence between this cue's end and the start of the cue
// indexed Index+1. It is only populated by Parse; it is zero for the last cue
// and for cues produced by Build.
type Cue struct {
	Index       int
	StartMS     int64
	EndMS       int64
	Text        string
	GapToNextMS int64
}

// Duration returns EndMS-StartMS. It is negative for hand-edited documents
// whose end precedes their start.
func (c Cue) Duration() int64 {
	return c.EndMS - c.StartMS
}

// represents supported subtitle output formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)
