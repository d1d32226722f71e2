package notes

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Segment is a piece of note text attributed to one speaker. Speaker is empty
// for untagged text. Labeled marks the first piece of a speaker run; the
// composer renders the "speaker：" prefix only on labeled pieces so split
// continuations do not repeat the label.
type Segment struct {
	Speaker string
	Text    string
	Labeled bool
}

// Chunk is the unit that maps to exactly one generated slide. CharCount is
// the rune total of the segment texts. PageIndex is 1-based; PageCount is the
// number of chunks produced for the source slide.
type Chunk struct {
	Segments  []Segment
	CharCount int
	PageIndex int
	PageCount int
}

// markerPattern recognizes a line-leading speaker label followed by an ASCII
// or full-width colon. Labels are short and contain no whitespace or colons;
// a bare colon at line start is plain text, not a speaker change.
var markerPattern = regexp.MustCompile(`^([^\s:：]{1,20})[:：][ \t　]*`)

// Segmenter splits raw note text into speaker-tagged chunks bounded by a
// character budget, preferring sentence-terminal punctuation as split points.
type Segmenter struct {
	maxChars   int
	boundaries map[rune]struct{}
}

// NewSegmenter builds a Segmenter with the given budget and preferred
// boundary marks. boundaryMarks is the set of runes a long segment may be
// split after, typically sentence terminators.
func NewSegmenter(maxChars int, boundaryMarks string) *Segmenter {
	boundaries := make(map[rune]struct{}, len(boundaryMarks))
	for _, r := range boundaryMarks {
		boundaries[r] = struct{}{}
	}
	return &Segmenter{maxChars: maxChars, boundaries: boundaries}
}

type speakerRun struct {
	speaker string
	lines   []string
}

// Chunks converts raw note text into the ordered chunk sequence for one
// source slide. Empty or whitespace-only input yields nil.
func (s *Segmenter) Chunks(raw string) []Chunk {
	runs := parseRuns(raw)
	if len(runs) == 0 {
		return nil
	}

	var pieces []Segment
	for _, run := range runs {
		text := strings.TrimSpace(strings.Join(run.lines, "\n"))
		for i, part := range s.split(text) {
			pieces = append(pieces, Segment{
				Speaker: run.speaker,
				Text:    part,
				Labeled: i == 0 && run.speaker != "",
			})
		}
	}

	var chunks []Chunk
	var current []Segment
	currentLen := 0
	currentSpeaker := ""
	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece.Text)
		if len(current) > 0 && (piece.Speaker != currentSpeaker || currentLen+n > s.maxChars) {
			chunks = append(chunks, Chunk{Segments: current, CharCount: currentLen})
			current = nil
			currentLen = 0
		}
		current = append(current, piece)
		currentLen += n
		currentSpeaker = piece.Speaker
	}
	if len(current) > 0 {
		chunks = append(chunks, Chunk{Segments: current, CharCount: currentLen})
	}

	for i := range chunks {
		chunks[i].PageIndex = i + 1
		chunks[i].PageCount = len(chunks)
	}
	return chunks
}

// parseRuns groups lines into contiguous speaker runs. A marker line starts a
// new run; unmarked lines continue the current one. Text before the first
// marker forms an untagged run. Blank lines survive as paragraph breaks
// inside the run.
func parseRuns(raw string) []speakerRun {
	normalized := strings.ReplaceAll(strings.ReplaceAll(raw, "\r\n", "\n"), "\r", "\n")
	trimmed := strings.TrimSpace(normalized)
	if trimmed == "" {
		return nil
	}

	var runs []speakerRun
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if m := markerPattern.FindStringSubmatch(line); m != nil {
			runs = append(runs, speakerRun{speaker: m[1], lines: []string{line[len(m[0]):]}})
			continue
		}
		if len(runs) == 0 {
			runs = append(runs, speakerRun{lines: []string{line}})
			continue
		}
		last := len(runs) - 1
		runs[last].lines = append(runs[last].lines, line)
	}
	return runs
}

// split cuts text into pieces of at most maxChars runes. Each cut lands just
// after the last boundary mark at or before the budget; with no boundary in
// reach the cut falls at exactly maxChars.
func (s *Segmenter) split(text string) []string {
	runes := []rune(text)
	if len(runes) <= s.maxChars {
		return []string{text}
	}

	var pieces []string
	for len(runes) > s.maxChars {
		cut := s.maxChars
		for i := s.maxChars - 1; i >= 0; i-- {
			if _, ok := s.boundaries[runes[i]]; ok {
				cut = i + 1
				break
			}
		}
		pieces = append(pieces, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		pieces = append(pieces, string(runes))
	}
	return pieces
}
