package chunker

import (
	"strings"
	"unicode"
)

// Break-point search regions, as fractions of the window measured back from its end.
const (
	paragraphRegion = 0.3
	sentenceRegion  = 0.4
	wordRegion      = 0.5
)

// Span is one chunk window over the normalised text.
// Start and End are rune offsets; Text is the trimmed window content.
type Span struct {
	Start int
	End   int
	Text  string
}

// Split divides text into overlapping chunks of at most maxLength characters.
// Text that already fits is returned unchanged as a single chunk.
func Split(text string, maxLength, overlap int) []string {
	spans := SplitSpans(text, maxLength, overlap)
	if spans == nil {
		return nil
	}
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Text
	}
	return out
}

// SplitSpans is Split with the window offsets of each chunk.
//
// For text longer than maxLength the offsets refer to Normalize(text), and
// consecutive spans satisfy next.Start <= prev.End, so the spans cover the
// whole normalised text. Text that fits in one window yields a single span
// holding the original text.
func SplitSpans(text string, maxLength, overlap int) []Span {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxLength <= 0 {
		maxLength = DefaultChunkSize
	}
	if overlap < 0 || overlap >= maxLength {
		overlap = maxLength / 4
	}

	raw := []rune(text)
	if len(raw) <= maxLength {
		return []Span{{Start: 0, End: len(raw), Text: text}}
	}

	r := []rune(Normalize(text))
	n := len(r)
	if n <= maxLength {
		return []Span{{Start: 0, End: n, Text: string(r)}}
	}

	var spans []Span
	start, prevEnd := 0, 0
	for start < n {
		end := start + maxLength
		if end >= n {
			end = n
		} else {
			end = breakPoint(r, start, end, prevEnd)
		}
		prevEnd = end

		if piece := strings.TrimSpace(string(r[start:end])); piece != "" {
			spans = append(spans, Span{Start: start, End: end, Text: piece})
		}
		if end >= n {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return spans
}

// breakPoint picks where the window [start, end) should end.
// The returned offset is always greater than both start and floor, so every
// chunk extends past the previous one.
func breakPoint(r []rune, start, end, floor int) int {
	window := end - start
	if floor < start {
		floor = start
	}

	lo := regionStart(floor, end, window, paragraphRegion)
	for i := end - 2; i >= lo; i-- {
		if r[i] == '\n' && r[i+1] == '\n' {
			return i + 2
		}
	}

	lo = regionStart(floor, end, window, sentenceRegion)
	for i := end - 1; i >= lo; i-- {
		if isSentenceEnd(r[i]) && (i+1 == len(r) || unicode.IsSpace(r[i+1])) {
			return i + 1
		}
	}

	lo = regionStart(floor, end, window, wordRegion)
	for i := end - 1; i >= lo; i-- {
		if unicode.IsSpace(r[i]) {
			return i + 1
		}
	}

	return end
}

// regionStart returns the first offset of the trailing fraction of a window,
// never at or before floor.
func regionStart(floor, end, window int, fraction float64) int {
	lo := end - int(float64(window)*fraction)
	if lo <= floor {
		lo = floor + 1
	}
	return lo
}

func isSentenceEnd(c rune) bool {
	return c == '.' || c == '!' || c == '?'
}

// Normalize collapses whitespace runs to single spaces while keeping
// paragraph breaks (one or more blank lines) as "\n\n".
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var paragraphs []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = current[:0]
		}
	}

	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			flush()
			continue
		}
		current = append(current, strings.Join(fields, " "))
	}
	flush()

	return strings.Join(paragraphs, "\n\n")
}
