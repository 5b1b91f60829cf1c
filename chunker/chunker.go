package chunker

import (
	"strings"
	"unicode"
)

const (
	// DefaultMaxSize is the default maximum chunk length in characters.
	DefaultMaxSize = 800

	// DefaultOverlap is the default number of characters shared between
	// adjacent chunks.
	DefaultOverlap = 150

	// charsPerUnit is the heuristic used to estimate billable units from
	// text length. Cost figures derived from it are advisory and do not
	// match provider tokenizers exactly.
	charsPerUnit = 4
)

// Span is one chunk of a source text. Start and End are absolute character
// offsets into the original text, so Text == source[Start:End].
type Span struct {
	Text  string
	Start int
	End   int
}

// Chunker splits document text into bounded, overlapping spans, preferring
// paragraph boundaries, then sentence boundaries, then word boundaries.
type Chunker struct {
	maxSize int
	overlap int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithMaxSize sets the maximum chunk length in characters.
// Values < 1 fall back to the default.
func WithMaxSize(size int) Option {
	return func(c *Chunker) {
		if size < 1 {
			size = DefaultMaxSize
		}
		c.maxSize = size
	}
}

// WithOverlap sets the overlap length in characters. The overlap is clamped
// below maxSize so every chunk contributes new text.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap < 0 {
			overlap = 0
		}
		c.overlap = overlap
	}
}

// New creates a Chunker with the default size and overlap.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxSize: DefaultMaxSize,
		overlap: DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.maxSize {
		c.overlap = c.maxSize / 2
	}
	return c
}

// MaxSize returns the configured maximum chunk length.
func (c *Chunker) MaxSize() int { return c.maxSize }

// Overlap returns the configured overlap length.
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks text into ordered spans. Every span is at most maxSize
// characters long, except when a single whitespace-free token exceeds maxSize;
// such a token is passed through whole rather than truncated. For adjacent
// spans the last overlap characters of the earlier span equal the first
// overlap characters of the later one (or the whole earlier span, when it is
// shorter than the overlap). The shared region shrinks below overlap at a
// boundary where the later span's own text already approaches maxSize, so
// the size bound holds there too.
//
// Empty or whitespace-only input yields no spans.
func (c *Chunker) Split(text string) []Span {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// Segments tile the text contiguously: segment i ends exactly where
	// segment i+1 starts. Packing against maxSize-overlap leaves room for the
	// overlap prefix added below, which keeps the maxSize invariant exact.
	limit := c.maxSize - c.overlap
	if limit < 1 {
		limit = 1
	}
	segments := c.pack(text, limit)
	if len(segments) == 0 {
		return nil
	}

	spans := make([]Span, 0, len(segments))
	prevStart := segments[0].start
	for i, seg := range segments {
		start := seg.start
		if i > 0 {
			prevEnd := segments[i-1].end
			start = prevEnd - c.overlap
			if start < prevStart {
				// Previous chunk is shorter than the overlap; the whole of it
				// becomes the shared boundary.
				start = prevStart
			}
			if seg.end-start > c.maxSize {
				// The segment itself is wider than maxSize-overlap (an unbroken
				// token). Shrink the overlap so the span stays within maxSize;
				// only a token wider than maxSize on its own may exceed it.
				start = seg.end - c.maxSize
				if start > seg.start {
					start = seg.start
				}
			}
		}
		spans = append(spans, Span{
			Text:  text[start:seg.end],
			Start: start,
			End:   seg.end,
		})
		prevStart = start
	}
	return spans
}

// EstimateUnits estimates the billable unit count for text using the
// chars-per-token heuristic.
func EstimateUnits(text string) int {
	units := len(text) / charsPerUnit
	if units == 0 && len(text) > 0 {
		units = 1
	}
	return units
}

// segment is a half-open [start, end) range into the source text.
type segment struct {
	start int
	end   int
}

// pack splits text into contiguous segments of at most limit characters,
// greedily merging paragraphs and falling back to sentence and word splits
// for oversized paragraphs.
func (c *Chunker) pack(text string, limit int) []segment {
	paragraphs := paragraphBounds(text)

	var segments []segment
	cur := segment{start: -1}
	flush := func() {
		if cur.start >= 0 && cur.end > cur.start {
			segments = append(segments, cur)
		}
		cur = segment{start: -1}
	}

	for _, para := range paragraphs {
		if para.end-para.start > limit {
			// Oversized paragraph: emit what we have, then split it finer.
			flush()
			segments = append(segments, splitOversized(text, para, limit)...)
			continue
		}
		if cur.start < 0 {
			cur = para
			continue
		}
		if para.end-cur.start > limit {
			flush()
			cur = para
			continue
		}
		cur.end = para.end
	}
	flush()
	return segments
}

// paragraphBounds tiles text into paragraph segments split on blank lines.
// Each segment includes its trailing separator so segments are contiguous.
func paragraphBounds(text string) []segment {
	var bounds []segment
	start := 0
	i := 0
	for i < len(text) {
		if text[i] != '\n' {
			i++
			continue
		}
		// Look ahead over whitespace for a second newline (a blank line).
		j := i + 1
		sawBlank := false
		for j < len(text) {
			if text[j] == '\n' {
				sawBlank = true
				j++
				continue
			}
			if text[j] == ' ' || text[j] == '\t' || text[j] == '\r' {
				j++
				continue
			}
			break
		}
		if sawBlank {
			bounds = append(bounds, segment{start: start, end: j})
			start = j
			i = j
			continue
		}
		i = j
	}
	if start < len(text) {
		bounds = append(bounds, segment{start: start, end: len(text)})
	}
	return bounds
}

// splitOversized splits a paragraph that exceeds the limit, first on sentence
// boundaries, then on word boundaries. A single token longer than the limit
// is emitted whole.
func splitOversized(text string, para segment, limit int) []segment {
	sentences := sentenceBounds(text, para)

	var segments []segment
	cur := segment{start: -1}
	flush := func() {
		if cur.start >= 0 && cur.end > cur.start {
			segments = append(segments, cur)
		}
		cur = segment{start: -1}
	}

	for _, sent := range sentences {
		if sent.end-sent.start > limit {
			flush()
			segments = append(segments, hardSplit(text, sent, limit)...)
			continue
		}
		if cur.start < 0 {
			cur = sent
			continue
		}
		if sent.end-cur.start > limit {
			flush()
			cur = sent
			continue
		}
		cur.end = sent.end
	}
	flush()
	return segments
}

// sentenceBounds tiles a segment into sentence segments, splitting after
// terminal punctuation followed by whitespace, or at line breaks.
func sentenceBounds(text string, para segment) []segment {
	var bounds []segment
	start := para.start
	for i := para.start; i < para.end; i++ {
		ch := text[i]
		isBreak := ch == '\n'
		if !isBreak && (ch == '.' || ch == '!' || ch == '?') {
			if i+1 < para.end && unicode.IsSpace(rune(text[i+1])) {
				isBreak = true
			}
		}
		if isBreak && i+1 > start {
			bounds = append(bounds, segment{start: start, end: i + 1})
			start = i + 1
		}
	}
	if start < para.end {
		bounds = append(bounds, segment{start: start, end: para.end})
	}
	return bounds
}

// hardSplit cuts a segment into pieces of at most limit characters, breaking
// at the last whitespace inside each window. When a window contains no
// whitespace the current token runs past the limit and is emitted whole:
// data is never truncated.
func hardSplit(text string, seg segment, limit int) []segment {
	var segments []segment
	start := seg.start
	for start < seg.end {
		if seg.end-start <= limit {
			segments = append(segments, segment{start: start, end: seg.end})
			break
		}
		cut := -1
		for i := start + limit; i > start; i-- {
			if unicode.IsSpace(rune(text[i-1])) {
				cut = i
				break
			}
		}
		if cut < 0 {
			// No whitespace in the window: extend to the end of the token.
			cut = start + limit
			for cut < seg.end && !unicode.IsSpace(rune(text[cut])) {
				cut++
			}
		}
		segments = append(segments, segment{start: start, end: cut})
		start = cut
	}
	return segments
}
