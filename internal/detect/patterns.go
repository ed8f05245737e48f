package detect

import (
	"regexp"
	"strings"

	"redaction-worker-go/internal/models"
)

// patternRule is a pure-pattern secret detector run against concatenated
// line text. excludePaths skips matches that are really filenames or
// filesystem paths picked up by OCR.
type patternRule struct {
	name         string
	pattern      *regexp.Regexp
	excludePaths bool
}

var patternRules = []patternRule{
	{
		name:    "credit_card",
		pattern: regexp.MustCompile(`\b(?:\d[ -]?){12,15}\d\b`),
	},
	{
		name:    "us_ssn",
		pattern: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	},
	{
		name:    "jwt",
		pattern: regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]{8,}\.[A-Za-z0-9_\-]{4,}\.[A-Za-z0-9_\-]*`),
	},
	{
		name:         "stripe_key",
		pattern:      regexp.MustCompile(`\b[srp]k_(?:live|test)_[A-Za-z0-9]{8,}\b`),
		excludePaths: true,
	},
	{
		name:         "aws_access_key",
		pattern:      regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
		excludePaths: true,
	},
}

// pathRe recognizes filenames and filesystem paths so key-shaped tokens in
// them do not trigger pattern matches.
var pathRe = regexp.MustCompile(`(?i)(\.(txt|pdf|docx|xlsx|jpg|png|exe|py|go|java|js|html|css|json|xml|log|csv|sql|db|sh|bat|zip|tar|gz)\b|^[A-Za-z]:\\|/(home|usr|etc|var|tmp)/|node_modules|__pycache__|\.git\b)`)

// textLine is one reconstructed line of OCR output: the concatenated text
// and, per word, its cumulative start offset within that text.
type textLine struct {
	text    string
	words   []models.OCRWord
	offsets []int
}

// ScanPatterns runs the pattern rules over concatenated line text and maps
// matches back to the contributing word boxes by character offset. Matched
// words are marked consumed.
func ScanPatterns(words []models.OCRWord, consumed map[int]bool, pad int) []models.CandidateRegion {
	var out []models.CandidateRegion
	for _, line := range groupLines(words) {
		for _, rule := range patternRules {
			for _, loc := range rule.pattern.FindAllStringIndex(line.text, -1) {
				if rule.excludePaths && pathRe.MatchString(lineContext(line.text, loc)) {
					continue
				}

				box, hit := line.spanBox(loc[0], loc[1], consumed)
				if !hit {
					continue
				}
				out = append(out, models.CandidateRegion{
					Box:    box.Expand(pad, pad),
					Source: models.SourcePatternMatch,
				})
			}
		}
	}
	return out
}

// spanBox returns the union box of all words overlapping the [start, end)
// character range and marks them consumed. hit is false when every word in
// the span was already consumed by an earlier pass.
func (l *textLine) spanBox(start, end int, consumed map[int]bool) (models.Rect, bool) {
	var box models.Rect
	hit := false
	for i, w := range l.words {
		wStart := l.offsets[i]
		wEnd := wStart + len(w.Text)
		if wEnd <= start || wStart >= end {
			continue
		}
		if consumed[w.OriginIndex] {
			continue
		}
		if !hit {
			box = w.Box
			hit = true
		} else {
			box = box.Union(w.Box)
		}
		consumed[w.OriginIndex] = true
	}
	return box, hit
}

// groupLines reconstructs document lines from word boxes: a new line starts
// when a word's vertical center moves more than half its height away from
// the previous word's center, or when its x position jumps backwards.
func groupLines(words []models.OCRWord) []*textLine {
	var lines []*textLine
	var cur *textLine
	var prev models.OCRWord

	for _, w := range words {
		newLine := cur == nil
		if !newLine {
			prevCY := prev.Box.Y + prev.Box.H/2
			curCY := w.Box.Y + w.Box.H/2
			tolerance := max(prev.Box.H, w.Box.H) / 2
			if abs(curCY-prevCY) > tolerance || w.Box.X < prev.Box.X {
				newLine = true
			}
		}
		if newLine {
			cur = &textLine{}
			lines = append(lines, cur)
		} else {
			cur.text += " "
		}
		cur.offsets = append(cur.offsets, len(cur.text))
		cur.text += w.Text
		cur.words = append(cur.words, w)
		prev = w
	}
	return lines
}

// lineContext widens a match location to the surrounding whitespace-delimited
// token for the path exclusion check.
func lineContext(text string, loc []int) string {
	start := strings.LastIndexByte(text[:loc[0]], ' ') + 1
	end := strings.IndexByte(text[loc[1]:], ' ')
	if end < 0 {
		end = len(text)
	} else {
		end += loc[1]
	}
	return text[start:end]
}
