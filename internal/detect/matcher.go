package detect

import (
	"fmt"
	"regexp"
	"strings"

	"redaction-worker-go/internal/config"
	"redaction-worker-go/internal/models"
)

// Matcher pairs a label word ("api_key", "password", ...) with a nearby
// key-shaped value word, catching secrets the entity classifier does not
// recognize as PII. A label with no acceptable value within the scan window
// emits nothing, so plain prose containing the word "password" is left alone.
type Matcher struct {
	cfg     *config.Config
	labelRe *regexp.Regexp
	valueRe *regexp.Regexp
	keyRe   *regexp.Regexp
}

func NewMatcher(cfg *config.Config) *Matcher {
	keyRe := neverMatch
	if cfg.KeyCandidateLen > 0 {
		keyRe = regexp.MustCompile(fmt.Sprintf(`^[A-Za-z0-9_\-]{%d,}$`, cfg.KeyCandidateLen))
	}
	return &Matcher{
		cfg:     cfg,
		labelRe: compileLabelPattern(cfg.LabelVocabulary),
		valueRe: regexp.MustCompile(fmt.Sprintf(`^[A-Za-z0-9_\-]{%d,}$`, cfg.ValueMinLen)),
		keyRe:   keyRe,
	}
}

// Match scans words in document order and returns one LabelValuePair
// candidate per accepted pairing, marking both words consumed so they are
// not re-matched by later passes. The first acceptable value in scan order
// wins; there is no scoring.
func (m *Matcher) Match(words []models.OCRWord, consumed map[int]bool) []models.CandidateRegion {
	maxHoriz := m.cfg.MaxHorizontalGapPX()
	maxVert := m.cfg.MaxVerticalGapPX()
	pad := m.cfg.LabelValuePadPX

	var out []models.CandidateRegion
	for i, label := range words {
		if consumed[label.OriginIndex] {
			continue
		}
		if !m.labelRe.MatchString(label.Text) {
			continue
		}

		lb := label.Box
		for j := i + 1; j < len(words) && j <= i+m.cfg.ScanWindow; j++ {
			value := words[j]
			if consumed[value.OriginIndex] {
				continue
			}
			if !m.valueRe.MatchString(value.Text) {
				continue
			}
			if !m.accepts(lb, value.Box, maxHoriz, maxVert) {
				continue
			}

			// Asymmetric padding: more horizontal than vertical, to fully
			// cover truncated glyphs at the ends of the value.
			box := lb.Union(value.Box).Expand(3*pad, 2*pad)
			out = append(out, models.CandidateRegion{
				Box:    box,
				Source: models.SourceLabelValuePair,
			})
			consumed[label.OriginIndex] = true
			consumed[value.OriginIndex] = true
			break
		}
	}

	// Standalone key candidates: a long mixed alphanumeric token is redacted
	// on its own, even with no label anywhere near it.
	for _, w := range words {
		if consumed[w.OriginIndex] {
			continue
		}
		if !m.keyRe.MatchString(w.Text) || !mixedAlphanumeric(w.Text) {
			continue
		}
		out = append(out, models.CandidateRegion{
			Box:    w.Box.Expand(pad, pad),
			Source: models.SourcePatternMatch,
		})
		consumed[w.OriginIndex] = true
	}
	return out
}

// mixedAlphanumeric reports whether the token contains both a letter and a
// digit; all-letter words of key length are ordinary prose.
func mixedAlphanumeric(s string) bool {
	hasLetter, hasDigit := false, false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		}
	}
	return hasLetter && hasDigit
}

// accepts applies the adjacency rule: the value sits on the same line as the
// label (positive horizontal gap within the configured limit, centers within
// one label height) or directly below it (positive vertical gap within the
// configured limit, centers within one label width).
func (m *Matcher) accepts(lb, cb models.Rect, maxHoriz, maxVert int) bool {
	lcx, lcy := lb.X+lb.W/2, lb.Y+lb.H/2
	ccx, ccy := cb.X+cb.W/2, cb.Y+cb.H/2

	horizGap := cb.X - (lb.X + lb.W)
	vertGap := cb.Y - (lb.Y + lb.H)

	sameLine := horizGap > 0 && horizGap < maxHoriz && abs(ccy-lcy) < lb.H
	stacked := vertGap > 0 && vertGap < maxVert && abs(ccx-lcx) < lb.W
	return sameLine || stacked
}

var neverMatch = regexp.MustCompile(`\A\z.`)

// compileLabelPattern builds a single case-insensitive pattern from the
// label vocabulary, tolerant of underscore, hyphen, and space separators.
// The bare term "secret" also matches suffixed forms like "client_secret".
func compileLabelPattern(vocab []string) *regexp.Regexp {
	alts := make([]string, 0, len(vocab))
	for _, v := range vocab {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if v == "secret" {
			alts = append(alts, `[a-z0-9\-_]*secret`)
			continue
		}
		var b strings.Builder
		for _, r := range v {
			if r == ' ' || r == '_' || r == '-' {
				b.WriteString(`[_\-\s]?`)
				continue
			}
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
		alts = append(alts, b.String())
	}
	if len(alts) == 0 {
		// An empty vocabulary disables the label pass.
		return neverMatch
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(alts, "|") + `)\b`)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
