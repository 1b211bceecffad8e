package repository

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/brandforge/brandforge-backend/internal/platform/config"
)

// ChunkCandidate is one atomic unit of copy produced by the chunker, before
// classification and embedding.
type ChunkCandidate struct {
	Text       string
	Normalized string
	Section    string
	Index      int
}

// defaultBoilerplatePatterns drop navigation, legal and cookie fragments that
// crawls drag in. Matched case-insensitively against the whole paragraph.
var defaultBoilerplatePatterns = []string{
	`(?i)^(copyright|©|\(c\))\b`,
	`(?i)\ball rights reserved\b`,
	`(?i)^(home|about( us)?|contact( us)?|menu|login|sign (in|up)|careers|blog|faq)$`,
	`(?i)^(privacy policy|terms (of (service|use))?|cookie (policy|settings))\b`,
	`(?i)^(accept|manage) (all )?cookies\b`,
	`(?i)^skip to (main )?content\b`,
}

var headingRe = regexp.MustCompile(`^\s*#{1,6}\s+(.+?)\s*$`)

// Chunker splits raw brand copy into normalized, size-bounded semantic units.
// It never fails on malformed input; an empty or all-boilerplate document
// yields zero candidates.
type Chunker struct {
	minLen      int
	maxLen      int
	boilerplate []*regexp.Regexp
}

func NewChunker(cfg config.ChunkerConfig) (*Chunker, error) {
	patterns := cfg.BoilerplatePatterns
	if len(patterns) == 0 {
		patterns = defaultBoilerplatePatterns
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("chunker: bad boilerplate pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &Chunker{
		minLen:      cfg.MinChunkLen,
		maxLen:      cfg.MaxChunkLen,
		boilerplate: compiled,
	}, nil
}

// Split returns the ordered chunk candidates for raw. Order follows the
// source text.
func (c *Chunker) Split(raw string) []ChunkCandidate {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	out := make([]ChunkCandidate, 0)

	for _, sec := range splitSections(raw) {
		for _, para := range splitParagraphs(sec.body) {
			if c.isBoilerplate(para) {
				continue
			}
			if utf8.RuneCountInString(para) < c.minLen {
				continue
			}
			for _, piece := range c.boundToMax(para) {
				out = append(out, ChunkCandidate{
					Text:       piece,
					Normalized: Normalize(piece),
					Section:    sec.title,
					Index:      len(out),
				})
			}
		}
	}
	return out
}

// Normalize lowercases and collapses whitespace. Punctuation is kept: later
// similarity works on semantic embeddings, not literal matching.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

type section struct {
	title string
	body  string
}

func splitSections(raw string) []section {
	lines := strings.Split(raw, "\n")
	sections := make([]section, 0, 1)
	cur := section{}
	var buf []string

	flush := func() {
		body := strings.TrimSpace(strings.Join(buf, "\n"))
		if body != "" {
			sections = append(sections, section{title: cur.title, body: body})
		}
		buf = buf[:0]
	}

	for _, line := range lines {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			flush()
			cur = section{title: m[1]}
			continue
		}
		buf = append(buf, line)
	}
	flush()
	return sections
}

var paragraphRe = regexp.MustCompile(`\n\s*\n`)

func splitParagraphs(body string) []string {
	parts := paragraphRe.Split(body, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Chunker) isBoilerplate(para string) bool {
	for _, re := range c.boilerplate {
		if re.MatchString(para) {
			return true
		}
	}
	return false
}

// boundToMax re-splits an over-long paragraph along sentence boundaries,
// greedily packing sentences up to maxLen. A single sentence longer than
// maxLen is emitted whole; an under-min remainder is dropped.
func (c *Chunker) boundToMax(para string) []string {
	if utf8.RuneCountInString(para) <= c.maxLen {
		return []string{para}
	}

	sentences := splitSentences(para)
	out := make([]string, 0, len(sentences))
	var cur []string
	curLen := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		piece := strings.Join(cur, " ")
		if utf8.RuneCountInString(piece) >= c.minLen {
			out = append(out, piece)
		}
		cur = cur[:0]
		curLen = 0
	}

	for _, s := range sentences {
		sLen := utf8.RuneCountInString(s)
		if sLen > c.maxLen {
			flush()
			out = append(out, s)
			continue
		}
		// +1 for the joining space
		if curLen > 0 && curLen+1+sLen > c.maxLen {
			flush()
		}
		cur = append(cur, s)
		if curLen > 0 {
			curLen++
		}
		curLen += sLen
	}
	flush()
	return out
}

func splitSentences(p string) []string {
	rs := []rune(p)
	out := make([]string, 0, 4)
	start := 0
	for i := 0; i < len(rs); i++ {
		switch rs[i] {
		case '.', '!', '?':
			for i+1 < len(rs) && (rs[i+1] == '.' || rs[i+1] == '!' || rs[i+1] == '?' || rs[i+1] == '"' || rs[i+1] == '\'' || rs[i+1] == ')') {
				i++
			}
			if i+1 >= len(rs) || unicode.IsSpace(rs[i+1]) {
				if s := strings.TrimSpace(string(rs[start : i+1])); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(string(rs[start:])); tail != "" {
		out = append(out, tail)
	}
	return out
}
