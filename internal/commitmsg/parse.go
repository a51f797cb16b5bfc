package commitmsg

import (
	"regexp"
	"strings"
)

// Conventional commit types recognized as a candidate's convention tag.
const (
	Feat     = "feat"
	Fix      = "fix"
	Docs     = "docs"
	Style    = "style"
	Refactor = "refactor"
	Perf     = "perf"
	Test     = "test"
	Build    = "build"
	CI       = "ci"
	Chore    = "chore"
	Revert   = "revert"
)

var conventions = map[string]bool{
	Feat: true, Fix: true, Docs: true, Style: true, Refactor: true, Perf: true,
	Test: true, Build: true, CI: true, Chore: true, Revert: true,
}

var (
	numberedRe = regexp.MustCompile(`^\(?(\d{1,2})[.):]\s+(.+)$`)
	bulletRe   = regexp.MustCompile(`^[-*•+]\s+(.+)$`)
	prefixRe   = regexp.MustCompile(`^([A-Za-z]+)(\([^)]*\))?!?:\s*\S`)
)

// openers of chatty lines that introduce the list instead of being part of it
var preambles = []string{
	"here are", "here is", "here's", "sure", "certainly", "okay", "ok,",
	"based on", "the following", "these are", "i've", "i have", "i looked",
}

// keyword fallbacks for messages without a conventional prefix, matched
// against the first word
var keywordConventions = map[string]string{
	"add": Feat, "adds": Feat, "added": Feat, "implement": Feat, "implements": Feat,
	"introduce": Feat, "support": Feat, "create": Feat,
	"fix": Fix, "fixes": Fix, "fixed": Fix, "resolve": Fix, "correct": Fix, "handle": Fix,
	"document": Docs, "documentation": Docs, "readme": Docs, "docs": Docs,
	"refactor": Refactor, "restructure": Refactor, "rename": Refactor, "move": Refactor,
	"simplify": Refactor, "extract": Refactor, "cleanup": Refactor,
	"optimize": Perf, "speed": Perf, "improve": Perf,
	"test": Test, "tests": Test,
	"format": Style, "reformat": Style, "lint": Style,
	"bump": Build, "upgrade": Build, "build": Build,
	"revert": Revert,
}

// parseCandidates extracts up to n distinct messages from tool output.
// Numbered and bulleted lines win; without any, every plain line that does
// not look like a preamble counts.
func parseCandidates(out string, n int) []Candidate {
	var listed, plain []string
	for _, raw := range strings.Split(out, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		if m := numberedRe.FindStringSubmatch(line); m != nil {
			listed = append(listed, m[2])
			continue
		}
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			listed = append(listed, m[1])
			continue
		}
		if isPreamble(line) {
			continue
		}
		plain = append(plain, line)
	}

	lines := listed
	if len(lines) == 0 {
		lines = plain
	}

	seen := make(map[string]bool)
	var cands []Candidate
	for _, line := range lines {
		text := clean(line)
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		cands = append(cands, Candidate{Text: text, Convention: inferConvention(text)})
		if len(cands) == n {
			break
		}
	}
	return cands
}

func isPreamble(line string) bool {
	if strings.HasSuffix(line, ":") {
		return true
	}
	lower := strings.ToLower(clean(line))
	for _, p := range preambles {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "**", "")
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'' || first == '`') && first == last {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}

// inferConvention returns the conventional commit type of msg.
func inferConvention(msg string) string {
	if m := prefixRe.FindStringSubmatch(msg); m != nil {
		if t := strings.ToLower(m[1]); conventions[t] {
			return t
		}
	}
	fields := strings.Fields(strings.ToLower(msg))
	if len(fields) > 0 {
		word := strings.Trim(fields[0], ":,.")
		if c, ok := keywordConventions[word]; ok {
			return c
		}
	}
	return Chore
}
