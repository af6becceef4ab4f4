package scrubber

import (
	"fmt"
	"regexp"
	"strings"

	"textscrub/internal/model"
)

var (
	headingPattern     = regexp.MustCompile(`<h([1-6])[^>]*>([^<{]+)</h[1-6]>`)
	buttonPattern      = regexp.MustCompile(`<button[^>]*>([^<{]+)</button>`)
	jsxTextPattern     = regexp.MustCompile(`>([^<>{}\n]+)<`)
	placeholderPattern = regexp.MustCompile(`placeholder=["']([^"']+)["']`)
	labelAttrPattern   = regexp.MustCompile(`(title|alt|aria-label)=["']([^"']+)["']`)

	constantPattern  = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)
	callPattern      = regexp.MustCompile(`^[a-z]+\(`)
	digitsPattern    = regexp.MustCompile(`^[0-9]+$`)
	letterPattern    = regexp.MustCompile(`[a-zA-Z]`)
	translatePattern = regexp.MustCompile(`(^|[^A-Za-z0-9_$])t\(`)
)

// candidate is a literal found on one line before it gets an ID and key.
type candidate struct {
	kind        string
	typ         model.ReplacementType
	text        string
	original    string
	replacement func(key string) string
}

// skipLine reports lines that never yield candidates: comments, imports and
// lines already calling t().
func skipLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "/*") ||
		strings.HasPrefix(trimmed, "*") ||
		strings.HasPrefix(trimmed, "import") {
		return true
	}
	return translatePattern.MatchString(line)
}

// isValidText filters out strings that look like code rather than copy.
func isValidText(text string) bool {
	if len(text) < 2 {
		return false
	}
	switch {
	case constantPattern.MatchString(text),
		callPattern.MatchString(text),
		digitsPattern.MatchString(text),
		strings.HasPrefix(text, "http"),
		strings.HasPrefix(text, "//"),
		strings.Contains(text, "className"),
		strings.Contains(text, "style="),
		strings.Contains(text, "${"),
		strings.Contains(text, "{"):
		return false
	}
	return letterPattern.MatchString(text)
}

func translateCall(key string) string {
	return fmt.Sprintf("{t('%s')}", key)
}

type span struct{ start, end int }

func (s span) contains(start, end int) bool {
	return start >= s.start && end <= s.end
}

// extractLine returns candidates in the order the original scanner reported
// them: headings, buttons, bare JSX text, placeholders, label attributes.
// Bare text inside a heading or button already reported is not repeated.
func extractLine(line string) []candidate {
	if skipLine(line) {
		return nil
	}

	var (
		out     []candidate
		claimed []span
	)

	for _, m := range headingPattern.FindAllStringSubmatchIndex(line, -1) {
		full := line[m[0]:m[1]]
		text := strings.TrimSpace(line[m[4]:m[5]])
		if !isValidText(text) {
			continue
		}
		claimed = append(claimed, span{m[0], m[1]})
		out = append(out, tagCandidate("heading", full, text))
	}

	for _, m := range buttonPattern.FindAllStringSubmatchIndex(line, -1) {
		full := line[m[0]:m[1]]
		text := strings.TrimSpace(line[m[2]:m[3]])
		if !isValidText(text) {
			continue
		}
		claimed = append(claimed, span{m[0], m[1]})
		out = append(out, tagCandidate("button", full, text))
	}

	for _, m := range jsxTextPattern.FindAllStringSubmatchIndex(line, -1) {
		if isClaimed(claimed, m[2], m[3]) {
			continue
		}
		text := strings.TrimSpace(line[m[2]:m[3]])
		if !isValidText(text) {
			continue
		}
		out = append(out, candidate{
			kind:        "text",
			typ:         model.ReplacementJSX,
			text:        text,
			original:    text,
			replacement: translateCall,
		})
	}

	for _, m := range placeholderPattern.FindAllStringSubmatchIndex(line, -1) {
		text := strings.TrimSpace(line[m[2]:m[3]])
		if !isValidText(text) {
			continue
		}
		out = append(out, attrCandidate("placeholder", "placeholder", line[m[0]:m[1]], text))
	}

	for _, m := range labelAttrPattern.FindAllStringSubmatchIndex(line, -1) {
		text := strings.TrimSpace(line[m[4]:m[5]])
		if !isValidText(text) {
			continue
		}
		attr := line[m[2]:m[3]]
		out = append(out, attrCandidate("label", attr, line[m[0]:m[1]], text))
	}

	return out
}

// tagSpans returns the heading and button elements on line that the scanner
// reports as whole-tag candidates.
func tagSpans(line string) []span {
	var out []span
	for _, m := range headingPattern.FindAllStringSubmatchIndex(line, -1) {
		if isValidText(strings.TrimSpace(line[m[4]:m[5]])) {
			out = append(out, span{m[0], m[1]})
		}
	}
	for _, m := range buttonPattern.FindAllStringSubmatchIndex(line, -1) {
		if isValidText(strings.TrimSpace(line[m[2]:m[3]])) {
			out = append(out, span{m[0], m[1]})
		}
	}
	return out
}

func isClaimed(claimed []span, start, end int) bool {
	for _, c := range claimed {
		if c.contains(start, end) {
			return true
		}
	}
	return false
}

// tagCandidate rewrites the whole element, keeping its opening tag and
// attributes intact.
func tagCandidate(kind, full, text string) candidate {
	open := full[:strings.Index(full, ">")+1]
	closing := full[strings.LastIndex(full, "</"):]
	return candidate{
		kind:     kind,
		typ:      model.ReplacementJSX,
		text:     text,
		original: full,
		replacement: func(key string) string {
			return open + translateCall(key) + closing
		},
	}
}

func attrCandidate(kind, attr, full, text string) candidate {
	return candidate{
		kind:     kind,
		typ:      model.ReplacementAttribute,
		text:     text,
		original: full,
		replacement: func(key string) string {
			return attr + "=" + translateCall(key)
		},
	}
}
