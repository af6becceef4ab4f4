package scrubber

import (
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxKeyTextLen = 20

var nonKeyChars = regexp.MustCompile(`[^a-z0-9]+`)

// keyGenerator hands out translation keys of the form
// <component>.<kind>.<text>. Repeated base keys within one scan receive a
// numeric suffix: base, base1, base2, ...
type keyGenerator struct {
	counts map[string]int
}

func newKeyGenerator() *keyGenerator {
	return &keyGenerator{counts: make(map[string]int)}
}

func (g *keyGenerator) next(component, kind, text string) string {
	base := BaseKey(component, kind, text)
	n := g.counts[base]
	g.counts[base] = n + 1
	if n > 0 {
		return base + strconv.Itoa(n)
	}
	return base
}

// BaseKey derives the unsuffixed key for text found in component.
func BaseKey(component, kind, text string) string {
	return normalizeComponent(component) + "." + kind + "." + normalizeKeyText(text)
}

// ComponentName is the file base name without its extension.
func ComponentName(filePath string) string {
	base := path.Base(strings.ReplaceAll(filePath, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

func normalizeComponent(component string) string {
	c := strings.TrimSuffix(component, "Page")
	c = strings.TrimSuffix(c, "Component")
	return strings.ToLower(c)
}

func normalizeKeyText(text string) string {
	t := strings.ToLower(foldDiacritics(text))
	t = nonKeyChars.ReplaceAllString(t, "")
	if len(t) > maxKeyTextLen {
		t = t[:maxKeyTextLen]
	}
	return t
}

// foldDiacritics strips combining marks so "Café" keys like "Cafe".
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
