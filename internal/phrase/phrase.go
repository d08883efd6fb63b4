// Package phrase normalizes free text and matches configured keywords in it as
// whole words or phrases.
package phrase

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var spaceRe = regexp.MustCompile(`\s+`)

// Normalize folds compatibility forms and full-width runes, lower-cases and
// collapses whitespace. Markup is left in place; callers only search the result.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	s, _, _ = transform.String(transform.Chain(norm.NFKC, width.Fold), s)
	s = cases.Lower(language.Und).String(s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// Matcher reports whether any of its phrases occurs in a text. A phrase only
// matches when it is not glued to a surrounding letter or digit, so "ai" does
// not match inside "email".
type Matcher struct {
	re *regexp.Regexp
}

// Compile builds a Matcher from phrases. Blank phrases are ignored; a Matcher
// without phrases matches nothing.
func Compile(phrases []string) *Matcher {
	alts := make([]string, 0, len(phrases))
	for _, p := range phrases {
		words := strings.Fields(Normalize(p))
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		alts = append(alts, strings.Join(words, `\s+`))
	}
	if len(alts) == 0 {
		return &Matcher{}
	}
	return &Matcher{
		re: regexp.MustCompile(`(?:^|[^\pL\pN])(?:` + strings.Join(alts, "|") + `)(?:$|[^\pL\pN])`),
	}
}

func (m *Matcher) Empty() bool {
	return m.re == nil
}

// Match normalizes text and searches it for the phrases.
func (m *Matcher) Match(text string) bool {
	if m.re == nil {
		return false
	}
	return m.re.MatchString(Normalize(text))
}

// MatchNormalized is Match for text that already went through Normalize.
func (m *Matcher) MatchNormalized(text string) bool {
	if m.re == nil {
		return false
	}
	return m.re.MatchString(text)
}
