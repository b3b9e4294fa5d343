// Package sanitize strips markup from free text before it is stored.
//
// The rules are a fixed list of pattern substitutions, not an HTML parser.
// Nested or malformed markup built to exploit the rule order can get through;
// callers that render the result must still escape it.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

// space matches what browsers count as whitespace in patterns: ASCII, the
// Unicode separators and the byte order mark.
const space = `[\s\x0B\p{Z}\x{FEFF}]`

var rules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script[\s\S]*?>[\s\S]*?</script>`),
	regexp.MustCompile(`(?i)<style[\s\S]*?>[\s\S]*?</style>`),
	regexp.MustCompile(`(?i)<iframe[\s\S]*?>[\s\S]*?</iframe>`),
	regexp.MustCompile(`(?i)<object[\s\S]*?>[\s\S]*?</object>`),
	regexp.MustCompile(`(?i)<embed[\s\S]*?>`),
	regexp.MustCompile(`(?i)<link[\s\S]*?>`),
	// event handler attributes: onclick="..." onload='...' onerror=x
	regexp.MustCompile(`(?i)\bon\w+` + space + `*=` + space + `*(?:"[^"]*"|'[^']*'|[^\s\x0B\p{Z}\x{FEFF}>]+)`),
	regexp.MustCompile(`(?i)javascript` + space + `*:`),
	regexp.MustCompile(`(?i)data` + space + `*:` + space + `*text/html`),
	// whatever tags are left, including one cut off at the end of input
	regexp.MustCompile(`</?[^>]+(>|$)`),
}

// Text applies every rule in order and trims the result.
func Text(input string) string {
	text := input
	for _, rule := range rules {
		text = rule.ReplaceAllString(text, "")
	}
	return strings.TrimFunc(text, isSpace)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// Fields sanitizes each pointed-to string in place.
func Fields(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = Text(*f)
		}
	}
}
