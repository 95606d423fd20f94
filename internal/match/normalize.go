package match

import (
	"strings"
	"unicode"
)

var accessorPrefixes = []string{"get", "set", "is"}

// NormalizeIdent lower-cases s and removes separators ('_', '-', '$' and
// spaces) and a leading bean accessor prefix.
func NormalizeIdent(s string) string {
	tokens := tokenize(s)
	if len(tokens) > 1 {
		for _, p := range accessorPrefixes {
			if strings.EqualFold(tokens[0], p) {
				tokens = tokens[1:]

				break
			}
		}
	}

	return strings.ToLower(strings.Join(tokens, ""))
}

// tokenize splits camelCase, PascalCase and separated identifiers:
//   - "getTotal" -> ["get", "Total"]
//   - "XMLParser" -> ["XML", "Parser"]
//   - "lambda$run$0" -> ["lambda", "run", "0"]
func tokenize(s string) []string {
	var (
		tokens  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			flush()

			continue
		}

		if i > 0 && startsToken(runes, i) {
			flush()
		}

		current.WriteRune(r)
	}

	flush()

	return tokens
}

// startsToken reports whether runes[i] begins a new camel-case token: a
// lower-to-upper step, or the last capital of an acronym followed by a
// lower-case letter.
func startsToken(runes []rune, i int) bool {
	prev, r := runes[i-1], runes[i]

	if unicode.IsUpper(r) && unicode.IsLower(prev) {
		return true
	}

	if unicode.IsDigit(r) != unicode.IsDigit(prev) && !isSeparator(prev) {
		return true
	}

	return unicode.IsUpper(r) && unicode.IsUpper(prev) &&
		i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '$' || unicode.IsSpace(r)
}
