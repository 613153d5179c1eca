package passport

import "strings"

const fence = "```"

// StripCodeFences removes a Markdown code fence wrapped around a model response.
//
// Accepted shape, after trimming surrounding whitespace:
//
//	[ "```" [tag] NEWLINE ] body [ "```" ]
//
// where tag is a short language name such as "json". Only the outermost
// markers are removed; backticks inside body are left alone.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, fence) {
		s = s[len(fence):]
		if i := strings.IndexByte(s, '\n'); i >= 0 && isLanguageTag(strings.TrimSpace(s[:i])) {
			s = s[i+1:]
		} else if i < 0 {
			// single line: ```json{...}```
			tag := leadingTag(s)
			if rest := strings.TrimSpace(s[len(tag):]); strings.HasPrefix(rest, "{") || strings.HasPrefix(rest, "[") {
				s = rest
			}
		}
		s = strings.TrimSpace(s)
	}

	if strings.HasSuffix(s, fence) {
		s = strings.TrimSpace(s[:len(s)-len(fence)])
	}

	return s
}

func isLanguageTag(s string) bool {
	return len(s) <= 20 && leadingTag(s) == s
}

func leadingTag(s string) string {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '+', r == '-', r == '_', r == '.':
		default:
			return s[:i]
		}
	}
	return s
}
