package crawl

import "strings"

// Anchor tokens the Catalog Parser searches for before extracting the
// embedded data object (spec.md §4.6 step 3).
const (
	anchorProductDetail = "productDetailData="
	anchorSearchResults = "searchResultsData="
)

// extractAnchoredJSON locates anchor in html, then extracts the
// balanced-brace object beginning at the first "{" following it. Returns
// ErrParseShape if the anchor or an opening brace is not found, and
// ErrParseSyntax if no matching closing brace balances it.
func extractAnchoredJSON(html, anchor string) (string, error) {
	idx := strings.Index(html, anchor)
	if idx < 0 {
		return "", ErrParseShape
	}
	rest := html[idx+len(anchor):]

	braceIdx := strings.IndexByte(rest, '{')
	if braceIdx < 0 {
		return "", ErrParseShape
	}

	raw, err := extractBalancedObject(rest[braceIdx:])
	if err != nil {
		return "", err
	}
	return substituteUndefinedWithNull(raw), nil
}

// extractBalancedObject scans s, which must start with '{', and returns the
// substring spanning the balanced brace object. Brace depth tracking
// ignores braces that occur inside string literals or escape sequences
// (spec.md §4.6 step 4).
func extractBalancedObject(s string) (string, error) {
	depth := 0
	inString := false
	escaped := false

	for i, r := range s {
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString:
			switch r {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
		default:
			switch r {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return s[:i+1], nil
				}
			}
		}
	}
	return "", ErrParseSyntax
}

// substituteUndefinedWithNull replaces bare `undefined` tokens appearing as
// values (i.e. outside string literals) with `null`, matching the common
// non-standard-JSON embedding the fetcher's upstream produces (spec.md
// §4.6 step 5). Occurrences inside string literals are left untouched.
func substituteUndefinedWithNull(s string) string {
	const token = "undefined"
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	i := 0
	for i < len(s) {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			i++
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			i++
			continue
		}
		if c == 'u' && strings.HasPrefix(s[i:], token) && !isIdentByte(prevByte(s, i)) && !isIdentByte(byteAt(s, i+len(token))) {
			b.WriteString("null")
			i += len(token)
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func prevByte(s string, i int) byte {
	if i == 0 {
		return 0
	}
	return s[i-1]
}

func byteAt(s string, i int) byte {
	if i >= len(s) {
		return 0
	}
	return s[i]
}
