package catalog

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
)

// NormalizeCodes converts the raw codes field into canonical matchable
// tokens: every element lower-cased and trimmed, empties dropped. The field
// may be a JSON array, a single JSON scalar, or a quoted literal list such
// as ['4034', 'energia']. Text that parses as neither normalizes to an
// empty set with a warning; the row stays in the catalog but never matches.
func NormalizeCodes(raw string, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return []string{}
	}

	var elements []string
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		elements = stringify(parsed)
	} else if lit, ok := parseLiteralList(text); ok {
		elements = lit
	} else {
		logger.Warn("could not interpret codes field", "raw", raw)
		return []string{}
	}

	out := make([]string, 0, len(elements))
	for _, el := range elements {
		el = strings.ToLower(strings.TrimSpace(el))
		if el != "" {
			out = append(out, el)
		}
	}
	return out
}

// stringify renders a decoded JSON value as code tokens. A scalar becomes a
// single token; arrays map element-wise. Numbers use the shortest decimal
// form, so 10799.10 and 10799.1 yield the same token.
func stringify(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, el := range t {
			out = append(out, stringify(el)...)
		}
		return out
	case string:
		return []string{t}
	case float64:
		return []string{strconv.FormatFloat(t, 'f', -1, 64)}
	case bool:
		return []string{strconv.FormatBool(t)}
	case nil:
		return []string{"none"}
	default:
		return []string{}
	}
}

// parseLiteralList reads a Python-flavored list or tuple literal: elements
// are single- or double-quoted strings or bare numbers. A lone quoted string
// or number is accepted as a one-element list. Returns ok=false for
// anything else; the caller treats that as malformed.
func parseLiteralList(s string) ([]string, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '[' && s[len(s)-1] == ']' || s[0] == '(' && s[len(s)-1] == ')') {
		return parseElements(s[1 : len(s)-1])
	}
	// bare scalar
	el, rest, ok := parseElement(s)
	if !ok || strings.TrimSpace(rest) != "" {
		return nil, false
	}
	return []string{el}, true
}

func parseElements(inner string) ([]string, bool) {
	out := []string{}
	rest := strings.TrimSpace(inner)
	for rest != "" {
		el, tail, ok := parseElement(rest)
		if !ok {
			return nil, false
		}
		out = append(out, el)
		rest = strings.TrimSpace(tail)
		if rest == "" {
			break
		}
		if rest[0] != ',' {
			return nil, false
		}
		rest = strings.TrimSpace(rest[1:]) // trailing comma allowed
	}
	return out, true
}

// parseElement consumes one list element from the front of s and returns it
// together with the unconsumed tail.
func parseElement(s string) (el, tail string, ok bool) {
	if s == "" {
		return "", "", false
	}
	if s[0] == '\'' || s[0] == '"' {
		quote := s[0]
		var b strings.Builder
		for i := 1; i < len(s); i++ {
			c := s[i]
			if c == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
				continue
			}
			if c == quote {
				return b.String(), s[i+1:], true
			}
			b.WriteByte(c)
		}
		return "", "", false // unterminated quote
	}

	end := strings.IndexByte(s, ',')
	if end < 0 {
		end = len(s)
	}
	token := strings.TrimSpace(s[:end])
	switch token {
	case "True":
		return "true", s[end:], true
	case "False":
		return "false", s[end:], true
	case "None":
		return "none", s[end:], true
	}
	f, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return "", "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), s[end:], true
}
