package assistant

import "strings"

// extractJSON locates the first syntactically balanced {...} or [...] span in
// free-form completion text and returns it. Code fences and surrounding prose
// are tolerated. Returns "" when no balanced span exists.
func extractJSON(text string) string {
	text = stripCodeFences(text)

	start := -1
	for i, r := range text {
		if r == '{' || r == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func stripCodeFences(text string) string {
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		// Drop an optional language tag on the fence line.
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			return rest[:end]
		}
		return rest
	}
	return text
}
