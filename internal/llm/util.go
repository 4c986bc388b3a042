package llm

import "strings"

// CleanJSONBlock strips markdown code fences and conversational text around
// a JSON object or array. LLMs often wrap JSON even when told not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip a language identifier on the first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.ContainsAny(firstLine, "{[") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	return trimToJSON(text)
}

// trimToJSON drops text before the first opening bracket and after its matching close.
// Text without any bracket is returned unchanged.
func trimToJSON(text string) string {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}

	open := text[start]
	closing := byte('}')
	if open == '[' {
		closing = ']'
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
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	// Unbalanced: keep everything from the opening bracket so decoding reports the error
	return strings.TrimSpace(text[start:])
}
