package codexcli

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractJSON returns the JSON payload embedded in text: the whole text
// when it is JSON, the body of a fenced code block, or the first balanced
// object or array found in surrounding prose. Fences tagged json are tried
// before other fences, and the full text is scanned last. Text without
// valid JSON is returned unchanged.
//
// Work is linear in the length of text.
func ExtractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return text
	}
	if isJSONContainer(trimmed) {
		return trimmed
	}

	blocks := fencedBlocks(trimmed)
	for _, tagged := range []bool{true, false} {
		for _, b := range blocks {
			if b.json != tagged {
				continue
			}
			if js, ok := findJSON(b.body); ok {
				return js
			}
		}
	}
	if js, ok := findJSON(trimmed); ok {
		return js
	}
	return text
}

type fence struct {
	body string
	json bool
}

// fencedBlocks returns the bodies of the ``` code blocks in s, in order. An
// unterminated fence runs to the end of s.
func fencedBlocks(s string) []fence {
	var blocks []fence
	for {
		open := strings.Index(s, "```")
		if open < 0 {
			return blocks
		}
		rest := s[open+3:]
		end := strings.Index(rest, "```")

		line := rest
		if end >= 0 {
			line = rest[:end]
		}
		var tag string
		if nl := strings.IndexByte(line, '\n'); nl >= 0 {
			if info := strings.TrimSpace(line[:nl]); info == "" || isWord(info) {
				tag = info
				rest = rest[nl+1:]
				if end >= 0 {
					end -= nl + 1
				}
			}
		}

		if end < 0 {
			return append(blocks, fence{body: rest, json: strings.EqualFold(tag, "json")})
		}
		blocks = append(blocks, fence{body: rest[:end], json: strings.EqualFold(tag, "json")})
		s = rest[end+3:]
	}
}

// findJSON returns s when it is a JSON object or array, otherwise the first
// valid outermost balanced span inside it.
func findJSON(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if isJSONContainer(s) {
		return s, true
	}
	for _, span := range balancedSpans(s) {
		if sub := s[span[0]:span[1]]; gjson.Valid(sub) {
			return sub, true
		}
	}
	return "", false
}

// balancedSpans returns the outermost balanced {...} and [...] spans of s in
// a single pass. Brackets inside JSON strings are skipped. A mismatched
// closer abandons every open bracket.
func balancedSpans(s string) [][2]int {
	var spans [][2]int
	var stack []int
	inString, escaped := false, false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = len(stack) > 0
		case '{', '[':
			stack = append(stack, i)
		case '}', ']':
			if len(stack) == 0 {
				continue
			}
			open := stack[len(stack)-1]
			if closerOf(s[open]) != c {
				stack = stack[:0]
				continue
			}
			stack = stack[:len(stack)-1]
			for len(spans) > 0 && spans[len(spans)-1][0] > open {
				spans = spans[:len(spans)-1]
			}
			spans = append(spans, [2]int{open, i + 1})
		}
	}
	return spans
}

func closerOf(open byte) byte {
	if open == '{' {
		return '}'
	}
	return ']'
}

func isJSONContainer(s string) bool {
	return (s[0] == '{' || s[0] == '[') && gjson.Valid(s)
}

func isWord(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}
