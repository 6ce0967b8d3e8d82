// Package frontmatter reads and writes the delimited metadata block at the
// head of a content file.
//
// The block is a line-oriented "key: value" format rather than full YAML:
// values may be bare words, quoted strings, JSON literals, bracketed list
// literals or an indented bulleted list. Lines that do not parse are skipped so
// that malformed metadata never prevents the body from being served.
package frontmatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiter opens and closes the metadata block.
const Delimiter = "---"

const keyPattern = `[A-Za-z0-9_][A-Za-z0-9_-]*`

var (
	keyRE      = regexp.MustCompile(`^` + keyPattern + `$`)
	keyValueRE = regexp.MustCompile(`^(` + keyPattern + `):(?:\s+(.*)|\s*)$`)
	bulletRE   = regexp.MustCompile(`^\s+-\s*(.*)$`)
)

// ValidKey reports whether key can be written to and read back from a
// metadata block: letters, digits, underscores and hyphens, not starting
// with a hyphen.
func ValidKey(key string) bool {
	return keyRE.MatchString(key)
}

// Decode splits raw into its metadata block and body. When raw does not start
// with a delimiter line, or the block is never closed, the metadata is empty
// and the body is the full text.
func Decode(raw string) (*Metadata, string) {
	meta := New()

	block, body, ok := split(raw)
	if !ok {
		return meta, raw
	}

	lines := strings.Split(block, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		m := keyValueRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key, value := m[1], strings.TrimSpace(m[2])

		if value == "" {
			items, consumed := readBullets(lines[i+1:])
			if consumed > 0 {
				meta.Set(key, items)
				i += consumed
				continue
			}
		}

		meta.Set(key, parseValue(value))
	}

	return meta, body
}

// split locates the metadata block. The opening delimiter must be the first
// line of raw.
func split(raw string) (block, body string, ok bool) {
	first, rest, found := strings.Cut(raw, "\n")
	if !found || strings.TrimRight(first, " \t\r") != Delimiter {
		return "", "", false
	}

	offset := 0
	for offset <= len(rest) {
		line, tail, more := strings.Cut(rest[offset:], "\n")
		if strings.TrimRight(line, " \t\r") == Delimiter {
			block = strings.TrimSuffix(rest[:offset], "\n")
			if !more {
				return block, "", true
			}
			return block, tail, true
		}
		if !more {
			break
		}
		offset += len(line) + 1
	}

	return "", "", false
}

// readBullets consumes consecutive indented "- item" lines.
func readBullets(lines []string) (any, int) {
	var items []any
	consumed := 0
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		m := bulletRE.FindStringSubmatch(line)
		if m == nil {
			break
		}
		items = append(items, parseScalar(strings.TrimSpace(m[1])))
		consumed++
	}
	if consumed == 0 {
		return nil, 0
	}
	return normalizeList(items), consumed
}

func parseValue(value string) any {
	if len(value) >= 2 && value[0] == '[' && value[len(value)-1] == ']' {
		var items []any
		if err := yaml.Unmarshal([]byte(value), &items); err == nil {
			return normalizeList(items)
		}
		return value
	}
	if len(value) >= 2 && value[0] == '{' && value[len(value)-1] == '}' {
		var obj map[string]any
		if err := json.Unmarshal([]byte(value), &obj); err == nil {
			return obj
		}
		return value
	}
	return parseScalar(value)
}

func parseScalar(value string) any {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		switch {
		case first == '"' && last == '"':
			var s string
			if err := json.Unmarshal([]byte(value), &s); err == nil {
				return s
			}
			return value[1 : len(value)-1]
		case first == '\'' && last == '\'':
			return strings.ReplaceAll(value[1:len(value)-1], "''", "'")
		}
	}

	switch value {
	case "true":
		return true
	case "false":
		return false
	case "null", "~":
		return nil
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return int(n)
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil && strings.ContainsAny(value, ".eE") {
		return f
	}
	return value
}

// normalizeList returns []string when every item is a string.
func normalizeList(items []any) any {
	strs := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return items
		}
		strs = append(strs, s)
	}
	return strs
}

// Encode renders meta and body as a content file. Scalars are written as JSON
// literals and lists as an indented bulleted block. Keys rejected by ValidKey
// are left out. Without metadata the body is returned unchanged, unless it
// opens with a block of its own, which then gets an empty block in front.
func Encode(meta *Metadata, body string) string {
	var fields strings.Builder
	for _, key := range meta.Keys() {
		if !ValidKey(key) {
			continue
		}
		value, _ := meta.Get(key)
		writeField(&fields, key, value)
	}

	if fields.Len() == 0 {
		if _, _, ok := split(body); !ok {
			return body
		}
	}

	var b strings.Builder
	b.WriteString(Delimiter)
	b.WriteByte('\n')
	b.WriteString(fields.String())
	b.WriteString(Delimiter)
	b.WriteByte('\n')
	b.WriteString(body)
	return b.String()
}

func writeField(b *strings.Builder, key string, value any) {
	var items []any
	switch v := value.(type) {
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case []any:
		items = v
	default:
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(jsonLiteral(value))
		b.WriteByte('\n')
		return
	}

	if len(items) == 0 {
		b.WriteString(key)
		b.WriteString(": []\n")
		return
	}
	b.WriteString(key)
	b.WriteString(":\n")
	for _, item := range items {
		b.WriteString("  - ")
		b.WriteString(jsonLiteral(item))
		b.WriteByte('\n')
	}
}

func jsonLiteral(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return strconv.Quote(fmt.Sprint(v))
	}
	return strings.TrimRight(buf.String(), "\n")
}
