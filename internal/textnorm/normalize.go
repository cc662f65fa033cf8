package textnorm

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ShortHashLen is the length of every digest returned by this package.
const ShortHashLen = 16

// Normalize canonicalizes text for hashing and comparison. Line endings are
// unified, trailing whitespace is stripped, interior whitespace runs collapse
// to single spaces, blank lines are dropped, and leading-tab indentation is
// kept as a literal tab prefix. Input is NFC-folded first so equivalent
// encodings of the same text cannot produce different digests.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	cleaned := norm.NFC.String(text)
	cleaned = strings.ReplaceAll(cleaned, "\r\n", "\n")
	cleaned = strings.ReplaceAll(cleaned, "\r", "\n")
	var lines []string
	for _, rawLine := range strings.Split(cleaned, "\n") {
		line := strings.TrimRight(rawLine, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		tabs := len(line) - len(strings.TrimLeft(line, "\t"))
		content := strings.Join(strings.Fields(line), " ")
		lines = append(lines, strings.Repeat("\t", tabs)+content)
	}
	return strings.Join(lines, "\n")
}

// Hash normalizes each part, joins them with newlines, and returns a short
// hex digest of the result.
func Hash(parts ...string) string {
	normalized := make([]string, len(parts))
	for i, part := range parts {
		normalized[i] = Normalize(part)
	}
	return HashBytes([]byte(strings.Join(normalized, "\n")))
}

// HashBytes returns the short hex digest of payload without normalization.
func HashBytes(payload []byte) string {
	digest := sha256.Sum256(payload)
	return hex.EncodeToString(digest[:])[:ShortHashLen]
}

// DigestBytes returns the full hex SHA-256 digest of payload. Used where
// collision margin matters more than brevity, such as image content hashes.
func DigestBytes(payload []byte) string {
	digest := sha256.Sum256(payload)
	return hex.EncodeToString(digest[:])
}

// IndentedLine is one line of tab-indented text with its nesting level.
type IndentedLine struct {
	Level int
	Text  string
}

// ParseTabIndented splits text into (level, text) lines where the level is
// the count of leading tabs. Blank lines are kept as zero-level empty
// entries only when keepBlank is set.
func ParseTabIndented(text string, keepBlank bool) []IndentedLine {
	if text == "" {
		return nil
	}
	cleaned := strings.ReplaceAll(text, "\r\n", "\n")
	cleaned = strings.ReplaceAll(cleaned, "\r", "\n")
	var lines []IndentedLine
	for _, rawLine := range strings.Split(cleaned, "\n") {
		if strings.TrimSpace(rawLine) == "" {
			if keepBlank && rawLine == "" {
				lines = append(lines, IndentedLine{})
			}
			continue
		}
		level := len(rawLine) - len(strings.TrimLeft(rawLine, "\t"))
		lines = append(lines, IndentedLine{
			Level: level,
			Text:  strings.TrimSpace(strings.TrimLeft(rawLine, "\t")),
		})
	}
	return lines
}

var simpleNamePattern = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeSimpleName lowercases a free-form name and reduces it to
// underscore-separated alphanumeric runs, for use as a stable identifier.
func NormalizeSimpleName(value string) string {
	if value == "" {
		return ""
	}
	cleaned := strings.ToLower(strings.TrimSpace(value))
	cleaned = simpleNamePattern.ReplaceAllString(cleaned, "_")
	return strings.Trim(cleaned, "_")
}
