package bot

import (
	"strings"
	"unicode/utf8"

	"github.com/cryptogyan1/tgbot/internal/chat"
)

// maxButtonsPerRow and maxRows are Discord's component limits.
const (
	maxButtonsPerRow = 5
	maxRows          = 5
)

// parseCommand splits "/name@bot args" into "name". ok is false for non-commands.
func parseCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") || len(text) < 2 {
		return "", false
	}

	name := strings.Fields(text[1:])[0]
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name), name != ""
}

// packRows fits rows into the Discord grid by merging single-button rows.
func packRows(rows [][]chat.Button) [][]chat.Button {
	if len(rows) <= maxRows {
		return rows
	}

	var flat []chat.Button
	for _, row := range rows {
		flat = append(flat, row...)
	}

	var packed [][]chat.Button
	for len(flat) > 0 && len(packed) < maxRows {
		n := min(len(flat), maxButtonsPerRow)
		packed = append(packed, flat[:n])
		flat = flat[n:]
	}
	return packed
}

// truncate keeps at most max runes of s.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}

	r := []rune(s)
	return string(r[:max]) + "..."
}
