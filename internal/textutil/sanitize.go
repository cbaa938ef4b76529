package textutil

import (
	"strings"
	"unicode/utf8"
)

// lineBreakReplacer maps each line-break character to a single space.
var lineBreakReplacer = strings.NewReplacer(
	"\n", " ",
	"\r", " ",
)

// SingleLine replaces every embedded '\n' and '\r' with a space so the
// value fits in one row of a delimited table.
func SingleLine(value string) string {
	return lineBreakReplacer.Replace(value)
}

// Truncate shortens value to at most limit runes, marking the cut with "...".
func Truncate(value string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(value) <= limit {
		return value
	}
	if limit <= 3 {
		return string([]rune(value)[:limit])
	}
	return string([]rune(value)[:limit-3]) + "..."
}
