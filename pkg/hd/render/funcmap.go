package render

import (
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"
)

// FuncMap returns the template functions shared by pages and emails.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"join":  strings.Join,

		"add": func(a, b int) int { return a + b },

		"truncate":   Truncate,
		"humanSize":  HumanSize,
		"formatTime": FormatTime,

		"safeURL": func(s string) template.URL {
			if strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") {
				return template.URL(s)
			}
			return template.URL("#")
		},
	}
}

// Truncate shortens s to at most length characters, appending an ellipsis when cut.
func Truncate(s string, length int) string {
	if utf8.RuneCountInString(s) <= length {
		return s
	}
	runes := []rune(s)
	return string(runes[:length]) + "..."
}

// HumanSize formats a byte count.
func HumanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// FormatTime renders t in UTC for display.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2 Jan 2006, 15:04 MST")
}
