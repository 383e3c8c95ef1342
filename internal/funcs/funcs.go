package funcs

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

var TemplateFuncs = template.FuncMap{
	"formatTime": formatTime,
	"upper":      strings.ToUpper,
	"lower":      strings.ToLower,
	"titleCase":  titleCase,
	"yesno":      yesno,
}

func formatTime(format string, t time.Time) string {
	return t.Format(format)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func yesno(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func FormatDuration(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}
