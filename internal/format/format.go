// Package format renders tool outputs for their two audiences: the
// human watching the terminal and the model reading the conversation.
// The model view is complete by construction; the only thing that may
// shrink it is the explicit size limit, which always announces itself.
package format

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/flemzord/wrench/internal/tool"
)

// ForModel renders the model-facing view of an output: every field
// except display-only ones, one labeled section per field, in order.
// It never truncates; size policy is applied separately by
// EnforceSizeLimit.
func ForModel(out tool.Output) string {
	var b strings.Builder
	for _, f := range out.Fields {
		if f.DisplayOnly {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(labelCase(f.Key))
		b.WriteString(": ")
		b.WriteString(f.Value)
	}
	return b.String()
}

// ForDisplay renders the human view: the friendly summary, plus the
// full model view when detail mode is on.
func ForDisplay(out tool.Output, detail bool) string {
	if !detail {
		return out.Friendly
	}
	model := ForModel(out)
	if model == "" {
		return out.Friendly
	}
	return out.Friendly + "\n" + model
}

// truncationNotice is the warning appended to truncated results.
// It names the byte counts so neither audience can mistake a truncated
// result for a complete one.
const truncationNotice = "\n[output of %s truncated: %d of %d bytes shown, limit %d]"

// EnforceSizeLimit caps text at maxBytes, cutting at a rune boundary
// and appending a warning line that names the byte counts. Texts under
// 99%% of the limit pass through untouched. The returned bool reports
// whether truncation happened. A limit <= 0 means unlimited.
func EnforceSizeLimit(text, toolName string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(text) <= maxBytes*99/100 {
		return text, false
	}

	// Reserve space for the worst-case notice so the final result
	// still fits under the limit.
	reserve := len(fmt.Sprintf(truncationNotice, toolName, maxBytes, len(text), maxBytes))
	budget := maxBytes - reserve
	if budget < 0 {
		budget = 0
	}

	cut := budget
	if cut >= len(text) {
		cut = len(text)
	} else {
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
	}

	truncated := text[:cut]
	return truncated + fmt.Sprintf(truncationNotice, toolName, len(truncated), len(text), maxBytes), true
}

// labelCase turns a snake_case field key into a label: "exit_code"
// becomes "Exit code".
func labelCase(key string) string {
	label := strings.ReplaceAll(key, "_", " ")
	if label == "" {
		return label
	}
	r, size := utf8.DecodeRuneInString(label)
	return string(unicode.ToUpper(r)) + label[size:]
}
