package diffview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles for rendered diff lines. ANSI 16-color palette so they degrade
// sanely on basic terminals.
var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// Colorize renders a unified diff for terminal display: the ---/+++ file
// header lines are dropped, additions are green, removals red, hunk
// markers cyan, and context lines pass through unchanged.
func Colorize(diffText string) string {
	lines := strings.Split(strings.TrimRight(diffText, "\n"), "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "--- "), strings.HasPrefix(line, "+++ "):
			continue
		case strings.HasPrefix(line, "@@"):
			out = append(out, hunkStyle.Render(line))
		case strings.HasPrefix(line, "+"):
			out = append(out, addedStyle.Render(line))
		case strings.HasPrefix(line, "-"):
			out = append(out, removedStyle.Render(line))
		default:
			out = append(out, line)
		}
	}

	return strings.Join(out, "\n")
}
