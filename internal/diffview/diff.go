// Package diffview computes unified diffs between file contents and
// renders them for terminal display. Previews for mutating tools are
// built on top of it: the diff is what the user approves.
package diffview

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// contextLines is the number of unchanged lines shown around each hunk.
const contextLines = 3

// Exit codes follow diff(1) conventions.
const (
	ExitIdentical = 0
	ExitDifferent = 1
	ExitError     = 2
)

// Result is the outcome of comparing two contents.
// ExitCode follows diff(1) conventions: 0 identical, 1 different,
// 2 the comparison itself failed (Text then carries the error).
type Result struct {
	HasChanges bool
	Text       string
	ExitCode   int
}

// Compare produces a unified diff of oldContent against newContent.
// path is used for the a/ and b/ file headers.
func Compare(oldContent, newContent, path string) Result {
	if oldContent == newContent {
		return Result{}
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  contextLines,
	})
	if err != nil {
		return Result{
			HasChanges: true,
			Text:       "diff failed: " + err.Error(),
			ExitCode:   ExitError,
		}
	}

	return Result{HasChanges: true, Text: text, ExitCode: ExitDifferent}
}

// Stats counts added and removed lines in a unified diff body.
// File header lines are excluded.
func Stats(diffText string) (added, removed int) {
	for _, line := range strings.Split(diffText, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ "), strings.HasPrefix(line, "--- "):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}
