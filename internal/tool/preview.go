package tool

// Preview is a dry-run description of what a mutating tool would do.
// It is produced, displayed, and discarded — never persisted.
type Preview struct {
	// Summary is a one-line description of the proposed operation.
	Summary string

	// Content is the preview body: a unified diff for file mutations,
	// plain text otherwise.
	Content string

	// Warning explains why the operation is blocked or risky, if it is.
	Warning string

	// CanApprove reports whether the call may proceed to the approval
	// gate. When false the executor short-circuits the call and the
	// preview content becomes the result returned to the model.
	CanApprove bool

	// IsDiff marks Content as unified-diff text for colorized display.
	IsDiff bool
}

// Blocked builds a non-approvable preview carrying a warning.
func Blocked(summary, warning string) Preview {
	return Preview{Summary: summary, Warning: warning}
}
