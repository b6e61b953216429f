package prompt

// Values of INTERACTIVE_UI.
const (
	// UILine asks numbered questions on plain lines.
	UILine = "line"
	// UITUI draws a full screen list.
	UITUI = "tui"
)
