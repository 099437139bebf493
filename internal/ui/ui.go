package ui

// Basic ANSI color codes used by the logging package, which writes plain
// terminal output without pulling in lipgloss.
const (
	Reset      = "\033[0m"
	LegacyBold = "\033[1m"
	FgBlue     = "\033[34m"
	FgCyan     = "\033[36m"
	FgGreen    = "\033[32m"
	FgMagenta  = "\033[35m"
	FgYellow   = "\033[33m"
	FgRed      = "\033[31m"
)

var colorDisabled bool

// Init configures plain-terminal output. When noColor is true, Color becomes
// a no-op; useful for non-TTY output and for stable test assertions.
func Init(noColor bool) {
	colorDisabled = noColor
}

// Color wraps a string with the given ANSI code.
func Color(s string, code string) string {
	if colorDisabled {
		return s
	}
	return code + s + Reset
}
