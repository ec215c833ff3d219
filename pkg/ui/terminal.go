package ui

import (
	"fmt"
	"io"
	"os"

	"bottagger/pkg/scoring"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔════════════════════════════════════════════════════════════════════╗
    ║ ██████╗  ██████╗ ████████╗████████╗ █████╗  ██████╗  ██████╗ ███████╗ ║
    ║ ██╔══██╗██╔═══██╗╚══██╔══╝╚══██╔══╝██╔══██╗██╔════╝ ██╔════╝ ██╔════╝ ║
    ║ ██████╔╝██║   ██║   ██║      ██║   ███████║██║  ███╗██║  ███╗█████╗   ║
    ║ ██╔══██╗██║   ██║   ██║      ██║   ██╔══██║██║   ██║██║   ██║██╔══╝   ║
    ║ ██████╔╝╚██████╔╝   ██║      ██║   ██║  ██║╚██████╔╝╚██████╔╝███████╗ ║
    ║ ╚═════╝  ╚═════╝    ╚═╝      ╚═╝   ╚═╝  ╚═╝ ╚═════╝  ╚═════╝ ╚══════╝ ║
    ║              AUTOMATED ACCOUNT LIKELIHOOD ANNOTATOR                  ║
    ╚════════════════════════════════════════════════════════════════════╝
`

// Output is where the Print helpers write.
var Output io.Writer = os.Stdout

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// LabelColor picks the terminal color for a likelihood label, matching
// the badge bands rendered into the page.
func LabelColor(l scoring.Label) func(string) string {
	switch l {
	case scoring.High:
		return Red
	case scoring.Medium:
		return Yellow
	case scoring.Low:
		return Green
	default:
		return Dim
	}
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	fmt.Fprint(Output, Cyan(ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(Output, Green(msg))
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	fmt.Fprintf(Output, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output, Yellow(msg))
	}
}

// PrintResult prints one scored account.
func PrintResult(username string, r scoring.Result) {
	color := LabelColor(r.Label)
	fmt.Fprintf(Output, "%-24s %s  adjusted %s  ratio %s\n",
		Cyan(username),
		color(fmt.Sprintf("%-6s", r.Label)),
		r.Adjusted,
		r.RawRatio,
	)
}

// DisableColor makes the color functions return their input unchanged.
func DisableColor() {
	plain := func(s string) string { return s }
	Cyan, Yellow, Red, Green, Magenta, Dim = plain, plain, plain, plain, plain, plain
}
