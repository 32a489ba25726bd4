package checker

import (
	"fmt"
	"io"
	"strings"
)

// ANSI escape codes for the operator-facing check output.
const (
	colorGreen  = "\033[92m"
	colorRed    = "\033[91m"
	colorYellow = "\033[93m"
	colorBlue   = "\033[94m"
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
)

// Reporter writes the human-facing check progress and verdicts. Operational
// detail stays on logrus; this stream is the readable summary.
type Reporter struct {
	out io.Writer
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

func (r *Reporter) Header(message string) {
	rule := colorBlue + colorBold + strings.Repeat("=", 70) + colorReset
	fmt.Fprintf(r.out, "\n%s\n%s%s%s%s\n%s\n\n", rule, colorBlue, colorBold, message, colorReset, rule)
}

func (r *Reporter) Success(message string) {
	fmt.Fprintf(r.out, "%s✓ %s%s\n", colorGreen, message, colorReset)
}

func (r *Reporter) Error(message string) {
	fmt.Fprintf(r.out, "%s✗ %s%s\n", colorRed, message, colorReset)
}

func (r *Reporter) Info(message string) {
	fmt.Fprintf(r.out, "%sℹ %s%s\n", colorYellow, message, colorReset)
}

func (r *Reporter) Plain(message string) {
	fmt.Fprintln(r.out, message)
}
