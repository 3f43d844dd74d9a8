package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// printer writes command output to the command's streams so tests can
// capture it.
type printer struct {
	out io.Writer
	err io.Writer
}

func newPrinter(cmd *cobra.Command) printer {
	return printer{out: cmd.OutOrStdout(), err: cmd.ErrOrStderr()}
}

// Success prints a green message with a checkmark prefix.
func (p printer) Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprint(p.out, msg)
}

func (p printer) Info(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

func (p printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.out, "! %s", fmt.Sprintf(format, a...))
}

func (p printer) Step(format string, a ...any) {
	cyan.Fprintf(p.out, "→ %s", fmt.Sprintf(format, a...))
}

// Error prints a titled explanation with suggestions to stderr and returns
// a short error for cobra.
func (p printer) Error(title, explanation string, suggestions ...string) error {
	red.Fprintf(p.err, "%s\n", title)
	if explanation != "" {
		fmt.Fprintf(p.err, "\n%s\n", explanation)
	}
	if len(suggestions) > 0 {
		fmt.Fprintln(p.err)
		for _, s := range suggestions {
			fmt.Fprintf(p.err, "  %s\n", s)
		}
	}
	return fmt.Errorf("%s", title)
}

func (p printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
