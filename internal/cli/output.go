package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// printer writes the console report in the style of the classic console
// commands: an underlined title, underlined sections and plain tables.
type printer struct {
	w io.Writer
}

func (p printer) title(text string) {
	fmt.Fprintf(p.w, "\n%s\n%s\n\n", text, strings.Repeat("=", len(text)))
}

func (p printer) section(text string) {
	fmt.Fprintf(p.w, "%s\n%s\n\n", text, strings.Repeat("-", len(text)))
}

func (p printer) warning(format string, args ...any) {
	fmt.Fprintf(p.w, "[WARNING] %s\n\n", fmt.Sprintf(format, args...))
}

func (p printer) note(format string, args ...any) {
	fmt.Fprintf(p.w, "%s\n", fmt.Sprintf(format, args...))
}

// table renders t, fitting column fit into the terminal when w is one.
func (p printer) table(t *Table, fit int) {
	if width := terminalWidth(p.w); width > 0 {
		t.FitColumn(fit, width)
	}
	fmt.Fprintln(p.w, t.Render())
}

// terminalWidth returns the width of the terminal behind w, or 0 when w is
// not a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	fd := int(f.Fd()) // #nosec G115 - file descriptors fit in int
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
