// Package progress prints colored status lines to the console.
package progress

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/umputun/modelsync/pkg/config"
)

// Colors holds colors for each kind of output line.
type Colors struct {
	info    *color.Color
	success *color.Color
	warn    *color.Color
	err     *color.Color
	header  *color.Color
}

// NewColors creates colors from config values in "r,g,b" form.
// values that can't be parsed fall back to basic terminal colors.
func NewColors(cfg config.ColorConfig) *Colors {
	return &Colors{
		info:    rgbOr(cfg.Info, color.FgWhite),
		success: rgbOr(cfg.Success, color.FgGreen),
		warn:    rgbOr(cfg.Warn, color.FgYellow),
		err:     rgbOr(cfg.Error, color.FgRed),
		header:  rgbOr(cfg.Header, color.FgCyan).Add(color.Bold),
	}
}

// Info returns the color for informational lines.
func (c *Colors) Info() *color.Color { return c.info }

// Error returns the color for error lines.
func (c *Colors) Error() *color.Color { return c.err }

func (c *Colors) all() []*color.Color {
	return []*color.Color{c.info, c.success, c.warn, c.err, c.header}
}

// rgbOr parses "r,g,b" into a color, returning a color with the fallback attribute on failure.
func rgbOr(rgb string, fallback color.Attribute) *color.Color {
	parts := strings.Split(rgb, ",")
	if len(parts) != 3 {
		return color.New(fallback)
	}
	var vals [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return color.New(fallback)
		}
		vals[i] = v
	}
	return color.RGB(vals[0], vals[1], vals[2])
}

// Printer writes status lines to an output stream.
type Printer struct {
	out    io.Writer
	colors *Colors
}

// NewPrinter creates a Printer writing to out. colors are disabled when noColor is set
// or out is not a terminal.
func NewPrinter(out io.Writer, colors *Colors, noColor bool) *Printer {
	if colors == nil {
		colors = NewColors(config.ColorConfig{})
	}
	if noColor || !isTerminal(out) {
		for _, c := range colors.all() {
			c.DisableColor()
		}
	}
	return &Printer{out: out, colors: colors}
}

// Banner prints a title between two separator lines.
func (p *Printer) Banner(title string) {
	line := strings.Repeat("=", lineWidth(p.out))
	p.colors.header.Fprintln(p.out, line)
	p.colors.header.Fprintln(p.out, "  "+title)
	p.colors.header.Fprintln(p.out, line)
}

// Header prints a section header preceded by an empty line.
func (p *Printer) Header(format string, args ...any) {
	fmt.Fprintln(p.out)
	p.colors.header.Fprintln(p.out, fmt.Sprintf(format, args...))
}

// Info prints an informational line.
func (p *Printer) Info(format string, args ...any) {
	p.colors.info.Fprintln(p.out, fmt.Sprintf(format, args...))
}

// Success prints a success line.
func (p *Printer) Success(format string, args ...any) {
	p.colors.success.Fprintln(p.out, fmt.Sprintf(format, args...))
}

// Warn prints a warning line.
func (p *Printer) Warn(format string, args ...any) {
	p.colors.warn.Fprintln(p.out, "WARN: "+fmt.Sprintf(format, args...))
}

// Error prints an error line.
func (p *Printer) Error(format string, args ...any) {
	p.colors.err.Fprintln(p.out, "ERROR: "+fmt.Sprintf(format, args...))
}

// Print writes a plain line, used for diagnostics of other packages like notify.
func (p *Printer) Print(format string, args ...any) {
	fmt.Fprintln(p.out, strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits int
}

// lineWidth returns separator width: COLUMNS env, terminal width, or 70, capped at 100.
func lineWidth(w io.Writer) int {
	const defaultWidth, maxWidth = 70, 100

	width := defaultWidth
	if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && cols > 0 {
		width = cols
	} else if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 { //nolint:gosec // fd fits int
			width = tw
		}
	}
	return min(width, maxWidth)
}
