// Package ui renders querycraft output for terminals.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	// Styles
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	SQLStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SecondaryColor).
			Padding(0, 1)
)

var titleCaser = cases.Title(language.English)

// Title capitalises each word of a section title.
func Title(s string) string {
	return titleCaser.String(s)
}

// Printer writes styled output to a pair of writers.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// NewPrinter returns a printer; nil writers default to stdout and stderr.
func NewPrinter(out, errOut io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Printer{Out: out, Err: errOut}
}

var std = NewPrinter(nil, nil)

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) { std.Error(format, args...) }

// PrintSuccess prints a success message to stdout.
func PrintSuccess(format string, args ...any) { std.Success(format, args...) }

// PrintWarning prints a warning message to stdout.
func PrintWarning(format string, args ...any) { std.Warning(format, args...) }

// PrintInfo prints an info message to stdout.
func PrintInfo(format string, args ...any) { std.Info(format, args...) }

// Success prints a success message
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.Out, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Error prints an error message
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.Err, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.Out, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Info prints an info message
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.Out, InfoStyle.Render("ℹ "+fmt.Sprintf(format, args...)))
}

// Section prints a title-cased section header.
func (p *Printer) Section(title string) {
	fmt.Fprintln(p.Out)
	fmt.Fprintln(p.Out, TitleStyle.Render(Title(title)))
}

// Muted prints secondary text.
func (p *Printer) Muted(format string, args ...any) {
	fmt.Fprintln(p.Out, SecondaryStyle.Render(fmt.Sprintf(format, args...)))
}

// SQL prints a statement in a box. Empty statements print a placeholder.
func (p *Printer) SQL(sql string) {
	if sql == "" {
		p.Muted("(nothing to compile yet)")
		return
	}
	fmt.Fprintln(p.Out, SQLStyle.Render(sql))
}

// Table prints a table using pterm
func (p *Printer) Table(headers []string, rows [][]string) error {
	data := pterm.TableData{headers}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(p.Out, out)
	return nil
}

// List prints a bulleted list
func (p *Printer) List(items []string) {
	for _, item := range items {
		fmt.Fprintf(p.Out, "  • %s\n", item)
	}
}

// Severity colors used by hint output.
var (
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
)
