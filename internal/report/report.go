// Package report renders fleet status and workload results for the CLI.
// Output is plain text unless it goes to a terminal, in which case alerts and
// scores are colour-coded with lipgloss.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/garagemon/garagemon/internal/registry"
	"github.com/garagemon/garagemon/internal/vehicle"
	"github.com/garagemon/garagemon/internal/workload"
)

var (
	colorOK   = lipgloss.Color("42")
	colorWarn = lipgloss.Color("220")
	colorCrit = lipgloss.Color("196")
	colorDim  = lipgloss.Color("240")
)

// Printer writes status lines to one destination.
type Printer struct {
	w      io.Writer
	styled bool

	id, ok, warn, crit, dim lipgloss.Style
}

// NewPrinter returns a Printer for w. Styling is enabled only when w is a
// terminal.
func NewPrinter(w io.Writer) *Printer {
	styled := false
	if f, isFile := w.(*os.File); isFile {
		styled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return newPrinter(w, styled)
}

func newPrinter(w io.Writer, styled bool) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:      w,
		styled: styled,
		id:     r.NewStyle().Bold(true),
		ok:     r.NewStyle().Foreground(colorOK),
		warn:   r.NewStyle().Foreground(colorWarn),
		crit:   r.NewStyle().Foreground(colorCrit).Bold(true),
		dim:    r.NewStyle().Foreground(colorDim),
	}
}

// Write writes statuses to w in the plain report format.
func Write(w io.Writer, statuses []registry.Status) error {
	return newPrinter(w, false).Statuses(statuses)
}

// Statuses writes one line per status, in the order given.
func (p *Printer) Statuses(statuses []registry.Status) error {
	for _, st := range statuses {
		if _, err := fmt.Fprintln(p.w, p.line(st)); err != nil {
			return fmt.Errorf("report: write status: %w", err)
		}
	}
	return nil
}

func (p *Printer) line(st registry.Status) string {
	if !p.styled {
		return st.Line()
	}
	sep := p.dim.Render(" | ")
	head := "Car: " + p.id.Render(st.ID)
	if !st.HasAll || st.Score == nil {
		return head + sep + "Status: " + p.warn.Render(vehicle.AlertSensorFailure.Label())
	}
	score := fmt.Sprintf("%.2f", *st.Score)
	if st.Alert == vehicle.AlertNone {
		return head + sep + "Score: " + p.ok.Render(score)
	}
	return head + sep + "Score: " + p.crit.Render(score) + sep + "Alert: " + p.crit.Render(st.Alert.Label())
}

// runLabelWidth aligns the elapsed times of consecutive Run lines.
const runLabelWidth = len("Single-thread elapsed: ")

// SimulationHeading writes the banner that precedes the workload runs.
func (p *Printer) SimulationHeading(iterations, threads int) error {
	head := fmt.Sprintf("\n--- Real-time Simulation (%d iterations, %d thread(s) in MT mode) ---", iterations, threads)
	if p.styled {
		head = p.id.Render(head)
	}
	if _, err := fmt.Fprintln(p.w, head); err != nil {
		return fmt.Errorf("report: write heading: %w", err)
	}
	return nil
}

// Run writes a workload result line, padding so that times line up:
//
//	Single-thread elapsed: 12 ms | avg score: 31.07
//	Multi-thread elapsed:  9 ms | avg score: 30.88
func (p *Printer) Run(label string, res workload.Result, avg float64, hasAvg bool) error {
	line := fmt.Sprintf("%-*s%d ms", runLabelWidth, label+" elapsed:", res.ElapsedMillis())
	if hasAvg {
		line += fmt.Sprintf(" | avg score: %.2f", avg)
	}
	if _, err := fmt.Fprintln(p.w, line); err != nil {
		return fmt.Errorf("report: write run: %w", err)
	}
	return nil
}
